package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/user-registry/internal/models"
	"gorm.io/gorm"
)

// UserRepository persists users through GORM. Every write is a single SQL
// statement, so a cancelled request never leaves a partial write behind.
type UserRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db, now: defaultNow}
}

// WithClock returns a copy of the repository stamping rows with now.
func (r *UserRepository) WithClock(now func() time.Time) *UserRepository {
	return &UserRepository{db: r.db, now: now}
}

func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// List returns every user, newest first.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&users).Error
	if err != nil {
		return nil, classify("list users", err)
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, classify("get user", err)
	}
	return &user, nil
}

// FindByEmail looks up the holder of an already-normalized email. A positive
// excludeID skips that row, so a user never conflicts with itself.
func (r *UserRepository) FindByEmail(ctx context.Context, email string, excludeID int64) (*models.User, error) {
	query := r.db.WithContext(ctx).Where("email = ?", email)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var user models.User
	if err := query.Take(&user).Error; err != nil {
		return nil, classify("find user by email", err)
	}
	return &user, nil
}

// Insert creates a user and returns it with its store-assigned id.
func (r *UserRepository) Insert(ctx context.Context, name, email string) (*models.User, error) {
	now := r.now()
	user := models.User{
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, classify("insert user", err)
	}
	return &user, nil
}

// Update rewrites name and email in a single UPDATE statement and then reads
// the row back. created_at is never part of the SET list. A row deleted
// between the two statements reports ErrNotFound.
func (r *UserRepository) Update(ctx context.Context, id int64, name, email string) (*models.User, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":       name,
			"email":      email,
			"updated_at": r.now(),
		})
	if result.Error != nil {
		return nil, classify("update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, classify("update user", gorm.ErrRecordNotFound)
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return classify("delete user", result.Error)
	}
	if result.RowsAffected == 0 {
		return classify("delete user", gorm.ErrRecordNotFound)
	}
	return nil
}

// Ping checks store connectivity for readiness probes.
func (r *UserRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return classify("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}
