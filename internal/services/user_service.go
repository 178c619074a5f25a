package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/user-registry/internal/models"
	"github.com/ahmetcoskunkizilkaya/user-registry/internal/repository"
	"github.com/ahmetcoskunkizilkaya/user-registry/internal/validation"
)

// UserStore is the persistence the service needs. Implementations report
// repository.ErrNotFound, repository.ErrDuplicateEmail or repository.ErrUnavailable.
type UserStore interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string, excludeID int64) (*models.User, error)
	Insert(ctx context.Context, name, email string) (*models.User, error)
	Update(ctx context.Context, id int64, name, email string) (*models.User, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// UserService runs the user lifecycle: validation, uniqueness checks and the
// mutating store call. The email pre-check only produces a friendly error;
// the store's unique index decides, and its rejection maps to the same
// ErrEmailConflict.
type UserService struct {
	store   UserStore
	timeout time.Duration
}

func NewUserService(store UserStore, timeout time.Duration) *UserService {
	return &UserService{store: store, timeout: timeout}
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	users, err := s.store.List(ctx)
	if err != nil {
		return nil, translate(err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, rawID string) (*models.User, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

func (s *UserService) Create(ctx context.Context, in validation.Input) (*models.User, error) {
	candidate, err := validate(in)
	if err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(ctx, candidate.Email, 0); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.store.Insert(ctx, candidate.Name, candidate.Email)
	if err != nil {
		return nil, s.translateWrite("create", err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, rawID string, in validation.Input) (*models.User, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	candidate, err := validate(in)
	if err != nil {
		return nil, err
	}

	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(ctx, candidate.Email, id); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.store.Update(ctx, id, candidate.Name, candidate.Email)
	if err != nil {
		return nil, s.translateWrite("update", err)
	}
	return user, nil
}

// Delete removes a user and returns its id. A repeated call reports ErrNotFound.
func (s *UserService) Delete(ctx context.Context, rawID string) (int64, error) {
	id, err := parseID(rawID)
	if err != nil {
		return 0, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.store.Delete(ctx, id); err != nil {
		return 0, translate(err)
	}
	return id, nil
}

// Ready reports whether the store answers a ping.
func (s *UserService) Ready(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *UserService) get(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

// ensureEmailFree fails with ErrEmailConflict when a record other than
// excludeID already holds email.
func (s *UserService) ensureEmailFree(ctx context.Context, email string, excludeID int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.store.FindByEmail(ctx, email, excludeID)
	switch {
	case err == nil:
		return ErrEmailConflict
	case errors.Is(err, repository.ErrNotFound):
		return nil
	}
	return translate(err)
}

func (s *UserService) translateWrite(op string, err error) error {
	translated := translate(err)
	if errors.Is(translated, ErrEmailConflict) {
		slog.Warn("email uniqueness enforced by store after pre-check passed", "action", op)
	}
	return translated
}

func (s *UserService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// translate maps a store error onto the service's error kinds. Anything not
// recognised is treated as the store being unavailable.
func translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailConflict
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func parseID(raw string) (int64, error) {
	id, err := validation.ParseID(raw)
	if err != nil {
		return 0, ErrInvalidIdentifier
	}
	return id, nil
}

func validate(in validation.Input) (validation.Candidate, error) {
	switch r := validation.ValidateUser(in).(type) {
	case validation.Candidate:
		return r, nil
	case validation.Malformed:
		return validation.Candidate{}, &ValidationError{Violations: r.Violations}
	}
	return validation.Candidate{}, ErrValidationFailed
}
