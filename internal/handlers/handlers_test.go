package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/user-registry/internal/database"
	"github.com/ahmetcoskunkizilkaya/user-registry/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/user-registry/internal/models"
	"github.com/ahmetcoskunkizilkaya/user-registry/internal/repository"
	"github.com/ahmetcoskunkizilkaya/user-registry/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

func newApp(store services.UserStore) *fiber.App {
	h := handlers.NewUserHandler(services.NewUserService(store, 5*time.Second))
	app := fiber.New()
	app.Get("/api/users", h.List)
	app.Get("/api/users/:id", h.Get)
	app.Post("/api/users", h.Create)
	app.Put("/api/users/:id", h.Update)
	app.Delete("/api/users/:id", h.Delete)
	return app
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		database.Close(db)
	})
	return newApp(repository.NewUserRepository(db))
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(data)).Decode(&v))
	return v
}

type errorBody struct {
	Error   string `json:"error"`
	Details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

// brokenStore fails every call the way an unreachable database would.
type brokenStore struct{}

var errConnRefused = errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")

func (brokenStore) List(context.Context) ([]models.User, error) { return nil, errConnRefused }
func (brokenStore) GetByID(context.Context, int64) (*models.User, error) {
	return nil, errConnRefused
}
func (brokenStore) FindByEmail(context.Context, string, int64) (*models.User, error) {
	return nil, errConnRefused
}
func (brokenStore) Insert(context.Context, string, string) (*models.User, error) {
	return nil, errConnRefused
}
func (brokenStore) Update(context.Context, int64, string, string) (*models.User, error) {
	return nil, errConnRefused
}
func (brokenStore) Delete(context.Context, int64) error { return errConnRefused }
func (brokenStore) Ping(context.Context) error          { return errConnRefused }

// =============================================================================
// User Handler Tests
// =============================================================================

func TestCreateUser(t *testing.T) {
	app := setupApp(t)

	status, body := doRequest(t, app, http.MethodPost, "/api/users",
		`{"name":"  Ann Lee ","email":"Ann@Example.COM"}`)
	require.Equal(t, fiber.StatusCreated, status)

	user := decode[map[string]any](t, body)
	assert.Equal(t, float64(1), user["id"])
	assert.Equal(t, "Ann Lee", user["name"])
	assert.Equal(t, "ann@example.com", user["email"])
	require.IsType(t, "", user["created_at"])
	_, err := time.Parse(time.RFC3339, user["created_at"].(string))
	assert.NoError(t, err)
	assert.Contains(t, user, "updated_at")
}

func TestCreateUser_ValidationFailed(t *testing.T) {
	app := setupApp(t)

	status, body := doRequest(t, app, http.MethodPost, "/api/users",
		`{"name":"   ","email":"not-an-email"}`)
	require.Equal(t, fiber.StatusBadRequest, status)

	resp := decode[errorBody](t, body)
	assert.Equal(t, "Validation failed", resp.Error)
	require.Len(t, resp.Details, 2)
	assert.Equal(t, "name", resp.Details[0].Field)
	assert.Equal(t, "email", resp.Details[1].Field)
}

func TestCreateUser_NonStringFieldIsViolation(t *testing.T) {
	app := setupApp(t)

	status, body := doRequest(t, app, http.MethodPost, "/api/users",
		`{"name":42,"email":"ann@example.com"}`)
	require.Equal(t, fiber.StatusBadRequest, status)

	resp := decode[errorBody](t, body)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "name", resp.Details[0].Field)
}

func TestCreateUser_UnstorableInputIsViolation(t *testing.T) {
	app := setupApp(t)
	longEmail := strings.Repeat("a", 200) + "@example.com"

	tests := []struct {
		name, body, field string
	}{
		{"NUL in name", `{"name":"A\u0000B","email":"ann@example.com"}`, "name"},
		{"control char in name", `{"name":"Ann\u0007","email":"ann@example.com"}`, "name"},
		{"overlong email", `{"name":"Ann","email":"` + longEmail + `"}`, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, app, http.MethodPost, "/api/users", tt.body)
			require.Equal(t, fiber.StatusBadRequest, status)

			resp := decode[errorBody](t, body)
			assert.Equal(t, "Validation failed", resp.Error)
			require.Len(t, resp.Details, 1)
			assert.Equal(t, tt.field, resp.Details[0].Field)
		})
	}
}

func TestCreateUser_InvalidBody(t *testing.T) {
	app := setupApp(t)

	status, body := doRequest(t, app, http.MethodPost, "/api/users", `{"name":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", decode[errorBody](t, body).Error)
}

func TestCreateUser_EmailConflictIgnoresCase(t *testing.T) {
	app := setupApp(t)

	status, _ := doRequest(t, app, http.MethodPost, "/api/users",
		`{"name":"Ann","email":"ann@example.com"}`)
	require.Equal(t, fiber.StatusCreated, status)

	status, body := doRequest(t, app, http.MethodPost, "/api/users",
		`{"name":"Imposter","email":"ANN@example.com"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Email already exists", decode[errorBody](t, body).Error)
}

func TestGetUser(t *testing.T) {
	app := setupApp(t)
	doRequest(t, app, http.MethodPost, "/api/users", `{"name":"Ann","email":"ann@example.com"}`)

	status, body := doRequest(t, app, http.MethodGet, "/api/users/1", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ann@example.com", decode[map[string]any](t, body)["email"])

	status, body = doRequest(t, app, http.MethodGet, "/api/users/99", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "User not found", decode[errorBody](t, body).Error)
}

func TestGetUser_InvalidID(t *testing.T) {
	app := setupApp(t)

	for _, id := range []string{"abc", "0", "-1", "1.5", "12abc"} {
		status, body := doRequest(t, app, http.MethodGet, "/api/users/"+id, "")
		assert.Equal(t, fiber.StatusBadRequest, status, id)
		assert.Equal(t, "Invalid user ID", decode[errorBody](t, body).Error, id)
	}
}

func TestListUsers(t *testing.T) {
	app := setupApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/api/users", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	doRequest(t, app, http.MethodPost, "/api/users", `{"name":"Ann","email":"ann@example.com"}`)
	doRequest(t, app, http.MethodPost, "/api/users", `{"name":"Bob","email":"bob@example.com"}`)

	status, body = doRequest(t, app, http.MethodGet, "/api/users", "")
	require.Equal(t, fiber.StatusOK, status)
	users := decode[[]map[string]any](t, body)
	require.Len(t, users, 2)
	assert.Equal(t, "bob@example.com", users[0]["email"])
}

func TestUpdateUser(t *testing.T) {
	app := setupApp(t)
	doRequest(t, app, http.MethodPost, "/api/users", `{"name":"Ann","email":"ann@example.com"}`)
	doRequest(t, app, http.MethodPost, "/api/users", `{"name":"Bob","email":"bob@example.com"}`)

	status, body := doRequest(t, app, http.MethodPut, "/api/users/1",
		`{"name":"Ann Lee","email":"ANN@example.com"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Ann Lee", decode[map[string]any](t, body)["name"])

	status, body = doRequest(t, app, http.MethodPut, "/api/users/2",
		`{"name":"Bob","email":"ann@example.com"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Email already exists", decode[errorBody](t, body).Error)

	status, _ = doRequest(t, app, http.MethodPut, "/api/users/42",
		`{"name":"Nobody","email":"nobody@example.com"}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = doRequest(t, app, http.MethodPut, "/api/users/x",
		`{"name":"","email":""}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid user ID", decode[errorBody](t, body).Error)
}

func TestDeleteUser(t *testing.T) {
	app := setupApp(t)
	doRequest(t, app, http.MethodPost, "/api/users", `{"name":"Ann","email":"ann@example.com"}`)

	status, body := doRequest(t, app, http.MethodDelete, "/api/users/1", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"message":"User deleted successfully","id":1}`, string(body))

	status, _ = doRequest(t, app, http.MethodDelete, "/api/users/1", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestStoreFailure_HidesDetail(t *testing.T) {
	app := newApp(brokenStore{})

	tests := []struct {
		method, path, body, message string
	}{
		{http.MethodGet, "/api/users", "", "Failed to fetch users"},
		{http.MethodGet, "/api/users/1", "", "Failed to fetch user"},
		{http.MethodPost, "/api/users", `{"name":"Ann","email":"ann@example.com"}`, "Failed to create user"},
		{http.MethodPut, "/api/users/1", `{"name":"Ann","email":"ann@example.com"}`, "Failed to update user"},
		{http.MethodDelete, "/api/users/1", "", "Failed to delete user"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			status, body := doRequest(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, fiber.StatusInternalServerError, status)
			assert.JSONEq(t, `{"error":"`+tt.message+`"}`, string(body))
			assert.NotContains(t, string(body), "10.0.0.5")
		})
	}
}

// =============================================================================
// Health Handler Tests
// =============================================================================

type stubPinger struct{ err error }

func (p stubPinger) Ready(context.Context) error { return p.err }

func newHealthApp(p handlers.Pinger) *fiber.App {
	h := handlers.NewHealthHandler(p, "test")
	app := fiber.New()
	app.Get("/api/health", h.Check)
	app.Get("/api/health/ready", h.Ready)
	app.Get("/api/health/live", h.Live)
	return app
}

func TestHealth_OK(t *testing.T) {
	app := newHealthApp(stubPinger{})

	status, body := doRequest(t, app, http.MethodGet, "/api/health", "")
	require.Equal(t, fiber.StatusOK, status)

	resp := decode[map[string]any](t, body)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "connected", resp["database"])
	assert.Equal(t, "test", resp["environment"])
	assert.Contains(t, resp, "uptime")
	assert.Contains(t, resp, "memory")

	status, body = doRequest(t, app, http.MethodGet, "/api/health/ready", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"status":"ready"}`, string(body))
}

func TestHealth_StoreDown(t *testing.T) {
	app := newHealthApp(stubPinger{err: services.ErrStoreUnavailable})

	status, body := doRequest(t, app, http.MethodGet, "/api/health", "")
	require.Equal(t, fiber.StatusServiceUnavailable, status)
	resp := decode[map[string]any](t, body)
	assert.Equal(t, "degraded", resp["status"])
	assert.Equal(t, "disconnected", resp["database"])

	status, body = doRequest(t, app, http.MethodGet, "/api/health/ready", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.JSONEq(t, `{"status":"not ready","reason":"database not connected"}`, string(body))

	status, body = doRequest(t, app, http.MethodGet, "/api/health/live", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"status":"alive"}`, string(body))
}
