package dto

import "github.com/ahmetcoskunkizilkaya/user-registry/internal/validation"

// UserRequest is the create/update payload. Fields are decoded loosely so a
// non-string value reaches validation as an empty field instead of failing
// the whole body.
type UserRequest struct {
	Name  any `json:"name"`
	Email any `json:"email"`
}

func (r UserRequest) Input() validation.Input {
	return validation.Input{
		Name:  asString(r.Name),
		Email: asString(r.Email),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Error   string                 `json:"error"`
	Details []validation.Violation `json:"details"`
}

type DeleteResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type HealthResponse struct {
	Status      string       `json:"status"`
	Timestamp   string       `json:"timestamp"`
	Uptime      float64      `json:"uptime"`
	Database    string       `json:"database"`
	Environment string       `json:"environment"`
	Memory      MemoryStatus `json:"memory"`
}

type MemoryStatus struct {
	HeapAlloc uint64 `json:"heap_alloc"`
	HeapSys   uint64 `json:"heap_sys"`
	Sys       uint64 `json:"sys"`
}

type ReadinessResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type LivenessResponse struct {
	Status string `json:"status"`
}
