package validation

import (
	"errors"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MaxNameLength = 255

	// Address limits: 64 for the local part, 254 for the whole address.
	MaxEmailLocalLength = 64
	MaxEmailLength      = 254

	NameMessage  = "Name must be between 1 and 255 characters"
	EmailMessage = "Must be a valid email address"
)

// Input is the raw name/email pair taken from a request body.
type Input struct {
	Name  string
	Email string
}

// Violation is a single field-level rule failure, safe to show to clients.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is either a Candidate or a Malformed payload.
type Result interface {
	isResult()
}

// Candidate is a payload that passed every rule, already normalized.
type Candidate struct {
	Name  string
	Email string
}

// Malformed carries every violation found in a payload.
type Malformed struct {
	Violations []Violation
}

func (Candidate) isResult() {}
func (Malformed) isResult() {}

type userRules struct {
	Name  string `json:"name" validate:"min=1,max=255"`
	Email string `json:"email" validate:"required,max=254,email"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// ValidateUser checks and normalizes a payload.
func ValidateUser(in Input) Result {
	rules := userRules{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
	}

	nameOK, emailOK := true, true

	var fieldErrs validator.ValidationErrors
	if err := validate.Struct(rules); errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			switch fe.Field() {
			case "name":
				nameOK = false
			case "email":
				emailOK = false
			}
		}
	}
	if nameOK && !printable(rules.Name) {
		nameOK = false
	}
	if emailOK && !plainAddress(rules.Email) {
		emailOK = false
	}

	var violations []Violation
	if !nameOK {
		violations = append(violations, Violation{Field: "name", Message: NameMessage})
	}
	if !emailOK {
		violations = append(violations, Violation{Field: "email", Message: EmailMessage})
	}
	if len(violations) > 0 {
		return Malformed{Violations: violations}
	}

	return Candidate{
		Name:  rules.Name,
		Email: NormalizeEmail(rules.Email),
	}
}

// NormalizeEmail returns the comparable form of an address: trimmed and
// lower-cased as a whole. It is applied on every write and every lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// printable reports whether s is valid UTF-8 with no control characters.
// NUL in particular is rejected by Postgres text columns.
func printable(s string) bool {
	return utf8.ValidString(s) && strings.IndexFunc(s, unicode.IsControl) < 0
}

// plainAddress enforces what the email tag leaves open: exactly one "@",
// no whitespace or control characters, a local part of at most 64 bytes,
// and a dotted domain.
func plainAddress(email string) bool {
	if !printable(email) {
		return false
	}
	if strings.IndexFunc(email, unicode.IsSpace) >= 0 {
		return false
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || len(local) > MaxEmailLocalLength || strings.Contains(domain, "@") {
		return false
	}
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
