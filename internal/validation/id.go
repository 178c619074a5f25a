package validation

import (
	"errors"
	"regexp"
	"strconv"
)

var ErrInvalidID = errors.New("invalid user ID")

var digits = regexp.MustCompile(`^\d+$`)

// ParseID accepts only a decimal string naming a positive int64.
func ParseID(raw string) (int64, error) {
	if !digits.MatchString(raw) {
		return 0, ErrInvalidID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
