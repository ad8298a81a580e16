package validate

import (
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when an identifier is not a valid UUID.
var ErrInvalidID = errors.New("invalid ID format")

// ID validates that s is a well-formed UUID and returns its canonical
// lowercase form. This is a structural check only; existence is the
// repository's concern.
func ID(s string) (string, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", ErrInvalidID
	}
	return parsed.String(), nil
}
