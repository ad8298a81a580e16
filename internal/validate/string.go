// Package validate provides centralized input validation utilities for the
// interaction API: identifier checks and sanitization of the free-form strings
// that reach storage (session IDs, catalog text).
package validate

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// String validation errors
var (
	ErrStringTooShort    = errors.New("string is too short")
	ErrStringTooLong     = errors.New("string is too long")
	ErrInvalidCharacters = errors.New("string contains invalid characters")
	ErrEmpty             = errors.New("string is empty")
)

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MinLength      int            // Minimum length (0 = no minimum)
	MaxLength      int            // Maximum length (0 = no maximum)
	AllowedPattern *regexp.Regexp // Optional regex pattern for allowed characters
	AllowEmpty     bool           // Whether empty strings are allowed
	TrimSpace      bool           // Whether to trim whitespace before validation
}

// String validates a string against the given constraints.
// Returns the validated (and optionally trimmed) string and an error if
// validation fails.
func String(s string, constraints StringConstraints) (string, error) {
	if constraints.TrimSpace {
		s = strings.TrimSpace(s)
	}

	if s == "" {
		if !constraints.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	// Character count, not byte count.
	length := utf8.RuneCountInString(s)

	if constraints.MinLength > 0 && length < constraints.MinLength {
		return "", fmt.Errorf("%w: got %d chars, need at least %d", ErrStringTooShort, length, constraints.MinLength)
	}
	if constraints.MaxLength > 0 && length > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, constraints.MaxLength)
	}
	if constraints.AllowedPattern != nil && !constraints.AllowedPattern.MatchString(s) {
		return "", fmt.Errorf("%w: does not match required pattern", ErrInvalidCharacters)
	}

	return s, nil
}

// SanitizeHTML escapes HTML special characters to prevent XSS when stored
// text is later rendered.
func SanitizeHTML(s string) string {
	return html.EscapeString(s)
}

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-\.]+$`)

// SessionID validates a client session identifier:
// - 1-128 characters
// - Letters, numbers, dash, underscore, period only
func SessionID(id string) (string, error) {
	return String(id, StringConstraints{
		MinLength:      1,
		MaxLength:      128,
		AllowedPattern: sessionIDPattern,
		AllowEmpty:     false,
		TrimSpace:      true,
	})
}

// BookTitle validates a catalog book title:
// - 1-300 characters, HTML-escaped
func BookTitle(title string) (string, error) {
	validated, err := String(title, StringConstraints{
		MinLength:  1,
		MaxLength:  300,
		AllowEmpty: false,
		TrimSpace:  true,
	})
	if err != nil {
		return "", err
	}
	return SanitizeHTML(validated), nil
}

// Username validates a display username:
// - 1-50 characters
// - Letters, numbers, dash, underscore only
func Username(name string) (string, error) {
	pattern := regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)
	return String(name, StringConstraints{
		MinLength:      1,
		MaxLength:      50,
		AllowedPattern: pattern,
		AllowEmpty:     false,
		TrimSpace:      true,
	})
}
