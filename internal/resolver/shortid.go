package resolver

import (
	"errors"
	"fmt"
	"strings"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
// Set to 6 characters to balance usability with collision avoidance.
const MinShortIDLength = 6

// maxListed caps how many candidates an ambiguity message lists.
const maxListed = 10

// Resolve maps user input to one of the known ids.
//
// The function handles three cases:
// 1. Input equals a known id (any length, including legacy ids) - returned as-is
// 2. Input is too short (< 6 chars) - returns validation error
// 3. Input is a prefix - returns the unique id starting with it
func Resolve(ids []string, input string) (string, error) {
	for _, id := range ids {
		if id == input {
			return id, nil
		}
	}

	if len(input) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(input))
	}

	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, input) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: input}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: input, Matches: matches}
	}
}

// NotFoundError indicates no use case matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no use cases found matching '%s'", e.ShortID)
}

// AmbiguousError indicates multiple use cases matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d use cases", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly listing of the matching ids
// (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "'%s' matches %d use cases:\n", err.ShortID, len(err.Matches))

	displayCount := min(len(err.Matches), maxListed)
	for _, id := range err.Matches[:displayCount] {
		fmt.Fprintf(&b, "  %s\n", id)
	}

	if len(err.Matches) > maxListed {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-maxListed)
	}

	b.WriteString("\nUse a longer prefix to uniquely identify the use case.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	var amb *AmbiguousError
	return errors.As(err, &amb)
}
