// Package directory maps room join codes to the endpoint of the host that
// owns them. A code can be held by one active host at a time.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// HandlePrefix is prepended to a normalized code to form its discovery handle.
const HandlePrefix = "RSA-"

var (
	ErrInvalidCode  = errors.New("invalid room code")
	ErrCodeInUse    = errors.New("room code already in use")
	ErrRoomNotFound = errors.New("room not found")
)

const (
	minCodeLength = 4
	maxCodeLength = 32
)

// Directory registers and resolves room codes.
type Directory interface {
	// Register claims code for endpoint. It fails with ErrCodeInUse when
	// another host holds the code.
	Register(ctx context.Context, code, endpoint string) error
	// Lookup returns the endpoint registered for code, or ErrRoomNotFound.
	Lookup(ctx context.Context, code string) (string, error)
	// Release frees code. Releasing an unknown code is not an error.
	Release(ctx context.Context, code string) error
}

// NormalizeCode trims and uppercases a user-entered code and validates it.
// Codes are 4-32 characters of any script without spaces or control
// characters.
func NormalizeCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if n := utf8.RuneCountInString(code); n < minCodeLength || n > maxCodeLength {
		return "", fmt.Errorf("%w: %q must be %d-%d characters", ErrInvalidCode, raw, minCodeLength, maxCodeLength)
	}
	if strings.IndexFunc(code, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r) || r == utf8.RuneError
	}) >= 0 {
		return "", fmt.Errorf("%w: %q contains spaces or control characters", ErrInvalidCode, raw)
	}
	return code, nil
}

// Handle returns the discovery handle of a normalized code.
func Handle(code string) string {
	return HandlePrefix + code
}

func handleFor(raw string) (string, error) {
	code, err := NormalizeCode(raw)
	if err != nil {
		return "", err
	}
	return Handle(code), nil
}
