package farm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned when a lookup by id finds nothing.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable marks a single provider that produced no usable data.
	// The cascade skips it and moves on to the next tier.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrResolutionFailed is returned when every tier of a cascade was unavailable.
	ErrResolutionFailed = errors.New("resolution failed")

	// ErrValidation matches any *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes a malformed resolution or record request.
type ValidationError struct {
	Fields []string
	Cause  error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation failed: %v", e.Cause)
	}
	return fmt.Sprintf("validation failed: invalid %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return e.Cause }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ResolutionError reports which tiers were tried before giving up.
type ResolutionError struct {
	Fact  string
	Tried []string
	Last  error
}

func (e *ResolutionError) Error() string {
	if len(e.Tried) == 0 {
		return fmt.Sprintf("resolve %s: no providers configured", e.Fact)
	}
	return fmt.Sprintf("resolve %s: all tiers unavailable (%s): %v", e.Fact, strings.Join(e.Tried, ", "), e.Last)
}

func (e *ResolutionError) Is(target error) bool { return target == ErrResolutionFailed }

func (e *ResolutionError) Unwrap() error { return e.Last }

var validate = validator.New()

// Validate checks a struct against its `validate` tags and returns a
// *ValidationError listing the offending fields.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return &ValidationError{Fields: fields, Cause: err}
	}
	return &ValidationError{Cause: err}
}
