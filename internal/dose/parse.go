package dose

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidInput is matched by every InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

// InputErrorKind distinguishes unparseable text from implausible values.
type InputErrorKind int

const (
	NotANumber InputErrorKind = iota + 1
	OutOfRange
)

// InvalidInputError describes a rejected numeric answer.
type InvalidInputError struct {
	Kind  InputErrorKind
	Input string
}

func (e *InvalidInputError) Error() string {
	switch e.Kind {
	case OutOfRange:
		return fmt.Sprintf("value out of range: %q", e.Input)
	default:
		return fmt.Sprintf("not a number: %q", e.Input)
	}
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// ParseNumber parses a decimal answer such as "2.7". NaN and infinities are
// rejected as not-a-number; no physiological range check is applied.
func ParseNumber(text string) (float64, error) {
	s := strings.TrimSpace(text)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &InvalidInputError{Kind: NotANumber, Input: text}
	}
	return v, nil
}

// ParsePositive is ParseNumber plus a > 0 check, reported as OutOfRange.
func ParsePositive(text string) (float64, error) {
	v, err := ParseNumber(text)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, &InvalidInputError{Kind: OutOfRange, Input: text}
	}
	return v, nil
}
