package calc

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnknownPreset = errors.New("unknown preset")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
