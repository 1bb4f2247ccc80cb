package ledger

import (
	"fmt"
	"strings"
)

// maxIntegerDigits keeps parsed amounts well inside int64 minor units.
const maxIntegerDigits = 15

// ParseAmount parses user input such as "50000", "1 500,5" or "-20.25".
// Both '.' and ',' are accepted as the decimal separator and spaces may
// group digits. The result is rounded half-up to two decimals. Exponents,
// NaN and Inf are rejected. The sign is preserved so the caller can decide
// how to report non-positive values.
func ParseAmount(input string) (Amount, error) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		case ',':
			return '.'
		}
		return r
	}, input)

	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	if hasDot && fracPart == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}

	intPart = strings.TrimLeft(intPart, "0")
	if len(intPart) > maxIntegerDigits {
		return 0, fmt.Errorf("%w: %q is too large", ErrInvalidAmount, input)
	}

	var units int64
	for _, c := range intPart {
		units = units*10 + int64(c-'0')
	}
	units *= 100

	// first two fraction digits, then round on the third
	for i := 0; i < 2; i++ {
		d := int64(0)
		if i < len(fracPart) {
			d = int64(fracPart[i] - '0')
		}
		if i == 0 {
			units += d * 10
		} else {
			units += d
		}
	}
	if len(fracPart) > 2 && fracPart[2] >= '5' {
		units++
	}

	if negative {
		units = -units
	}
	return Amount(units), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
