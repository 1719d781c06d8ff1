package asset

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit conversion errors
var (
	ErrInvalidDecimal = errors.New("asset: not a decimal number")
	ErrNonPositive    = errors.New("asset: amount must be greater than zero")
)

// decimalPattern accepts plain unsigned decimals: "10", "0.25", ".5", "3.".
// Exponents, signs, separators, and whitespace inside the number are rejected.
var decimalPattern = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)$`)

// ParseUnits converts a human decimal string to base units at the given
// precision. It never truncates: more significant fractional digits than
// decimals is ErrTooManyDecimals.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("%w: %q", ErrNegativeAmount, s)
	}
	if !decimalPattern.MatchString(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}

	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("%w: %q has more than %d", ErrTooManyDecimals, s, decimals)
	}

	return scaled.BigInt(), nil
}

// ParsePositiveUnits is ParseUnits for operations that require amount > 0.
func ParsePositiveUnits(s string, decimals uint8) (*big.Int, error) {
	v, err := ParseUnits(s, decimals)
	if err != nil {
		return nil, err
	}
	if v.Sign() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNonPositive, s)
	}
	return v, nil
}

// ValidatePositive checks that s is a well-formed decimal greater than zero
// without knowing the precision yet. Precision-dependent checks happen in
// ParsePositiveUnits once the precision has been read.
func ValidatePositive(s string) error {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return fmt.Errorf("%w: %q", ErrNegativeAmount, s)
	}
	if !decimalPattern.MatchString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}
	if !d.IsPositive() {
		return fmt.Errorf("%w: %q", ErrNonPositive, s)
	}
	return nil
}

// ValidateDecimal checks that s is a well-formed non-negative decimal.
// Zero is accepted.
func ValidateDecimal(s string) error {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return fmt.Errorf("%w: %q", ErrNegativeAmount, s)
	}
	if !decimalPattern.MatchString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}
	return nil
}

// FormatUnits renders base units as an exact decimal string with trailing
// zeros trimmed.
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}
