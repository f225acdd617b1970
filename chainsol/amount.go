package chainsol

import (
	"fmt"
	"math/big"
	"strings"
)

// ToBaseUnits - Convert a decimal amount string to the token's base-unit
// integer representation, scaled by decimals. The conversion is pure
// fixed-point string arithmetic: no floating point, fraction digits
// beyond the decimal count truncate toward zero.
func ToBaseUnits(amount string, decimals uint8) (uint64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}
	if strings.HasPrefix(amount, "-") {
		return 0, fmt.Errorf("%w: negative amount %q", ErrInvalidAmount, amount)
	}

	intPart := amount
	fracPart := ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		intPart, fracPart = amount[:i], amount[i+1:]
		if strings.IndexByte(fracPart, '.') >= 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
		}
	}
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	// Truncate or right-pad the fraction to exactly `decimals` digits,
	// then fold it into a single scaled integer.
	if len(fracPart) > int(decimals) {
		fracPart = fracPart[:decimals]
	}
	fracPart += strings.Repeat("0", int(decimals)-len(fracPart))

	scaled, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if !scaled.IsUint64() {
		return 0, fmt.Errorf("%w: %q overflows base units", ErrInvalidAmount, amount)
	}
	return scaled.Uint64(), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
