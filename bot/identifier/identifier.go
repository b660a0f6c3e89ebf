// Package identifier classifies and validates raw VIN and license plate input.
package identifier

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
)

const (
	VINLength      = 17
	PlateMinLength = 7
	PlateMaxLength = 9
)

// Validate normalizes input for the expected kind and reports why it is
// rejected. The returned error always wraps contract.ErrInvalidIdentifier.
func Validate(input string, kind contractx.IdentifierKind) (contractx.Identifier, error) {
	switch kind {
	case contractx.KindVIN:
		vin := NormalizeVIN(input)
		if n := utf8.RuneCountInString(vin); n != VINLength {
			return contractx.Identifier{}, fmt.Errorf("%w: vin must be %d characters, got %d", contractx.ErrInvalidIdentifier, VINLength, n)
		}
		if !alphanumeric(vin) {
			return contractx.Identifier{}, fmt.Errorf("%w: vin must contain only letters and digits", contractx.ErrInvalidIdentifier)
		}
		return contractx.Identifier{Kind: contractx.KindVIN, Value: vin}, nil
	case contractx.KindPlate:
		plate := NormalizePlate(input)
		n := utf8.RuneCountInString(plate)
		if n < PlateMinLength || n > PlateMaxLength {
			return contractx.Identifier{}, fmt.Errorf("%w: plate must be %d-%d characters, got %d", contractx.ErrInvalidIdentifier, PlateMinLength, PlateMaxLength, n)
		}
		if !alphanumeric(plate) {
			return contractx.Identifier{}, fmt.Errorf("%w: plate must contain only letters and digits", contractx.ErrInvalidIdentifier)
		}
		return contractx.Identifier{Kind: contractx.KindPlate, Value: plate}, nil
	default:
		return contractx.Identifier{}, fmt.Errorf("%w: unknown identifier kind %q", contractx.ErrInvalidIdentifier, kind)
	}
}

// NormalizeVIN removes all whitespace and upper-cases the rest.
func NormalizeVIN(input string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input))
}

// NormalizePlate removes spaces and hyphens and upper-cases the rest.
// Cyrillic and Latin letters are both kept as-is.
func NormalizePlate(input string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, input))
}

func alphanumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
