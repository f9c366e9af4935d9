// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "IN"

// ErrInvalidNumber is returned when input cannot be parsed as a valid number.
var ErrInvalidNumber = errors.New("invalid phone number")

// Normalizer formats phone numbers to E.164 using a default region for
// numbers written in national format.
type Normalizer struct {
	region string
}

// NewNormalizer creates a Normalizer. An empty region falls back to the default.
func NewNormalizer(region string) *Normalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = defaultRegion
	}
	return &Normalizer{region: region}
}

// E164 returns the E.164 form of input or ErrInvalidNumber.
func (n *Normalizer) E164(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", ErrInvalidNumber
	}

	number, err := phonenumbers.Parse(trimmed, n.region)
	if err != nil {
		return "", ErrInvalidNumber
	}

	if !phonenumbers.IsValidNumber(number) {
		return "", ErrInvalidNumber
	}

	return phonenumbers.Format(number, phonenumbers.E164), nil
}

// NormalizeE164 formats a phone number to E.164 with the default region.
// If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	normalized, err := NewNormalizer(defaultRegion).E164(input)
	if err != nil {
		return strings.TrimSpace(input)
	}
	return normalized
}
