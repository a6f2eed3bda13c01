// Package contact validates and normalizes the customer contact details
// attached to a booking.
package contact

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers entered without a country prefix.
const DefaultRegion = "MX"

// NormalizePhone parses a customer phone number and returns it in E.164
// form. Numbers without a leading + are interpreted in the given region;
// pass "" to use DefaultRegion.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("phone number is required")
	}
	if region == "" {
		region = DefaultRegion
	}

	parsed, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("phone number %q is not parseable: %w", raw, err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("phone number %q is not valid", raw)
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// IsValidPhone reports whether raw parses to a valid number.
func IsValidPhone(raw, region string) bool {
	_, err := NormalizePhone(raw, region)
	return err == nil
}
