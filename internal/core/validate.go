package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Stored amounts keep at most four decimal places and ten integer digits.
// Values outside that are rejected instead of being rounded on write.
const (
	amountScale  = 4
	amountDigits = 10
)

var (
	validCategories = []string{"parts", "tools", "refrigerant", "supplies", "equipment", "other"}
	validUnits      = []string{"ea", "lbs", "oz", "gal", "ft", "box", "case", "roll", "set"}
)

// NormalizePhone strips everything but digits and formats a 10-digit number
// as (555) 123-4567.
func NormalizePhone(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", Validationf("phone number is required")
	}
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) != 10 {
		return "", Validationf("phone must be 10 digits (e.g., 5551234567), got %d", len(d))
	}
	return fmt.Sprintf("(%s) %s-%s", d[:3], d[3:6], d[6:]), nil
}

// NormalizeCategory lower-cases and trims a category and checks it against
// the known set.
func NormalizeCategory(raw string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" {
		return "", Validationf("category is required")
	}
	if !contains(validCategories, c) {
		return "", Validationf("category must be one of: %s", strings.Join(validCategories, ", "))
	}
	return c, nil
}

// NormalizeUnit lower-cases and trims a unit of measure and checks it
// against the known set.
func NormalizeUnit(raw string) (string, error) {
	u := strings.ToLower(strings.TrimSpace(raw))
	if u == "" {
		return "", Validationf("unit is required")
	}
	if !contains(validUnits, u) {
		return "", Validationf("unit must be one of: %s", strings.Join(validUnits, ", "))
	}
	return u, nil
}

// NormalizeSKU trims and upper-cases a SKU.
func NormalizeSKU(raw string) (string, error) {
	sku := strings.ToUpper(strings.TrimSpace(raw))
	if sku == "" {
		return "", Validationf("sku is required")
	}
	return sku, nil
}

func requireText(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", Validationf("%s is required", field)
	}
	return v, nil
}

func requireNonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return Validationf("%s cannot be negative, got %s", field, d)
	}
	return nil
}

// checkAmount rejects values that would not survive a round trip through
// storage unchanged.
func checkAmount(field string, d decimal.Decimal) error {
	if d.Exponent() < -amountScale && !d.Equal(d.Truncate(amountScale)) {
		return Validationf("%s allows at most %d decimal places, got %s", field, amountScale, d)
	}
	if d.Abs().Truncate(0).NumDigits() > amountDigits {
		return Validationf("%s is too large, got %s", field, d)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
