package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hvac-ledger/internal/core"
)

func TestNormalizePhone(t *testing.T) {
	for _, raw := range []string{"5551234567", "555-123-4567", "(555) 123-4567", " 555.123.4567 "} {
		got, err := core.NormalizePhone(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, "(555) 123-4567", got)
	}

	for _, raw := range []string{"", "   ", "555-1234", "1-555-123-4567"} {
		_, err := core.NormalizePhone(raw)
		assert.ErrorIs(t, err, core.ErrValidation, raw)
	}
}

func TestNormalizeCategoryAndUnit(t *testing.T) {
	c, err := core.NormalizeCategory(" Refrigerant ")
	require.NoError(t, err)
	assert.Equal(t, "refrigerant", c)

	_, err = core.NormalizeCategory("gadgets")
	assert.ErrorIs(t, err, core.ErrValidation)

	u, err := core.NormalizeUnit("LBS")
	require.NoError(t, err)
	assert.Equal(t, "lbs", u)

	_, err = core.NormalizeUnit("")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestCustomerPhoneStoredNormalized(t *testing.T) {
	f := newFixture()
	c := f.customer(t, "Acme")
	assert.Equal(t, "(555) 123-4567", c.Phone)
}
