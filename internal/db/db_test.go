package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hvac-ledger/internal/config"
)

func TestNewPoolRequiresDSN(t *testing.T) {
	_, err := NewPool(context.Background(), config.DBConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN")
}

func TestNewPoolRejectsMalformedDSN(t *testing.T) {
	_, err := NewPool(context.Background(), config.DBConfig{DSN: "postgres://%zz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}
