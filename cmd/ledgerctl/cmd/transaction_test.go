package cmd

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntries(t *testing.T) {
	entries, err := parseEntries([]string{"debit:150.25:cash", "CREDIT:150.25:revenue"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "debit", entries[0].Direction)
	assert.Equal(t, "cash", entries[0].AccountID)
	assert.True(t, decimal.RequireFromString("150.25").Equal(entries[0].Amount))
	assert.Equal(t, "credit", entries[1].Direction)
}

func TestParseEntriesErrors(t *testing.T) {
	for _, raw := range []string{"debit:10", "debit:ten:cash", "debit:10:"} {
		t.Run(raw, func(t *testing.T) {
			_, err := parseEntries([]string{raw})
			assert.Error(t, err)
		})
	}
}
