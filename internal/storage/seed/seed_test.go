package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentaltax/internal/core"
	"rentaltax/internal/storage/memory"
)

const sample = `
properties:
  - id: p1
    account_id: a1
    name: Maple Duplex
    street: 12 maple st
    city: austin
    state: tx
    postal_code: "78701"
expenses:
  - account_id: a1
    property_id: p1
    category: repairs
    amount: "100"
    date: 2024-02-01
  - account_id: a1
    property_id: p1
    category: insurance
    amount: "200,50"
    date: 2024-03-01
income:
  - account_id: a1
    property_id: p1
    amount: "1500.00"
    date: 2024-01-01
`

func TestLoadIntoMemory(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	counts, err := Load(ctx, strings.NewReader(sample), store)
	require.NoError(t, err)
	assert.Equal(t, Counts{Properties: 1, Expenses: 2, Income: 1}, counts)

	p, err := store.GetProperty(ctx, "a1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "12 Maple St, Austin, TX 78701", p.FormattedAddress())

	expenses, err := store.Expenses(ctx, "a1", "p1", core.YearRange(2024))
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, int64(20050), expenses[1].Amount.Cents)
}

func TestLoadRejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad amount", "expenses:\n  - {account_id: a1, property_id: p1, category: repairs, amount: abc, date: 2024-01-01}\n"},
		{"zero amount", "income:\n  - {account_id: a1, property_id: p1, amount: '0', date: 2024-01-01}\n"},
		{"bad date", "income:\n  - {account_id: a1, property_id: p1, amount: '5', date: 01/02/2024}\n"},
		{"missing account", "properties:\n  - {id: p1, name: X}\n"},
		{"bad yaml", "properties: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), strings.NewReader(tt.doc), memory.New())
			assert.Error(t, err)
		})
	}
}

func TestLoadFileMissingIsNoop(t *testing.T) {
	counts, err := LoadFile(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"), memory.New())
	require.NoError(t, err)
	assert.Zero(t, counts)

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	counts, err = LoadFile(context.Background(), path, memory.New())
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Properties)
}
