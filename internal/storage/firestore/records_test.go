package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentaltax/internal/core"
)

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reports := []core.GeneratedReport{
		{ID: "b", CreatedAt: base},
		{ID: "c", CreatedAt: base.Add(time.Hour)},
		{ID: "a", CreatedAt: base},
	}
	sortNewestFirst(reports)
	assert.Equal(t, []string{"c", "a", "b"}, []string{reports[0].ID, reports[1].ID, reports[2].ID})
}

func TestBatchDocHasNoProperty(t *testing.T) {
	d := toDoc(core.GeneratedReport{ID: "r1", AccountID: "a1", ReportType: core.Batch})
	assert.Nil(t, d.PropertyID)
	assert.Nil(t, d.PropertyName)
	assert.Nil(t, d.DeletedAt)
	assert.Equal(t, "batch", d.ReportType)
}

// Runs against the Firestore emulator when FIRESTORE_EMULATOR_HOST is set.
func TestRecordStoreEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "rentaltax-test")
	require.NoError(t, err)
	defer client.Close()

	s := NewRecordStore(client)
	account := "acct-" + uuid.NewString()
	id := uuid.NewString()
	name := "Maple"
	require.NoError(t, s.CreateReport(ctx, core.GeneratedReport{
		ID: id, AccountID: account, PropertyName: &name, Year: 2024,
		FileName: "ScheduleE_Maple_2024.pdf", StorageKey: "k", ReportType: core.SingleProperty,
		CreatedAt: time.Now(),
	}))

	got, err := s.GetReport(ctx, account, id)
	require.NoError(t, err)
	assert.Equal(t, "Maple", got.DisplayName())

	_, err = s.GetReport(ctx, "someone-else", id)
	assert.True(t, core.IsNotFound(err))

	list, err := s.ListReports(ctx, account)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.SoftDeleteReport(ctx, account, id, time.Now()))
	assert.True(t, core.IsNotFound(s.SoftDeleteReport(ctx, account, id, time.Now())))

	list, err = s.ListReports(ctx, account)
	require.NoError(t, err)
	assert.Empty(t, list)
}
