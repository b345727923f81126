package render

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentaltax/internal/core"
	"rentaltax/internal/ports"
)

func sampleReport() core.ScheduleEReport {
	line14 := 14
	line9 := 9
	return core.ScheduleEReport{
		PropertyID:      "p1",
		PropertyName:    "Maple Duplex",
		PropertyAddress: "12 Maple St, Austin, TX 78701",
		TaxYear:         2024,
		TotalIncome:     core.Cents(300000),
		ExpensesByCategory: []core.ReportLineItem{
			{CategoryID: "insurance", CategoryName: "Insurance", ScheduleLine: "Line 9", LineNumber: &line9, Amount: core.Cents(20000)},
			{CategoryID: "repairs", CategoryName: "Repairs", ScheduleLine: "Line 14", LineNumber: &line14, Amount: core.Cents(15000)},
		},
		TotalExpenses: core.Cents(35000),
		NetIncome:     core.Cents(265000),
		GeneratedAt:   time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
	}
}

func parsePDF(t *testing.T, data []byte) *pdf.Reader {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "missing PDF header")
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r
}

func TestRenderProducesReadablePDF(t *testing.T) {
	data, err := New().Render(context.Background(), sampleReport())
	require.NoError(t, err)
	r := parsePDF(t, data)
	assert.Equal(t, 1, r.NumPage())
}

func TestRenderContent(t *testing.T) {
	data, err := New(WithoutCompression()).Render(context.Background(), sampleReport())
	require.NoError(t, err)
	parsePDF(t, data)

	for _, want := range []string{"Maple Duplex", "Tax Year 2024", "Repairs", "Insurance", "3000.00", "350.00", "2650.00"} {
		assert.True(t, bytes.Contains(data, []byte(want)), "rendered PDF missing %q", want)
	}
}

func TestRenderEmptyAndLoss(t *testing.T) {
	rep := core.ScheduleEReport{
		PropertyName:       "Vacant Lot",
		TaxYear:            2024,
		ExpensesByCategory: []core.ReportLineItem{},
	}
	data, err := New(WithoutCompression()).Render(context.Background(), rep)
	require.NoError(t, err)
	parsePDF(t, data)
	assert.True(t, bytes.Contains(data, []byte("No expenses recorded")))

	rep.NetIncome = core.Cents(-400000)
	data, err = New(WithoutCompression()).Render(context.Background(), rep)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte("4000.00")))
}

func TestRenderHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Render(ctx, sampleReport())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "2650.00", formatAmount(core.Cents(265000)))
	assert.Equal(t, "(4000.00)", formatAmount(core.Cents(-400000)))
	assert.Equal(t, "0.00", formatAmount(core.Money{}))
}

func TestBundle(t *testing.T) {
	r := New()
	entries := []ports.BundleEntry{
		{FileName: "ScheduleE_A_2024.pdf", Data: []byte("a")},
		{FileName: "ScheduleE_C_2024.pdf", Data: []byte("c")},
	}
	data, err := r.Bundle(context.Background(), entries)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	for i, f := range zr.File {
		assert.Equal(t, entries[i].FileName, f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, entries[i].Data, body)
	}

	_, err = r.Bundle(context.Background(), nil)
	assert.Error(t, err)

	_, err = r.Bundle(context.Background(), append(entries, entries[0]))
	assert.ErrorContains(t, err, "duplicate")
}
