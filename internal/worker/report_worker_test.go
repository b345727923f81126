package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentaltax/internal/amqp"
	"rentaltax/internal/core"
)

type fakeRunner struct {
	result *core.BatchResult
	rec    *core.GeneratedReport
	err    error

	calls []string
}

func (f *fakeRunner) RunBatch(_ context.Context, accountID string, propertyIDs []string, year int) (*core.BatchResult, *core.GeneratedReport, error) {
	f.calls = append(f.calls, accountID)
	return f.result, f.rec, f.err
}

func message() *amqp.BatchReportMessage {
	return amqp.NewBatchReportMessage("job-1", "acct-1", []string{"p1", "p2"}, 2024)
}

func TestHandleBatchMessage(t *testing.T) {
	ok := &core.BatchResult{Year: 2024, Results: []core.PropertyResult{
		{PropertyID: "p1", Success: true},
		{PropertyID: "p2"},
	}}
	allFailed := &core.BatchResult{Year: 2024, Results: []core.PropertyResult{{PropertyID: "p1"}}}
	infra := errors.New("database is locked")

	tests := []struct {
		name          string
		runner        *fakeRunner
		wantErr       bool
		wantPermanent bool
	}{
		{
			name:   "saved bundle is acked",
			runner: &fakeRunner{result: ok, rec: &core.GeneratedReport{ID: "r1", StorageKey: "reports/x/a.zip"}},
		},
		{
			name:   "no successes is acked",
			runner: &fakeRunner{result: allFailed},
		},
		{
			name:          "validation error is dropped",
			runner:        &fakeRunner{err: core.Validation("selected properties were not found or do not belong to your account")},
			wantErr:       true,
			wantPermanent: true,
		},
		{
			name:          "not found is dropped",
			runner:        &fakeRunner{err: core.NotFoundf("property p1")},
			wantErr:       true,
			wantPermanent: true,
		},
		{
			name:    "infrastructure error is requeued",
			runner:  &fakeRunner{err: infra},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewReportWorker(tt.runner, nil)

			err := w.HandleBatchMessage(context.Background(), message())

			require.Len(t, tt.runner.calls, 1)
			assert.Equal(t, "acct-1", tt.runner.calls[0])
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantPermanent, amqp.IsPermanent(err))
			assert.Contains(t, err.Error(), "job-1")
		})
	}
}

func TestHandleBatchMessageKeepsCause(t *testing.T) {
	infra := errors.New("bucket unavailable")
	w := NewReportWorker(&fakeRunner{err: infra}, nil)

	err := w.HandleBatchMessage(context.Background(), message())

	assert.ErrorIs(t, err, infra)
}
