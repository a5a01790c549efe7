package recorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KpiSentinel/internal/config"
	"KpiSentinel/internal/model"
)

type stubRecorder struct {
	calls  int
	got    []model.KpiSnapshot
	err    error
	closed bool
}

func (s *stubRecorder) Record(_ context.Context, snaps []model.KpiSnapshot) error {
	s.calls++
	s.got = append(s.got, snaps...)
	return s.err
}

func (s *stubRecorder) Close() error {
	s.closed = true
	return nil
}

func TestMultiRecorderIsolatesSinks(t *testing.T) {
	failing := &stubRecorder{err: errors.New("disk full")}
	healthy := &stubRecorder{}
	m := NewMultiRecorder(failing, healthy)

	at := time.Date(2024, 3, 1, 16, 30, 0, 0, time.Local)
	err := m.Record(context.Background(), []model.KpiSnapshot{testSnapshot("0700.HK", at, 1, 2)})

	require.Error(t, err)
	assert.ErrorIs(t, err, failing.err)
	assert.Len(t, healthy.got, 1)

	require.NoError(t, m.Close())
	assert.True(t, failing.closed)
	assert.True(t, healthy.closed)
}

func TestMultiRecorderSkipsEmptyBatch(t *testing.T) {
	s := &stubRecorder{}
	m := NewMultiRecorder(s, NewNoopRecorder())

	require.NoError(t, m.Record(context.Background(), nil))
	assert.Zero(t, s.calls)
}

func TestGroupRowsRejectsBadTime(t *testing.T) {
	_, err := groupRows([]row{{AnalysisTime: "yesterday", StockCode: "0700.HK",
		PercentageChanges: "{}", HSIComparison: "{}"}})
	assert.Error(t, err)
}

func TestBuildConnString(t *testing.T) {
	got := BuildConnString(config.PostgresConfig{
		Host:     "db",
		Port:     5433,
		Name:     "kpi",
		User:     "sentinel",
		Password: "p@ss/word",
	})
	assert.Equal(t, "postgres://sentinel:p%40ss%2Fword@db:5433/kpi?sslmode=prefer", got)
}
