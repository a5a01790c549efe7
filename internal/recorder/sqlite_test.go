package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KpiSentinel/internal/model"
)

func testSnapshot(symbol string, at time.Time, short, long float64) model.KpiSnapshot {
	var pct, bench model.PercentageChange
	pct.Set(model.Window10, 1.5)
	pct.Set(model.Window50, -2.25)
	pct.Set(model.Window100, 12)
	bench.Set(model.Window10, 0.4)
	bench.Set(model.Window50, 1)
	bench.Set(model.Window100, -3.1)
	return model.KpiSnapshot{
		Symbol:              symbol,
		AnalysisTime:        at,
		CurrentPrice:        388.4,
		PercentageChanges:   pct,
		BenchmarkComparison: bench,
		ShortTermKpi:        short,
		LongTermKpi:         long,
		ComprehensiveKpi:    (short + long) / 2,
	}
}

func newTestSQLite(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "nested", "kpi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecordAndRead(t *testing.T) {
	r := newTestSQLite(t)
	ctx := context.Background()

	older := time.Date(2024, 3, 1, 16, 30, 0, 0, time.Local)
	newer := older.Add(24 * time.Hour)

	require.NoError(t, r.Record(ctx, []model.KpiSnapshot{
		testSnapshot("0700.HK", older, 1, 2),
		testSnapshot("0005.HK", older, 3, 4),
	}))
	require.NoError(t, r.Record(ctx, []model.KpiSnapshot{
		testSnapshot("0700.HK", newer, 5, 6),
	}))

	groups, err := r.ReadResults(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.True(t, groups[0].AnalysisTime.Equal(newer))
	require.Len(t, groups[0].Snapshots, 1)
	assert.Equal(t, 5.0, groups[0].Snapshots[0].ShortTermKpi)

	assert.True(t, groups[1].AnalysisTime.Equal(older))
	require.Len(t, groups[1].Snapshots, 2)
	assert.Equal(t, "0005.HK", groups[1].Snapshots[0].Symbol)
	assert.Equal(t, "0700.HK", groups[1].Snapshots[1].Symbol)

	got := groups[1].Snapshots[1]
	want := testSnapshot("0700.HK", older, 1, 2)
	assert.Equal(t, want.PercentageChanges, got.PercentageChanges)
	assert.Equal(t, want.BenchmarkComparison, got.BenchmarkComparison)
	assert.Equal(t, want.CurrentPrice, got.CurrentPrice)
}

func TestSQLiteRecordUpsert(t *testing.T) {
	r := newTestSQLite(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 16, 30, 0, 0, time.Local)

	require.NoError(t, r.Record(ctx, []model.KpiSnapshot{testSnapshot("0700.HK", at, 1, 2)}))
	require.NoError(t, r.Record(ctx, []model.KpiSnapshot{testSnapshot("0700.HK", at, 7, 8)}))

	groups, err := r.ReadResults(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Snapshots, 1)
	assert.Equal(t, 7.0, groups[0].Snapshots[0].ShortTermKpi)
	assert.Equal(t, 8.0, groups[0].Snapshots[0].LongTermKpi)
}

func TestSQLiteRecordEmpty(t *testing.T) {
	r := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, nil))

	groups, err := r.ReadResults(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestSQLiteReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpi.db")
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 16, 30, 0, 0, time.Local)

	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r.Record(ctx, []model.KpiSnapshot{testSnapshot("0700.HK", at, 1, 2)}))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer r.Close()

	groups, err := r.ReadResults(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "0700.HK", groups[0].Snapshots[0].Symbol)
}
