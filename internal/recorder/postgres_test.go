package recorder

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KpiSentinel/internal/model"
)

// newTestPostgres connects to PG_TEST_DSN and removes the rows the test writes.
func newTestPostgres(t *testing.T, codes ...string) *PostgresRecorder {
	t.Helper()
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	ctx := context.Background()
	r, err := NewPostgresRecorderFromDSN(ctx, dsn, 2)
	require.NoError(t, err)

	cleanup := func() {
		_, err := r.pool.Exec(ctx, `DELETE FROM kpi_results WHERE stock_code = ANY($1)`, codes)
		require.NoError(t, err)
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		r.Close()
	})
	return r
}

// groupAt returns the stored group for at, ignoring rows other tests left behind.
func groupAt(t *testing.T, groups []model.ResultGroup, at time.Time) model.ResultGroup {
	t.Helper()
	for _, g := range groups {
		if g.AnalysisTime.Equal(at) {
			return g
		}
	}
	t.Fatalf("no group stored for %s", at.Format(model.AnalysisTimeLayout))
	return model.ResultGroup{}
}

func TestPostgresRecordUpsert(t *testing.T) {
	r := newTestPostgres(t, "PGTEST.A")
	ctx := context.Background()
	at := time.Date(1999, 3, 1, 16, 30, 0, 0, time.Local)

	require.NoError(t, r.Record(ctx, []model.KpiSnapshot{testSnapshot("PGTEST.A", at, 1, 2)}))
	require.NoError(t, r.Record(ctx, []model.KpiSnapshot{testSnapshot("PGTEST.A", at, 7, 8)}))

	groups, err := r.ReadResults(ctx)
	require.NoError(t, err)
	g := groupAt(t, groups, at)
	require.Len(t, g.Snapshots, 1)
	assert.Equal(t, 7.0, g.Snapshots[0].ShortTermKpi)
	assert.Equal(t, 8.0, g.Snapshots[0].LongTermKpi)
}

func TestPostgresRecordAndRead(t *testing.T) {
	r := newTestPostgres(t, "PGTEST.A", "PGTEST.B")
	ctx := context.Background()
	older := time.Date(1999, 3, 1, 16, 30, 0, 0, time.Local)
	newer := older.Add(24 * time.Hour)

	require.NoError(t, r.Record(ctx, []model.KpiSnapshot{
		testSnapshot("PGTEST.B", older, 1, 2),
		testSnapshot("PGTEST.A", older, 3, 4),
	}))
	require.NoError(t, r.Record(ctx, []model.KpiSnapshot{testSnapshot("PGTEST.A", newer, 5, 6)}))

	groups, err := r.ReadResults(ctx)
	require.NoError(t, err)

	g := groupAt(t, groups, older)
	require.Len(t, g.Snapshots, 2)
	assert.Equal(t, "PGTEST.A", g.Snapshots[0].Symbol)
	assert.Equal(t, "PGTEST.B", g.Snapshots[1].Symbol)

	want := testSnapshot("PGTEST.B", older, 1, 2)
	got := g.Snapshots[1]
	assert.Equal(t, want.PercentageChanges, got.PercentageChanges)
	assert.Equal(t, want.BenchmarkComparison, got.BenchmarkComparison)
	assert.Equal(t, want.CurrentPrice, got.CurrentPrice)

	newest := groupAt(t, groups, newer)
	assert.Equal(t, 5.0, newest.Snapshots[0].ShortTermKpi)

	require.NoError(t, r.Record(ctx, nil))
}
