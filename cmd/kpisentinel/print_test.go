package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"KpiSentinel/internal/model"
)

func TestPrintBatch(t *testing.T) {
	var pct model.PercentageChange
	pct.Set(model.Window10, 1.25)
	r := &model.BatchReport{
		RunID:           "run-1",
		AnalysisTime:    time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC),
		Benchmark:       "^HSI",
		BenchmarkChange: pct,
		Snapshots: []model.KpiSnapshot{{
			Symbol: "0700.HK", CurrentPrice: 388.4, PercentageChanges: pct, ComprehensiveKpi: -0.38,
		}},
		Skipped: []model.SymbolResult{{Symbol: "9999.HK", Reason: model.SkipUnavailable, Err: errors.New("delisted")}},
	}

	var buf bytes.Buffer
	printBatch(&buf, r)
	out := buf.String()

	assert.Contains(t, out, "2024-03-01 16:30:00")
	assert.Contains(t, out, "基准 ^HSI: 10日 +1.25 | 50日 - | 100日 -")
	assert.Contains(t, out, "0700.HK")
	assert.Contains(t, out, "388.40")
	assert.Contains(t, out, "-0.38")
	assert.Contains(t, out, "跳过 9999.HK (unavailable): delisted")
}

func TestPrintGroupsEmpty(t *testing.T) {
	var buf bytes.Buffer
	printGroups(&buf, nil)
	assert.Equal(t, "暂无KPI记录\n", buf.String())
}
