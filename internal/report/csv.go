package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"KpiSentinel/internal/model"
)

var csvHeader = []string{
	"股票代码", "当前价格", "分析时间",
	"10天变化百分比", "50天变化百分比", "100天变化百分比",
	"10天HSI变化", "50天HSI变化", "100天HSI变化",
	"短线KPI", "长线KPI", "综合KPI",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// windowCells renders each window; an absent window is written as 0.
func windowCells(pct model.PercentageChange) []string {
	cells := make([]string, 0, len(model.Windows))
	for _, w := range model.Windows {
		v, _ := pct.Get(w)
		cells = append(cells, formatFloat(v))
	}
	return cells
}

// WriteCSV exports snapshots with a UTF-8 BOM so spreadsheet tools detect the encoding.
func WriteCSV(w io.Writer, snaps []model.KpiSnapshot) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range snaps {
		rec := []string{s.Symbol, formatFloat(s.CurrentPrice), s.AnalysisTimeString()}
		rec = append(rec, windowCells(s.PercentageChanges)...)
		rec = append(rec, windowCells(s.BenchmarkComparison)...)
		rec = append(rec,
			formatFloat(s.ShortTermKpi),
			formatFloat(s.LongTermKpi),
			formatFloat(s.ComprehensiveKpi),
		)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write %s: %w", s.Symbol, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
