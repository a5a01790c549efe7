package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"KpiSentinel/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func changeCell(pct model.PercentageChange, w model.Window) string {
	if v, ok := pct.Get(w); ok {
		return fmt.Sprintf("%+.2f", v)
	}
	return "-"
}

func snapshotTable(snaps []model.KpiSnapshot) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("股票代码", "现价", "10日%", "50日%", "100日%", "短线KPI", "长线KPI", "综合KPI")
	for _, s := range snaps {
		t.Row(
			s.Symbol,
			fmt.Sprintf("%.2f", s.CurrentPrice),
			changeCell(s.PercentageChanges, model.Window10),
			changeCell(s.PercentageChanges, model.Window50),
			changeCell(s.PercentageChanges, model.Window100),
			fmt.Sprintf("%+.2f", s.ShortTermKpi),
			fmt.Sprintf("%+.2f", s.LongTermKpi),
			fmt.Sprintf("%+.2f", s.ComprehensiveKpi),
		)
	}
	return t
}

func printBatch(w io.Writer, r *model.BatchReport) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("分析时间 %s  批次 %s", r.AnalysisTime.Format(model.AnalysisTimeLayout), r.RunID)))
	fmt.Fprintf(w, "基准 %s: 10日 %s | 50日 %s | 100日 %s\n", r.Benchmark,
		changeCell(r.BenchmarkChange, model.Window10),
		changeCell(r.BenchmarkChange, model.Window50),
		changeCell(r.BenchmarkChange, model.Window100))
	if len(r.Snapshots) > 0 {
		fmt.Fprintln(w, snapshotTable(r.Snapshots))
	}
	for _, s := range r.Skipped {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("跳过 %s (%s): %v", s.Symbol, s.Reason, s.Err)))
	}
	if r.PersistErr != nil {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("保存失败: %v", r.PersistErr)))
	}
}

func printGroups(w io.Writer, groups []model.ResultGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "暂无KPI记录")
		return
	}
	for _, g := range groups {
		fmt.Fprintln(w, titleStyle.Render("分析时间 "+g.AnalysisTime.Format(model.AnalysisTimeLayout)))
		fmt.Fprintln(w, snapshotTable(g.Snapshots))
	}
}
