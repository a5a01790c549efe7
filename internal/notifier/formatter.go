package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"KpiSentinel/internal/model"
)

// TopN is how many symbols a report lists, ranked by comprehensive KPI.
const TopN = 10

// HelpText lists the commands understood by the bot.
const HelpText = "可用命令:\n• /kpi 查看最新KPI\n• /run 立即运行一次分析"

var skipLabels = map[model.SkipReason]string{
	model.SkipUnavailable:         "无数据",
	model.SkipInsufficientHistory: "历史数据不足",
	model.SkipComputationError:    "计算错误",
}

func rankByComprehensive(snaps []model.KpiSnapshot) []model.KpiSnapshot {
	ranked := append([]model.KpiSnapshot(nil), snaps...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ComprehensiveKpi != ranked[j].ComprehensiveKpi {
			return ranked[i].ComprehensiveKpi > ranked[j].ComprehensiveKpi
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})
	return ranked
}

func writeChanges(b *strings.Builder, pct model.PercentageChange) {
	parts := make([]string, 0, len(model.Windows))
	for _, w := range model.Windows {
		if v, ok := pct.Get(w); ok {
			parts = append(parts, fmt.Sprintf("%s日 %+.2f%%", w, v))
		} else {
			parts = append(parts, fmt.Sprintf("%s日 -", w))
		}
	}
	b.WriteString(strings.Join(parts, " | "))
}

func writeRanking(b *strings.Builder, snaps []model.KpiSnapshot) {
	ranked := rankByComprehensive(snaps)
	if len(ranked) > TopN {
		ranked = ranked[:TopN]
	}
	for i, s := range ranked {
		fmt.Fprintf(b, "%d. <code>%s</code> 综合 %+.2f (短线 %+.2f / 长线 %+.2f) 现价 %.2f\n",
			i+1, html.EscapeString(s.Symbol), s.ComprehensiveKpi, s.ShortTermKpi, s.LongTermKpi, s.CurrentPrice)
	}
}

// FormatBatchReport formats one finished batch into a Telegram message.
func FormatBatchReport(r *model.BatchReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 <b>KpiSentinel 报告</b> | %s\n\n", r.AnalysisTime.Format(model.AnalysisTimeLayout))

	fmt.Fprintf(&b, "基准 %s: ", html.EscapeString(r.Benchmark))
	writeChanges(&b, r.BenchmarkChange)
	b.WriteString("\n\n")

	if len(r.Snapshots) == 0 {
		b.WriteString("本批次没有可计算的股票\n")
	} else {
		fmt.Fprintf(&b, "🏆 <b>综合KPI排名</b> (%d只)\n", len(r.Snapshots))
		writeRanking(&b, r.Snapshots)
	}

	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "\n⚠️ <b>跳过 %d 只:</b>\n", len(r.Skipped))
		for _, s := range r.Skipped {
			label, ok := skipLabels[s.Reason]
			if !ok {
				label = string(s.Reason)
			}
			fmt.Fprintf(&b, "  %s: %s\n", html.EscapeString(s.Symbol), label)
		}
	}

	if r.PersistErr != nil {
		fmt.Fprintf(&b, "\n❌ 保存失败: %s\n", html.EscapeString(r.PersistErr.Error()))
	}

	fmt.Fprintf(&b, "\n批次 %s | 用时 %s", shortID(r.RunID), r.Duration.Round(100*time.Millisecond))
	return b.String()
}

// FormatLatest formats the newest stored result group.
func FormatLatest(groups []model.ResultGroup) string {
	if len(groups) == 0 || len(groups[0].Snapshots) == 0 {
		return "暂无KPI记录"
	}
	g := groups[0]
	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>最新KPI</b> | %s\n\n", g.AnalysisTime.Format(model.AnalysisTimeLayout))
	writeRanking(&b, g.Snapshots)
	if len(groups) > 1 {
		fmt.Fprintf(&b, "\n共 %d 个批次记录", len(groups))
	}
	return b.String()
}

// FormatBatchFailure formats a batch that was aborted before any symbol was analysed.
func FormatBatchFailure(err error) string {
	return fmt.Sprintf("❌ <b>KPI批次失败</b>\n\n%s", html.EscapeString(err.Error()))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
