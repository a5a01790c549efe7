package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"

	"KpiSentinel/internal/model"
)

// Kind selects which KPI a chart plots.
type Kind string

const (
	KindShort         Kind = "short"
	KindLong          Kind = "long"
	KindComprehensive Kind = "comprehensive"
)

// ParseKind accepts short, long or comprehensive.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindShort, KindLong, KindComprehensive:
		return k, nil
	case "":
		return KindComprehensive, nil
	}
	return "", fmt.Errorf("unknown kpi kind %q", s)
}

// Label is the display name of the KPI.
func (k Kind) Label() string {
	switch k {
	case KindShort:
		return "短线KPI"
	case KindLong:
		return "长线KPI"
	default:
		return "综合KPI"
	}
}

// Value picks the KPI of this kind from a snapshot.
func (k Kind) Value(s model.KpiSnapshot) float64 {
	switch k {
	case KindShort:
		return s.ShortTermKpi
	case KindLong:
		return s.LongTermKpi
	default:
		return s.ComprehensiveKpi
	}
}

//go:embed trend.html
var trendHTML string

var trendTmpl = template.Must(template.New("trend").Parse(trendHTML))

// Trace is one plotly line. A nil Y marks a batch the symbol was missing from.
type Trace struct {
	Name          string     `json:"name"`
	X             []string   `json:"x"`
	Y             []*float64 `json:"y"`
	Type          string     `json:"type"`
	Mode          string     `json:"mode"`
	HoverTemplate string     `json:"hovertemplate"`
}

// BuildTraces lays out one trace per symbol over every analysis time, oldest first.
// With no codes, every stored symbol is plotted in sorted order.
func BuildTraces(groups []model.ResultGroup, kind Kind, codes []string) []Trace {
	ordered := append([]model.ResultGroup(nil), groups...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].AnalysisTime.Before(ordered[j].AnalysisTime)
	})

	xs := make([]string, len(ordered))
	byTime := make([]map[string]model.KpiSnapshot, len(ordered))
	all := map[string]struct{}{}
	for i, g := range ordered {
		xs[i] = g.AnalysisTime.Format(model.AnalysisTimeLayout)
		byTime[i] = make(map[string]model.KpiSnapshot, len(g.Snapshots))
		for _, s := range g.Snapshots {
			byTime[i][s.Symbol] = s
			all[s.Symbol] = struct{}{}
		}
	}

	if len(codes) == 0 {
		for code := range all {
			codes = append(codes, code)
		}
		sort.Strings(codes)
	}

	traces := make([]Trace, 0, len(codes))
	for _, code := range codes {
		ys := make([]*float64, len(ordered))
		for i := range ordered {
			if s, ok := byTime[i][code]; ok {
				v := kind.Value(s)
				ys[i] = &v
			}
		}
		traces = append(traces, Trace{
			Name:          code,
			X:             xs,
			Y:             ys,
			Type:          "scatter",
			Mode:          "lines+markers",
			HoverTemplate: fmt.Sprintf("<b>%s</b><br>%%{x}<br>%s: %%{y:.2f}<extra></extra>", code, kind.Label()),
		})
	}
	return traces
}

// RenderTrend writes a standalone HTML line chart of one KPI per symbol.
func RenderTrend(w io.Writer, groups []model.ResultGroup, kind Kind, codes []string) error {
	data := struct {
		Title  string
		Traces []Trace
	}{
		Title:  kind.Label() + " 趋势图",
		Traces: BuildTraces(groups, kind, codes),
	}
	if err := trendTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render trend: %w", err)
	}
	return nil
}

// WriteTrendFile renders the chart to path, creating its directory.
func WriteTrendFile(path string, groups []model.ResultGroup, kind Kind, codes []string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := RenderTrend(f, groups, kind, codes); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
