// Package api serves stored KPI results over HTTP.
package api

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"KpiSentinel/internal/model"
	"KpiSentinel/internal/recorder"
	"KpiSentinel/internal/report"
)

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

type snapshotResponse struct {
	StockCode         string                 `json:"stock_code"`
	CurrentPrice      float64                `json:"current_price"`
	PercentageChanges model.PercentageChange `json:"percentage_changes"`
	HSIComparison     model.PercentageChange `json:"hsi_comparison"`
	KpiShort          float64                `json:"kpi_short"`
	KpiLong           float64                `json:"kpi_long"`
	KpiComprehensive  float64                `json:"kpi_comprehensive"`
}

type groupResponse struct {
	AnalysisTime string             `json:"analysis_time"`
	Results      []snapshotResponse `json:"results"`
}

func toGroupResponse(g model.ResultGroup) groupResponse {
	out := groupResponse{
		AnalysisTime: g.AnalysisTime.Format(model.AnalysisTimeLayout),
		Results:      make([]snapshotResponse, 0, len(g.Snapshots)),
	}
	for _, s := range g.Snapshots {
		out.Results = append(out.Results, snapshotResponse{
			StockCode:         s.Symbol,
			CurrentPrice:      s.CurrentPrice,
			PercentageChanges: s.PercentageChanges,
			HSIComparison:     s.BenchmarkComparison,
			KpiShort:          s.ShortTermKpi,
			KpiLong:           s.LongTermKpi,
			KpiComprehensive:  s.ComprehensiveKpi,
		})
	}
	return out
}

// Handler serves results read from the relational sink.
type Handler struct {
	reader recorder.Reader
}

func NewHandler(reader recorder.Reader) *Handler {
	return &Handler{reader: reader}
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListResults returns stored groups, newest first.
//
// GET /api/results?limit=5
func (h *Handler) ListResults(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
		return
	}

	groups, err := h.reader.ReadResults(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}

	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	c.JSON(http.StatusOK, out)
}

// LatestResults returns the newest group or 404 when nothing is stored.
func (h *Handler) LatestResults(c *gin.Context) {
	groups, err := h.reader.ReadResults(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if len(groups) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no results stored"})
		return
	}
	c.JSON(http.StatusOK, toGroupResponse(groups[0]))
}

// Trend renders the KPI trend chart.
//
// GET /trend?kpi=short&codes=0700.HK,0005.HK
func (h *Handler) Trend(c *gin.Context) {
	kind, err := report.ParseKind(c.Query("kpi"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	var codes []string
	for _, code := range strings.Split(c.Query("codes"), ",") {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}

	groups, err := h.reader.ReadResults(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := report.RenderTrend(&buf, groups, kind, codes); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
