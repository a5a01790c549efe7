package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"KpiSentinel/internal/config"
	"KpiSentinel/internal/model"
)

// Measurement is the InfluxDB measurement KPI points are written to.
const Measurement = "kpi_result"

// PointWriter is the subset of the InfluxDB blocking write API the recorder uses.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxRecorder writes one point per snapshot for trend dashboards. Each point
// is written on its own; a failed write is logged and the batch continues.
type InfluxRecorder struct {
	client influxdb2.Client
	writer PointWriter
}

// NewInfluxRecorder creates a client with second precision writes.
func NewInfluxRecorder(cfg config.InfluxConfig) *InfluxRecorder {
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().SetPrecision(time.Second))
	log.Printf("[INFO] influx recorder: %s org=%s bucket=%s", cfg.URL, cfg.Org, cfg.Bucket)
	return &InfluxRecorder{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

// NewInfluxRecorderWithWriter wraps an existing writer.
func NewInfluxRecorderWithWriter(w PointWriter) *InfluxRecorder {
	return &InfluxRecorder{writer: w}
}

// NewPoint converts a snapshot into a kpi_result point.
func NewPoint(s model.KpiSnapshot) (*write.Point, error) {
	pct, err := json.Marshal(s.PercentageChanges)
	if err != nil {
		return nil, fmt.Errorf("encode percentage changes: %w", err)
	}
	cmp, err := json.Marshal(s.BenchmarkComparison)
	if err != nil {
		return nil, fmt.Errorf("encode benchmark comparison: %w", err)
	}
	return influxdb2.NewPoint(Measurement,
		map[string]string{"stock_code": s.Symbol},
		map[string]interface{}{
			"current_price":      s.CurrentPrice,
			"kpi_short":          s.ShortTermKpi,
			"kpi_long":           s.LongTermKpi,
			"kpi_comprehensive":  s.ComprehensiveKpi,
			"percentage_changes": string(pct),
			"hsi_comparison":     string(cmp),
		},
		s.AnalysisTime.Truncate(time.Second),
	), nil
}

// Record never returns an error: write failures are per point and only logged.
func (r *InfluxRecorder) Record(ctx context.Context, snaps []model.KpiSnapshot) error {
	failed := 0
	for _, s := range snaps {
		p, err := NewPoint(s)
		if err == nil {
			err = r.writer.WritePoint(ctx, p)
		}
		if err != nil {
			failed++
			log.Printf("[ERROR] influx write %s: %v", s.Symbol, err)
		}
	}
	if failed > 0 {
		log.Printf("[WARN] influx: %d/%d points failed", failed, len(snaps))
	}
	return nil
}

func (r *InfluxRecorder) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}
