package recorder

import (
	"context"

	"KpiSentinel/internal/model"
)

// NoopRecorder is used when a sink is not configured or could not be opened.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Record(_ context.Context, _ []model.KpiSnapshot) error { return nil }
func (n *NoopRecorder) ReadResults(_ context.Context) ([]model.ResultGroup, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
