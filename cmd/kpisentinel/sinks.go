package main

import (
	"context"
	"log"

	"KpiSentinel/internal/config"
	"KpiSentinel/internal/recorder"
)

// relationalStore is a sink that results can also be read back from.
type relationalStore interface {
	recorder.Recorder
	recorder.Reader
}

// sinks holds the write fan-out and the store results are read from.
type sinks struct {
	recorder recorder.Recorder
	reader   recorder.Reader
}

// openSinks never fails: a sink that cannot be opened is replaced by a noop.
func openSinks(ctx context.Context, cfg *config.Config) *sinks {
	var store relationalStore
	switch cfg.Database.Driver {
	case "postgres":
		pr, err := recorder.NewPostgresRecorder(ctx, cfg.Database.Postgres)
		if err != nil {
			log.Printf("[WARN] init postgres recorder failed, using noop: %v", err)
			store = recorder.NewNoopRecorder()
		} else {
			store = pr
		}
	default:
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			store = recorder.NewNoopRecorder()
		} else {
			store = sr
		}
	}

	recorders := []recorder.Recorder{store}
	if cfg.Influx.Enabled() {
		recorders = append(recorders, recorder.NewInfluxRecorder(cfg.Influx))
	}
	return &sinks{
		recorder: recorder.NewMultiRecorder(recorders...),
		reader:   store,
	}
}

func (s *sinks) Close() {
	if err := s.recorder.Close(); err != nil {
		log.Printf("[WARN] close recorders: %v", err)
	}
}
