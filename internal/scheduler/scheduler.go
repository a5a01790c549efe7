package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"KpiSentinel/internal/config"
	"KpiSentinel/internal/model"
	"KpiSentinel/internal/notifier"
	"KpiSentinel/internal/recorder"
	"KpiSentinel/internal/report"
)

// ErrStopped is returned by RunNow once Stop has been called.
var ErrStopped = errors.New("scheduler stopped")

// Runner executes one analysis batch.
type Runner interface {
	Collect(ctx context.Context) (*model.BatchReport, error)
}

// Sender delivers a formatted message. *notifier.TelegramNotifier satisfies it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs batches on a fixed interval while the market is open.
type Scheduler struct {
	Cron      *cron.Cron
	Collector Runner
	Notifier  Sender         // nil disables notifications
	Reader    recorder.Reader // nil disables trend rendering and /kpi
	Hours     *MarketHours
	Debug     bool
	Interval  time.Duration
	TrendPath string
	TrendKind report.Kind
	Ctx       context.Context

	mu      sync.Mutex
	stopped bool
	bg      sync.WaitGroup
	now     func() time.Time
}

// NewScheduler creates a new Scheduler from the schedule and report settings of cfg.
func NewScheduler(ctx context.Context, cfg *config.Config, col Runner, tn Sender, reader recorder.Reader) (*Scheduler, error) {
	hours, err := ParseMarketHours(cfg.Schedule.Timezone, cfg.Schedule.Sessions)
	if err != nil {
		return nil, fmt.Errorf("market hours: %w", err)
	}
	kind, err := report.ParseKind(cfg.Report.KPI)
	if err != nil {
		return nil, err
	}
	trendPath := ""
	if cfg.ReportEnabled() {
		trendPath = cfg.Report.Output
	}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		Collector: col,
		Notifier:  tn,
		Reader:    reader,
		Hours:     hours,
		Debug:     cfg.Schedule.Debug,
		Interval:  time.Duration(cfg.Schedule.IntervalSeconds) * time.Second,
		TrendPath: trendPath,
		TrendKind: kind,
		Ctx:       ctx,
		now:       time.Now,
	}, nil
}

// Register adds the polling job.
func (s *Scheduler) Register() error {
	spec := fmt.Sprintf("@every %s", s.Interval)
	if _, err := s.Cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("register batch job %q: %w", spec, err)
	}
	log.Printf("[INFO] batch job registered: %s (debug=%v)", spec, s.Debug)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for every running batch, scheduled,
// background or command triggered, to finish. Later RunNow calls return ErrStopped.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.bg.Wait()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	log.Println("[INFO] scheduler stopped")
}

// RunInBackground starts RunNow on its own goroutine. Stop waits for it.
func (s *Scheduler) RunInBackground(ctx context.Context) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		_, _ = s.RunNow(ctx)
	}()
}

func (s *Scheduler) tick() {
	now := s.now()
	if !s.Debug && !s.Hours.Open(now) {
		log.Printf("[INFO] market closed at %s, skipping batch", now.In(s.Hours.loc).Format("2006-01-02 15:04"))
		return
	}
	_, _ = s.RunNow(s.Ctx)
}

// RunNow runs one batch immediately, then renders the trend chart and sends the
// report. Concurrent calls are serialised.
func (s *Scheduler) RunNow(ctx context.Context) (*model.BatchReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, ErrStopped
	}

	rep, err := s.Collector.Collect(ctx)
	if err != nil {
		log.Printf("[ERROR] batch: %v", err)
		s.trySend(ctx, notifier.FormatBatchFailure(err))
		return nil, err
	}

	s.renderTrend(ctx)
	s.trySend(ctx, notifier.FormatBatchReport(rep))
	return rep, nil
}

func (s *Scheduler) renderTrend(ctx context.Context) {
	if s.TrendPath == "" || s.Reader == nil {
		return
	}
	groups, err := s.Reader.ReadResults(ctx)
	if err != nil {
		log.Printf("[ERROR] read results for trend: %v", err)
		return
	}
	if err := report.WriteTrendFile(s.TrendPath, groups, s.TrendKind, nil); err != nil {
		log.Printf("[ERROR] write trend chart: %v", err)
		return
	}
	log.Printf("[INFO] trend chart written: %s", s.TrendPath)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	cmd, _, _ := strings.Cut(strings.TrimSpace(command), "@") // "/kpi@SomeBot"
	switch cmd {
	case "/kpi", "查看KPI":
		if s.Reader == nil {
			return "未配置结果存储"
		}
		groups, err := s.Reader.ReadResults(ctx)
		if err != nil {
			log.Printf("[ERROR] read results: %v", err)
			return "读取KPI记录失败"
		}
		return notifier.FormatLatest(groups)
	case "/run", "立即运行":
		if _, err := s.RunNow(ctx); errors.Is(err, ErrStopped) {
			return "服务正在停止"
		}
		return ""
	default:
		return notifier.HelpText
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
