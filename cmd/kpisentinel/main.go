package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"KpiSentinel/internal/api"
	"KpiSentinel/internal/collector"
	"KpiSentinel/internal/config"
	"KpiSentinel/internal/model"
	"KpiSentinel/internal/notifier"
	"KpiSentinel/internal/report"
	"KpiSentinel/internal/scheduler"
)

const defaultConfigPath = "configs/config.yaml"

var (
	version = "0.1.0"
	cfgPath string
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	rootCmd := &cobra.Command{
		Use:   "kpisentinel",
		Short: "Relative-strength KPI monitor for Hong Kong equities",
		Long: `kpisentinel measures each configured stock against a benchmark index
over 10, 50 and 100 trading days, stores the KPIs and reports them.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (defaults to CONFIG_PATH or "+defaultConfigPath+")")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(onceCmd())
	rootCmd.AddCommand(resultsCmd())
	rootCmd.AddCommand(trendCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := cfgPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// buildScheduler wires fetcher, collector and notifier. workers overrides the config when > 0.
func buildScheduler(ctx context.Context, cfg *config.Config, s *sinks, workers int) (*scheduler.Scheduler, *notifier.TelegramNotifier, error) {
	fetcher, err := collector.NewFetcher(cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	if workers <= 0 {
		workers = cfg.Workers
	}
	col := collector.NewCollector(fetcher, s.recorder, cfg.Symbols(), cfg.Stocks.Benchmark, workers)

	var (
		tn     *notifier.TelegramNotifier
		sender scheduler.Sender
	)
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	} else {
		log.Println("[WARN] telegram not configured, notifications disabled")
	}

	sched, err := scheduler.NewScheduler(ctx, cfg, col, sender, s.reader)
	if err != nil {
		return nil, nil, err
	}
	return sched, tn, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run batches on the configured interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Println("[INFO] KpiSentinel starting...")
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Context for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			s := openSinks(ctx, cfg)
			defer s.Close()

			sched, tn, err := buildScheduler(ctx, cfg, s, 0)
			if err != nil {
				return err
			}
			if err := sched.Register(); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Println("[INFO] Telegram polling started")
			}

			var srv *http.Server
			if cfg.APIEnabled() {
				srv = &http.Server{
					Addr:              cfg.API.Addr,
					Handler:           api.NewRouter(api.NewHandler(s.reader)),
					ReadHeaderTimeout: 10 * time.Second,
				}
				go func() {
					log.Printf("[INFO] HTTP API listening on %s", cfg.API.Addr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Printf("[ERROR] HTTP API: %v", err)
					}
				}()
			}

			if cfg.Schedule.RunOnStart {
				log.Println("[INFO] run_on_start enabled, executing batch now")
				sched.RunInBackground(ctx)
			}

			log.Printf("[INFO] KpiSentinel is running: %d symbols every %ds. Press Ctrl+C to stop.",
				len(cfg.Symbols()), cfg.Schedule.IntervalSeconds)

			// Wait for shutdown signal
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			log.Println("[INFO] shutdown signal received, stopping...")
			cancel()
			if srv != nil {
				shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Printf("[WARN] HTTP API shutdown: %v", err)
				}
			}
			log.Println("[INFO] KpiSentinel stopped")
			return nil
		},
	}
}

func onceCmd() *cobra.Command {
	var serial bool
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run one batch now and print the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s := openSinks(ctx, cfg)
			defer s.Close()

			workers := 0
			if serial {
				workers = 1
			}
			sched, _, err := buildScheduler(ctx, cfg, s, workers)
			if err != nil {
				return err
			}
			rep, err := sched.RunNow(ctx)
			if err != nil {
				return err
			}
			printBatch(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().BoolVar(&serial, "serial", false, "analyse symbols one at a time")
	return cmd
}

func resultsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Print stored results, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			s := openSinks(ctx, cfg)
			defer s.Close()

			groups, err := s.reader.ReadResults(ctx)
			if err != nil {
				return fmt.Errorf("read results: %w", err)
			}
			if limit > 0 && len(groups) > limit {
				groups = groups[:limit]
			}
			printGroups(cmd.OutOrStdout(), groups)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "number of batches to print (0 for all)")
	return cmd
}

func trendCmd() *cobra.Command {
	var kpi, out string
	var codes []string
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Render the KPI trend chart from stored results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if kpi == "" {
				kpi = cfg.Report.KPI
			}
			kind, err := report.ParseKind(kpi)
			if err != nil {
				return err
			}
			if out == "" {
				out = cfg.Report.Output
			}
			if out == config.Disabled {
				out = config.DefaultReportOutput
			}

			ctx := context.Background()
			s := openSinks(ctx, cfg)
			defer s.Close()

			groups, err := s.reader.ReadResults(ctx)
			if err != nil {
				return fmt.Errorf("read results: %w", err)
			}
			if err := report.WriteTrendFile(out, groups, kind, codes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "图表已保存为 %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&kpi, "kpi", "", "short, long or comprehensive (defaults to report.kpi)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output HTML file (defaults to report.output)")
	cmd.Flags().StringSliceVar(&codes, "codes", nil, "stock codes to plot (default all)")
	return cmd
}

func exportCmd() *cobra.Command {
	var out string
	var all bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored results as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			s := openSinks(ctx, cfg)
			defer s.Close()

			groups, err := s.reader.ReadResults(ctx)
			if err != nil {
				return fmt.Errorf("read results: %w", err)
			}
			if !all && len(groups) > 1 {
				groups = groups[:1]
			}
			var snaps []model.KpiSnapshot
			for _, g := range groups {
				snaps = append(snaps, g.Snapshots...)
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := report.WriteCSV(w, snaps); err != nil {
				return err
			}
			if out != "" {
				log.Printf("[INFO] %d rows exported to %s", len(snaps), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&all, "all", false, "export every stored batch instead of the latest")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kpisentinel version %s\n", version)
		},
	}
}
