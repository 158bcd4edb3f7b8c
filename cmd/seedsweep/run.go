package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/torrkit/seedsweep/internal/auditor"
	"github.com/torrkit/seedsweep/internal/config"
	"github.com/torrkit/seedsweep/internal/core"
	"github.com/torrkit/seedsweep/internal/daemon"
	"github.com/torrkit/seedsweep/internal/executor"
	"github.com/torrkit/seedsweep/internal/logger"
	"github.com/torrkit/seedsweep/internal/metrics"
	"github.com/torrkit/seedsweep/internal/notifier"
	"github.com/torrkit/seedsweep/internal/planner"
	"github.com/torrkit/seedsweep/internal/policy"
	"github.com/torrkit/seedsweep/internal/qbit"
)

func runSweepCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(rootFlags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	mergeFlags(cmd, cfg)

	if err := config.Validate(cfg); err != nil {
		return err
	}

	log, err := initLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Info("seedsweep starting",
		logger.F("mode", cfg.Execution.Mode),
		logger.F("endpoint", cfg.Connection.Endpoint),
	)

	m, stopMetrics := initMetrics(cfg, log)
	defer stopMetrics()

	if cfg.Daemon.Enabled {
		return runDaemon(cfg, log, m)
	}

	return run(cmd.Context(), cfg, log, m)
}

// initMetrics builds the metrics collector and, when enabled, starts the
// Prometheus endpoint. Registration happens once per process so daemon
// sweeps share one collector.
func initMetrics(cfg *config.Config, log logger.Logger) (core.Metrics, func()) {
	if !cfg.Metrics.Enabled {
		return metrics.NewNoop(), func() {}
	}

	m := metrics.NewPrometheus(nil)
	srv := metrics.NewServer(cfg.Metrics.Addr)

	go func() {
		log.Info("metrics server starting", logger.F("addr", srv.Addr()))
		if err := srv.Start(); err != nil {
			log.Error("metrics server error", logger.F("error", err.Error()))
		}
	}()

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown error", logger.F("error", err.Error()))
		}
	}

	return m, stop
}

// runDaemon starts seedsweep in daemon mode.
func runDaemon(cfg *config.Config, log logger.Logger, m core.Metrics) error {
	if cfg.Daemon.Schedule == "" {
		return fmt.Errorf("daemon mode requires --schedule or daemon.schedule in config")
	}

	log.Info("starting daemon mode",
		logger.F("schedule", cfg.Daemon.Schedule),
		logger.F("http_addr", cfg.Daemon.HTTPAddr),
	)

	notify := buildNotifier(cfg)
	_ = notify.Notify(context.Background(), notifier.Payload{
		Event:     notifier.EventDaemonStarted,
		Timestamp: time.Now(),
	})

	runFunc := func(ctx context.Context) error {
		return run(ctx, cfg, log, m)
	}

	d := daemon.New(log, runFunc, daemon.Config{
		Schedule: cfg.Daemon.Schedule,
		HTTPAddr: cfg.Daemon.HTTPAddr,
	})

	err := d.Run(context.Background())

	_ = notify.Notify(context.Background(), notifier.Payload{
		Event:     notifier.EventDaemonStopped,
		Timestamp: time.Now(),
	})

	return err
}

// initLogger builds a logger from config.
func initLogger(cfg config.LoggingConfig) (logger.Logger, error) {
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var out *os.File
	switch cfg.Output {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log output: %w", err)
		}
		out = f
	}

	return logger.New(level, out), nil
}

// buildAuditor assembles the configured audit sinks. Returns a nil
// core.Auditor when auditing is disabled.
func buildAuditor(cfg *config.Config, log logger.Logger) (core.Auditor, func(), error) {
	if log == nil {
		log = logger.NewNop()
	}

	var (
		sinks   []core.Auditor
		closers []func()
	)

	if cfg.Execution.AuditPath != "" {
		a, err := auditor.NewJSONL(cfg.Execution.AuditPath)
		if err != nil {
			return nil, nil, fmt.Errorf("audit init failed: %w", err)
		}
		sinks = append(sinks, a)
		closers = append(closers, func() {
			if err := a.Err(); err != nil {
				log.Warn("audit write error", logger.F("error", err.Error()))
			}
			_ = a.Close()
		})
	}

	if cfg.Execution.AuditDBPath != "" {
		a, err := auditor.NewSQLite(cfg.Execution.AuditDBPath)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, fmt.Errorf("audit db init failed: %w", err)
		}
		sinks = append(sinks, a)
		closers = append(closers, func() { _ = a.Close() })
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	switch len(sinks) {
	case 0:
		return nil, closeAll, nil
	case 1:
		return sinks[0], closeAll, nil
	default:
		return auditor.NewMulti(sinks...), closeAll, nil
	}
}

func buildNotifier(cfg *config.Config) notifier.Notifier {
	if cfg.Notify.WebhookURL == "" {
		return notifier.Noop{}
	}
	return notifier.NewWebhook(notifier.Config{
		URL:     cfg.Notify.WebhookURL,
		Timeout: cfg.Notify.Timeout,
	})
}

// run performs one full sweep: snapshot, plan, execute, report.
func run(ctx context.Context, cfg *config.Config, log logger.Logger, m core.Metrics) error {
	runID := uuid.NewString()
	runMode := core.Mode(cfg.Execution.Mode)

	aud, closeAudit, err := buildAuditor(cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	notify := buildNotifier(cfg)

	client, err := qbit.New(qbit.Config{
		Endpoint: cfg.Connection.Endpoint,
		Username: cfg.Connection.Username,
		Password: cfg.Connection.Password,
		Timeout:  cfg.Connection.Timeout,
	}, log)
	if err != nil {
		return err
	}

	if err := client.Login(ctx); err != nil {
		return notifyFailure(ctx, notify, runID, runMode, err)
	}

	snapshot, err := client.List(ctx)
	if err != nil {
		return notifyFailure(ctx, notify, runID, runMode, fmt.Errorf("snapshot failed: %w", err))
	}

	log.Info("snapshot taken", logger.F("torrents", len(snapshot)))

	// Single reference clock for the whole run: every torrent is judged
	// against the same instant.
	env := core.EnvSnapshot{Now: time.Now()}

	pol := policy.NewRatioPolicy(cfg.Policy.MinAgeDays, cfg.Policy.MinRatio)
	pl := planner.NewSimpleWithMetrics(log, m)

	plan, err := pl.BuildPlan(ctx, snapshot, pol, env)
	if err != nil {
		return notifyFailure(ctx, notify, runID, runMode, fmt.Errorf("build plan failed: %w", err))
	}

	sweeper := executor.NewSweeperWithMetrics(client, log, m)
	if aud != nil {
		sweeper = sweeper.WithAuditor(aud)
	}

	summary, sweepErr := sweeper.Sweep(ctx, runID, plan, runMode)

	printReport(cfg, plan, summary)

	if sweepErr != nil {
		_ = notify.Notify(ctx, notifier.Payload{
			Event:     notifier.EventSweepFailed,
			Timestamp: time.Now(),
			Summary:   &summary,
			Message:   sweepErr.Error(),
		})
		return sweepErr
	}

	_ = notify.Notify(ctx, notifier.Payload{
		Event:     notifier.EventSweepCompleted,
		Timestamp: time.Now(),
		Summary:   &summary,
	})

	return nil
}

// notifyFailure reports a run that died before producing a summary.
func notifyFailure(ctx context.Context, notify notifier.Notifier, runID string, mode core.Mode, err error) error {
	_ = notify.Notify(ctx, notifier.Payload{
		Event:     notifier.EventSweepFailed,
		Timestamp: time.Now(),
		Summary:   &core.RunSummary{RunID: runID, Mode: mode},
		Message:   err.Error(),
	})
	return err
}

// printReport writes the human-readable run report to stdout.
func printReport(cfg *config.Config, plan []core.PlanItem, summary core.RunSummary) {
	if summary.Mode == core.ModeExecute {
		fmt.Printf("Seedsweep (EXECUTE)\n")
	} else {
		fmt.Printf("Seedsweep (DRY RUN)\n")
	}

	fmt.Printf("run: %s\n", summary.RunID)
	fmt.Printf("endpoint: %s\n", cfg.Connection.Endpoint)
	fmt.Printf("thresholds: age >= %d days, projected ratio >= %.2f\n",
		cfg.Policy.MinAgeDays, cfg.Policy.MinRatio)
	fmt.Printf("torrents: %d\n", summary.SnapshotSize)
	fmt.Printf("too young: %d\n", summary.TooYoung)
	fmt.Printf("kept: %d\n", summary.Kept)
	fmt.Printf("marked for removal: %d\n", summary.MarkedRemove)
	if summary.Mode == core.ModeExecute {
		fmt.Printf("removed: %d\n", summary.Removed)
		fmt.Printf("reclaimed: %s\n", humanize.IBytes(uint64(summary.BytesReclaimed)))
	}
	fmt.Println()

	limit := cfg.Execution.MaxReport
	if limit > len(plan) {
		limit = len(plan)
	}

	fmt.Printf("First %d plan items:\n", limit)

	for i := 0; i < limit; i++ {
		it := plan[i]
		fmt.Printf("- %s | age=%dd | %s | verdict=%s (%s)\n",
			it.Torrent.Name,
			it.Decision.AgeDays,
			ratioColumn(it),
			it.Decision.Action,
			it.Decision.Reason,
		)
	}
}

// ratioColumn formats the ratio part of a plan line.
func ratioColumn(it core.PlanItem) string {
	if it.Torrent.Ratio == nil {
		return "ratio=n/a"
	}
	if !it.Decision.HasProjection {
		return fmt.Sprintf("ratio=%.2f", *it.Torrent.Ratio)
	}
	return fmt.Sprintf("ratio=%.2f projected=%.2f", *it.Torrent.Ratio, it.Decision.ProjectedRatio)
}
