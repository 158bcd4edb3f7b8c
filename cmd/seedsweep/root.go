package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/torrkit/seedsweep/internal/config"
)

var rootFlags struct {
	configPath  string
	endpoint    string
	username    string
	password    string
	minAgeDays  int
	minRatio    float64
	execute     bool
	dryRun      bool
	debug       bool
	auditPath   string
	auditDB     string
	maxReport   int
	metrics     bool
	metricsAddr string
	daemonMode  bool
	schedule    string
	daemonAddr  string
	webhookURL  string
}

var rootCmd = &cobra.Command{
	Use:   "seedsweep",
	Short: "Retention sweeper for qBittorrent",
	Long: `Seedsweep connects to a qBittorrent WebUI, evaluates every torrent
against an age floor and a projected one-year share ratio, and removes
torrents (with their data) that are past the floor but will never reach
the target ratio at their current rate.

Dry-run is the default: nothing is removed unless --execute is given.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSweepCmd,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)

		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.Flags()

	f.StringVarP(&rootFlags.configPath, "config", "c", "", "path to YAML configuration file")
	f.StringVar(&rootFlags.endpoint, "endpoint", "http://127.0.0.1:8080", "qBittorrent WebUI endpoint")
	f.StringVar(&rootFlags.username, "username", "admin", "WebUI username")
	f.StringVar(&rootFlags.password, "password", "adminadmin", "WebUI password")
	f.IntVar(&rootFlags.minAgeDays, "age", 100, "minimum age in days before a torrent is considered")
	f.Float64Var(&rootFlags.minRatio, "ratio", 10.0, "minimum projected one-year ratio to keep a torrent")
	f.BoolVar(&rootFlags.execute, "execute", false, "actually remove torrents (default is dry-run)")
	f.BoolVar(&rootFlags.dryRun, "dry-run", false, "force dry-run even if config says execute")
	f.BoolVar(&rootFlags.debug, "debug", false, "enable debug logging")
	f.StringVar(&rootFlags.auditPath, "audit", "", "audit log path (jsonl)")
	f.StringVar(&rootFlags.auditDB, "audit-db", "", "audit database path (sqlite)")
	f.IntVar(&rootFlags.maxReport, "max", 0, "max plan items to print (0 = use config default)")
	f.BoolVar(&rootFlags.metrics, "metrics", false, "enable Prometheus metrics endpoint")
	f.StringVar(&rootFlags.metricsAddr, "metrics-addr", "", "metrics server address (default :9090)")
	f.BoolVar(&rootFlags.daemonMode, "daemon", false, "run as long-running daemon")
	f.StringVar(&rootFlags.schedule, "schedule", "", "sweep schedule (cron expression or '@every 6h')")
	f.StringVar(&rootFlags.daemonAddr, "daemon-addr", "", "daemon health endpoint address (default :8086)")
	f.StringVar(&rootFlags.webhookURL, "webhook", "", "webhook URL for run summaries")
}

// loadConfig loads configuration from file or returns defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.FindConfigFile()
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}

	if path != "" {
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file: %w", err)
		}
	}

	return cfg, nil
}

// mergeFlags applies explicitly set CLI flags over config values.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()

	if f.Changed("endpoint") {
		cfg.Connection.Endpoint = rootFlags.endpoint
	}
	if f.Changed("username") {
		cfg.Connection.Username = rootFlags.username
	}
	if f.Changed("password") {
		cfg.Connection.Password = rootFlags.password
	}
	if f.Changed("age") {
		cfg.Policy.MinAgeDays = rootFlags.minAgeDays
	}
	if f.Changed("ratio") {
		cfg.Policy.MinRatio = rootFlags.minRatio
	}
	if f.Changed("execute") {
		if rootFlags.execute {
			cfg.Execution.Mode = "execute"
		} else {
			cfg.Execution.Mode = "dry-run"
		}
	}
	// --dry-run always wins over config and --execute
	if f.Changed("dry-run") && rootFlags.dryRun {
		cfg.Execution.Mode = "dry-run"
	}
	if f.Changed("debug") && rootFlags.debug {
		cfg.Logging.Level = "debug"
	}
	if f.Changed("audit") {
		cfg.Execution.AuditPath = rootFlags.auditPath
	}
	if f.Changed("audit-db") {
		cfg.Execution.AuditDBPath = rootFlags.auditDB
	}
	if f.Changed("max") && rootFlags.maxReport > 0 {
		cfg.Execution.MaxReport = rootFlags.maxReport
	}
	if f.Changed("metrics") {
		cfg.Metrics.Enabled = rootFlags.metrics
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr = rootFlags.metricsAddr
	}
	if f.Changed("daemon") {
		cfg.Daemon.Enabled = rootFlags.daemonMode
	}
	if f.Changed("schedule") {
		cfg.Daemon.Schedule = rootFlags.schedule
	}
	if f.Changed("daemon-addr") {
		cfg.Daemon.HTTPAddr = rootFlags.daemonAddr
	}
	if f.Changed("webhook") {
		cfg.Notify.WebhookURL = rootFlags.webhookURL
	}
}
