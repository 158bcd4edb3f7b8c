package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/torrkit/seedsweep/internal/logger"
)

// State represents the current daemon state.
type State int32

const (
	StateStarting State = iota
	StateReady
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// RunFunc is the function called on each scheduled sweep.
type RunFunc func(ctx context.Context) error

// Config holds daemon configuration.
type Config struct {
	Schedule string // cron expression or "@every 6h"
	HTTPAddr string // address for health/status endpoints
}

// Daemon re-runs the sweep on a schedule and exposes health endpoints.
// Runs never overlap: a tick that fires while a sweep is still in
// progress is skipped.
type Daemon struct {
	log      logger.Logger
	runFunc  RunFunc
	schedule string
	httpAddr string

	state      atomic.Int32
	running    atomic.Bool
	mu         sync.RWMutex
	lastRun    time.Time
	lastErr    error
	runCount   int64
	stopCh     chan struct{}
	httpServer *http.Server
}

// New creates a new daemon instance.
func New(log logger.Logger, runFunc RunFunc, cfg Config) *Daemon {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8086"
	}

	d := &Daemon{
		log:      log,
		runFunc:  runFunc,
		schedule: cfg.Schedule,
		httpAddr: cfg.HTTPAddr,
		stopCh:   make(chan struct{}),
	}
	d.state.Store(int32(StateStarting))

	return d
}

// Run starts the daemon and blocks until shutdown.
// It handles SIGINT and SIGTERM for graceful shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	d.log.Info("daemon starting", logger.F("http_addr", d.httpAddr), logger.F("schedule", d.schedule))

	sched, err := cron.ParseStandard(d.schedule)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", d.schedule, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := d.startHTTP(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	d.state.Store(int32(StateReady))
	d.log.Info("daemon ready")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	schedulerDone := make(chan struct{})
	go d.runScheduler(ctx, sched, schedulerDone)

	select {
	case sig := <-sigCh:
		d.log.Info("received signal", logger.F("signal", sig.String()))
	case <-ctx.Done():
		d.log.Info("context canceled")
	case <-d.stopCh:
		d.log.Info("stop requested")
	}

	d.state.Store(int32(StateStopping))
	d.log.Info("daemon stopping")

	cancel()
	<-schedulerDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := d.httpServer.Shutdown(shutdownCtx); err != nil {
		d.log.Warn("HTTP server shutdown error", logger.F("error", err.Error()))
	}

	d.state.Store(int32(StateStopped))
	d.log.Info("daemon stopped")

	return nil
}

// Stop signals the daemon to shut down.
func (d *Daemon) Stop() {
	close(d.stopCh)
}

// TriggerRun starts a sweep immediately (used by the /trigger endpoint).
// Returns an error if a sweep is already in progress.
func (d *Daemon) TriggerRun(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweep already in progress")
	}
	defer d.running.Store(false)

	return d.executeRun(ctx)
}

// State returns the current daemon state.
func (d *Daemon) State() State {
	return State(d.state.Load())
}

// IsRunning returns true if a sweep is currently in progress.
func (d *Daemon) IsRunning() bool {
	return d.running.Load()
}

// LastRun returns info about the last sweep.
func (d *Daemon) LastRun() (time.Time, int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastRun, d.runCount, d.lastErr
}

// runScheduler fires the sweep at every schedule activation.
func (d *Daemon) runScheduler(ctx context.Context, sched cron.Schedule, done chan struct{}) {
	defer close(done)

	d.log.Info("scheduler started", logger.F("schedule", d.schedule))

	for {
		next := sched.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			d.log.Debug("scheduler stopping")
			return
		case <-timer.C:
			if d.running.CompareAndSwap(false, true) {
				d.state.Store(int32(StateRunning))
				err := d.executeRun(ctx)
				if err != nil && ctx.Err() == nil {
					d.log.Error("scheduled sweep failed", logger.F("error", err.Error()))
				}
				d.state.Store(int32(StateReady))
				d.running.Store(false)
			} else {
				d.log.Warn("skipping scheduled sweep - previous sweep still in progress")
			}
		}
	}
}

// executeRun performs a single sweep.
func (d *Daemon) executeRun(ctx context.Context) error {
	d.log.Info("starting sweep")
	start := time.Now()

	err := d.runFunc(ctx)

	d.mu.Lock()
	d.lastRun = start
	d.lastErr = err
	d.runCount++
	d.mu.Unlock()

	duration := time.Since(start)
	if err != nil {
		d.log.Error("sweep failed",
			logger.F("duration", duration.String()),
			logger.F("error", err.Error()))
	} else {
		d.log.Info("sweep completed", logger.F("duration", duration.String()))
	}

	return err
}

// handler builds the health/status endpoint mux.
func (d *Daemon) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","state":"%s"}`, d.State().String())
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		state := d.State()
		w.Header().Set("Content-Type", "application/json")

		if state == StateReady || state == StateRunning {
			w.WriteHeader(http.StatusOK)
			_, _ = fmt.Fprintf(w, `{"ready":true,"state":"%s"}`, state.String())
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, `{"ready":false,"state":"%s"}`, state.String())
		}
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		lastRun, runCount, lastErr := d.LastRun()

		status := struct {
			State    string `json:"state"`
			Running  bool   `json:"running"`
			LastRun  string `json:"last_run"`
			LastErr  string `json:"last_error"`
			RunCount int64  `json:"run_count"`
			Schedule string `json:"schedule"`
		}{
			State:    d.State().String(),
			Running:  d.IsRunning(),
			RunCount: runCount,
			Schedule: d.schedule,
		}
		if lastErr != nil {
			status.LastErr = lastErr.Error()
		}
		if !lastRun.IsZero() {
			status.LastRun = lastRun.Format(time.RFC3339)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	})

	mux.HandleFunc("/trigger", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
		defer cancel()

		if err := d.TriggerRun(ctx); err != nil {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(struct {
				Triggered bool   `json:"triggered"`
				Error     string `json:"error"`
			}{Triggered: false, Error: err.Error()})
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, `{"triggered":true}`)
	})

	return mux
}

// startHTTP initializes and starts the HTTP server for health endpoints.
func (d *Daemon) startHTTP() error {
	d.httpServer = &http.Server{
		Addr:              d.httpAddr,
		Handler:           d.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := d.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			d.log.Error("HTTP server error", logger.F("error", err.Error()))
		}
	}()

	// Give the server a moment to start
	time.Sleep(50 * time.Millisecond)

	return nil
}
