package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"github.com/davidsparrow/guitartube-sub001/internal/api"
	"github.com/davidsparrow/guitartube-sub001/internal/catalog"
	"github.com/davidsparrow/guitartube-sub001/internal/config"
	"github.com/davidsparrow/guitartube-sub001/internal/ingest"
	"github.com/davidsparrow/guitartube-sub001/internal/logging"
	"github.com/davidsparrow/guitartube-sub001/internal/notifications"
)

// Daemon owns the HTTP API surface and enforces single-instance execution
// via a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *catalog.Store
	ingestor *ingest.Ingestor
	status   *api.StatusService

	lockPath string
	lock     *flock.Flock

	apiSrv *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	CatalogDBPath string
	LockFilePath  string
	APIAddress    string
	Jobs          map[catalog.JobStatus]int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *catalog.Store, ingestor *ingest.Ingestor, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || ingestor == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, ingestor, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "guitartubed.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    store,
		ingestor: ingestor,
		status:   api.NewStatusService(store),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.apiSrv = srv
	return d, nil
}

// Start acquires the daemon lock and begins serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another guitartube daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.apiSrv.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("guitartube daemon started", slog.String("lock", d.lockPath))
	return nil
}

// Stop shuts the API down and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.apiSrv.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", slog.String("error", err.Error()))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("guitartube daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddress reports the bound listen address, empty before Start.
func (d *Daemon) APIAddress() string {
	if d.apiSrv == nil {
		return ""
	}
	return d.apiSrv.address()
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.JobStats(ctx)
	if err != nil {
		d.logger.Warn("job stats unavailable", slog.String("error", err.Error()))
	}
	return Status{
		Running:       d.running.Load(),
		CatalogDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
		APIAddress:    d.APIAddress(),
		Jobs:          stats,
	}
}
