package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultReportSpec runs the usage report daily at 21:00 UTC.
const DefaultReportSpec = "0 21 * * *"

// Scheduler runs the periodic usage report.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	ctx        context.Context
	cancel     context.CancelFunc
	reportFunc func(ctx context.Context) error
	logger     *slog.Logger
}

func New(spec string, logger *slog.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultReportSpec
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		spec:   spec,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

func (s *Scheduler) SetReportFunction(f func(ctx context.Context) error) {
	s.reportFunc = f
}

func (s *Scheduler) Start() error {
	if s.reportFunc == nil {
		return errors.New("scheduler: report function not set")
	}

	_, err := s.cron.AddFunc(s.spec, s.runReport)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec)
	return nil
}

// Stop waits for a running report to finish, then cancels its context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}

func (s *Scheduler) runReport() {
	s.logger.Info("usage report triggered")
	if err := s.reportFunc(s.ctx); err != nil {
		s.logger.Error("usage report failed", "error", err)
	}
}
