package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-console/internal/service"
)

// NoticeWorker registers the notice handlers and evicts notices that no
// surface drained in time.
type NoticeWorker struct {
	notices  *service.NoticeService
	interval time.Duration
	maxAge   time.Duration
	logger   *zap.Logger
	sched    *cron.Cron
}

// NewNoticeWorker constructs the worker. A zero interval disables sweeping.
func NewNoticeWorker(notices *service.NoticeService, interval, maxAge time.Duration, logger *zap.Logger) *NoticeWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoticeWorker{notices: notices, interval: interval, maxAge: maxAge, logger: logger}
}

// Start registers handlers and schedules the sweep until ctx ends.
func (w *NoticeWorker) Start(ctx context.Context) error {
	if w.notices == nil {
		return nil
	}
	w.notices.RegisterHandlers()
	if w.interval <= 0 {
		return nil
	}
	w.sched = cron.New()
	if _, err := w.sched.AddFunc(fmt.Sprintf("@every %s", w.interval), func() { w.Sweep() }); err != nil {
		return fmt.Errorf("schedule notice sweep: %w", err)
	}
	w.sched.Start()
	w.logger.Info("notice sweep scheduled", zap.Duration("interval", w.interval), zap.Duration("max_age", w.maxAge))
	go func() {
		<-ctx.Done()
		<-w.sched.Stop().Done()
	}()
	return nil
}

// Sweep evicts expired notices once and returns how many were dropped.
func (w *NoticeWorker) Sweep() int {
	removed := w.notices.Prune(w.maxAge)
	if removed > 0 {
		w.logger.Debug("expired notices evicted", zap.Int("count", removed))
	}
	return removed
}
