package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	outboxStuckAfter = 10 * time.Minute
	outboxRetention  = 30 * 24 * time.Hour
	jobTimeout       = 2 * time.Minute
)

type outboxJobs interface {
	DispatchPending(ctx context.Context) (int, int, error)
	ReleaseStuck(ctx context.Context, stuckAfter time.Duration) (int64, error)
	Cleanup(ctx context.Context, stuckAfter, retention time.Duration) error
}

// CronService manages scheduled background jobs
type CronService struct {
	cron       *cron.Cron
	dispatcher outboxJobs
	logger     *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(dispatcher outboxJobs, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:       cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start starts all cron jobs
func (s *CronService) Start() error {
	// Cron format: second minute hour day month weekday
	if _, err := s.cron.AddFunc("*/30 * * * * *", s.dispatchEmailsJob); err != nil {
		return fmt.Errorf("failed to schedule email dispatch job: %w", err)
	}
	if _, err := s.cron.AddFunc("0 */5 * * * *", s.releaseStuckJob); err != nil {
		return fmt.Errorf("failed to schedule outbox release job: %w", err)
	}
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.cleanupOutboxJob); err != nil {
		return fmt.Errorf("failed to schedule outbox cleanup job: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("jobs", len(s.cron.Entries())).Info("Cron service started")
	return nil
}

// Stop stops all cron jobs and waits for running ones
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) dispatchEmailsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, _, err := s.dispatcher.DispatchPending(ctx); err != nil {
		s.logger.WithError(err).Error("[CRON] Email dispatch failed")
	}
}

func (s *CronService) releaseStuckJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.dispatcher.ReleaseStuck(ctx, outboxStuckAfter); err != nil {
		s.logger.WithError(err).Error("[CRON] Outbox release failed")
	}
}

func (s *CronService) cleanupOutboxJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := s.dispatcher.Cleanup(ctx, outboxStuckAfter, outboxRetention); err != nil {
		s.logger.WithError(err).Error("[CRON] Outbox cleanup failed")
		return
	}
	s.logger.WithField("duration", time.Since(start).String()).Info("[CRON] Outbox cleanup done")
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
