package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/config"
)

// QueryOptions configures one data-access call site
type QueryOptions struct {
	Timeout time.Duration // per attempt; zero means no deadline beyond the caller's
	Retries int           // extra attempts after the first, transient errors only
	Backoff time.Duration // multiplied by the attempt number
}

// DefaultQueryOptions builds the executor defaults from configuration
func DefaultQueryOptions(cfg config.DatabaseConfig) QueryOptions {
	return QueryOptions{
		Timeout: cfg.QueryTimeout,
		Retries: cfg.QueryRetries,
		Backoff: cfg.QueryRetryBackoff,
	}
}

// NoRetry returns a copy that makes a single attempt. Used for non-idempotent writes.
func (o QueryOptions) NoRetry() QueryOptions {
	o.Retries = 0
	return o
}

// WithTimeout returns a copy with a different per-attempt timeout
func (o QueryOptions) WithTimeout(d time.Duration) QueryOptions {
	o.Timeout = d
	return o
}

// Executor runs queries with timeout, retry and backoff
type Executor struct {
	defaults QueryOptions
	logger   *logrus.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates a new Executor
func NewExecutor(defaults QueryOptions, logger *logrus.Logger) *Executor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Executor{
		defaults: defaults,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// Defaults returns the configured options
func (e *Executor) Defaults() QueryOptions {
	return e.defaults
}

// Run calls fn until it succeeds, fails with a non-transient error, runs out of
// retries, or ctx is done. Each attempt gets its own deadline derived from ctx.
func (e *Executor) Run(ctx context.Context, opts QueryOptions, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			if serr := e.sleep(ctx, opts.Backoff*time.Duration(attempt)); serr != nil {
				return err
			}
		}

		err = e.attempt(ctx, opts.Timeout, fn)
		if err == nil {
			return nil
		}
		if !IsTransient(err) || ctx.Err() != nil {
			return err
		}

		e.logger.WithFields(logrus.Fields{
			"operation": op,
			"attempt":   attempt + 1,
			"retries":   opts.Retries,
			"error":     err.Error(),
		}).Warn("Transient database error")
	}
	return err
}

func (e *Executor) attempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

// SafeRun is Run for read paths that prefer a fallback over an error.
// The failure is logged and fallback is returned.
func SafeRun[T any](ctx context.Context, e *Executor, opts QueryOptions, op string, fallback T, fn func(ctx context.Context) (T, error)) T {
	var result T
	err := e.Run(ctx, opts, op, func(ctx context.Context) error {
		var ferr error
		result, ferr = fn(ctx)
		return ferr
	})
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"operation": op,
			"error":     err.Error(),
		}).Error("Query failed, using fallback")
		return fallback
	}
	return result
}

// IsTransient reports whether err is worth retrying: lost connections,
// server shutdowns and timeouts.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Class() == "08": // connection_exception
			return true
		case pqErr.Code == "57P01", pqErr.Code == "57P02", pqErr.Code == "57P03": // admin/crash shutdown, cannot connect now
			return true
		case pqErr.Code == "40001", pqErr.Code == "40P01": // serialization failure, deadlock
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection") || strings.Contains(msg, "timeout")
}

// IsConstraintViolation reports whether err came from an integrity constraint
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "23"
	}
	return strings.Contains(strings.ToLower(err.Error()), "constraint")
}

// IsConnectionError reports whether err means the database could not be reached
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "08"
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection") || strings.Contains(msg, "timeout")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
