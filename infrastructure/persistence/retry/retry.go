// Package retry reruns a unit of work when the database reports a conflict
// that a fresh attempt can clear.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"pantry/config"
	"pantry/domain/shared"
)

type Config struct {
	Enabled                       bool
	MaxAttempts                   int
	InitialDelay                  time.Duration
	MaxDelay                      time.Duration
	BackoffFactor                 float64
	JitterEnabled                 bool
	RetryOnConcurrentModification bool
	RetryOnDeadlock               bool
	RetryOnLockTimeout            bool
	// RetryPredicate marks additional errors as retryable.
	RetryPredicate func(error) bool
}

var DefaultConfig = Config{
	Enabled:                       true,
	MaxAttempts:                   3,
	InitialDelay:                  100 * time.Millisecond,
	MaxDelay:                      2 * time.Second,
	BackoffFactor:                 2.0,
	JitterEnabled:                 true,
	RetryOnConcurrentModification: true,
	RetryOnDeadlock:               true,
	RetryOnLockTimeout:            true,
}

func FromAppConfig(cfg *config.Config) Config {
	r := cfg.Database.Retry
	return Config{
		Enabled:                       r.Enabled,
		MaxAttempts:                   r.MaxAttempts,
		InitialDelay:                  r.InitialDelay,
		MaxDelay:                      r.MaxDelay,
		BackoffFactor:                 r.BackoffFactor,
		JitterEnabled:                 r.JitterEnabled,
		RetryOnConcurrentModification: r.RetryOnConcurrentModification,
		RetryOnDeadlock:               r.RetryOnDeadlock,
		RetryOnLockTimeout:            r.RetryOnLockTimeout,
	}
}

type failure int

const (
	permanent failure = iota
	versionConflict
	deadlock
	lockTimeout
	connectionLost
)

const (
	mysqlDeadlock    = 1213
	mysqlLockTimeout = 1205
)

func classify(err error) failure {
	if errors.Is(err, shared.ErrConcurrentModification) {
		return versionConflict
	}

	var myErr *mysqlDriver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDeadlock:
			return deadlock
		case mysqlLockTimeout:
			return lockTimeout
		}
		return permanent
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return deadlock
		case "55P03":
			return lockTimeout
		}
		return permanent
	}

	if errors.Is(err, gorm.ErrInvalidTransaction) {
		return connectionLost
	}

	// sqlite and dropped connections only surface as text.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "deadlock"), strings.Contains(msg, "database is locked"):
		return deadlock
	case strings.Contains(msg, "lock wait timeout"):
		return lockTimeout
	case strings.Contains(msg, "connection") && strings.Contains(msg, "lost"):
		return connectionLost
	}
	return permanent
}

// Retryable reports whether running the whole transaction again may succeed.
// Domain rule violations never are.
func Retryable(err error, cfg Config) bool {
	if err == nil {
		return false
	}
	if cfg.RetryPredicate != nil && cfg.RetryPredicate(err) {
		return true
	}
	switch classify(err) {
	case versionConflict:
		return cfg.RetryOnConcurrentModification
	case deadlock:
		return cfg.RetryOnDeadlock
	case lockTimeout:
		return cfg.RetryOnLockTimeout
	case connectionLost:
		return true
	}
	return false
}

// Backoff is the wait before retry number attempt (1-based), capped at
// MaxDelay and spread by +-20% when jitter is on.
func Backoff(attempt int, cfg Config) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := math.Min(
		float64(cfg.InitialDelay)*math.Pow(cfg.BackoffFactor, float64(attempt-1)),
		float64(cfg.MaxDelay),
	)
	if cfg.JitterEnabled {
		d *= 0.8 + 0.4*rand.Float64()
	}
	return time.Duration(math.Max(d, 0))
}

// Do calls fn until it succeeds, returns a non-retryable error, or
// MaxAttempts is spent. The last error is returned.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	attempts := cfg.MaxAttempts
	if !cfg.Enabled || attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; ; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= attempts || !Retryable(err, cfg) {
			return err
		}
		if serr := sleep(ctx, Backoff(attempt, cfg)); serr != nil {
			return serr
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
