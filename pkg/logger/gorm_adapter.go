package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowQuery = 200 * time.Millisecond

// GormLogger sends gorm's messages and SQL traces to the global zap logger,
// tagged with the request id carried by the statement context.
type GormLogger struct {
	level          gormlogger.LogLevel
	slowQuery      time.Duration
	ignoreNotFound bool
}

type GormOption func(*GormLogger)

// WithSlowQuery sets the duration above which a statement is logged at warn.
// Zero disables slow query logging.
func WithSlowQuery(d time.Duration) GormOption {
	return func(l *GormLogger) { l.slowQuery = d }
}

// WithNotFoundLogged reports gorm.ErrRecordNotFound as an error. Repositories
// turn it into a domain not-found error, so it is skipped by default.
func WithNotFoundLogged() GormOption {
	return func(l *GormLogger) { l.ignoreNotFound = false }
}

func NewGormLogger(level gormlogger.LogLevel, opts ...GormOption) *GormLogger {
	l := &GormLogger{level: level, slowQuery: defaultSlowQuery, ignoreNotFound: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		FromContext(ctx).Info(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		FromContext(ctx).Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		FromContext(ctx).Error(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= gormlogger.Error:
		if l.ignoreNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		FromContext(ctx).Error("sql failed", append(traceFields(fc, elapsed), zap.Error(err))...)
	case l.slowQuery > 0 && elapsed > l.slowQuery && l.level >= gormlogger.Warn:
		FromContext(ctx).Warn("slow sql", append(traceFields(fc, elapsed), zap.Duration("threshold", l.slowQuery))...)
	case l.level >= gormlogger.Info:
		FromContext(ctx).Debug("sql", traceFields(fc, elapsed)...)
	}
}

func traceFields(fc func() (string, int64), elapsed time.Duration) []zap.Field {
	sql, rows := fc()
	return []zap.Field{
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}
}

var _ gormlogger.Interface = (*GormLogger)(nil)
