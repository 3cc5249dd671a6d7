package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"pantry/domain/shared"
)

func fastConfig() Config {
	c := DefaultConfig
	c.InitialDelay = time.Millisecond
	c.MaxDelay = 2 * time.Millisecond
	return c
}

func TestRetryable(t *testing.T) {
	cfg := DefaultConfig
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"concurrent modification", shared.NewConcurrentModificationError("ingredient", "x"), true},
		{"mysql deadlock", &mysqlDriver.MySQLError{Number: 1213}, true},
		{"mysql lock timeout", &mysqlDriver.MySQLError{Number: 1205}, true},
		{"mysql duplicate", &mysqlDriver.MySQLError{Number: 1062}, false},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, true},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"pg unique", &pgconn.PgError{Code: "23505"}, false},
		{"sqlite busy", errors.New("database is locked"), true},
		{"business rule", shared.NewBusinessRuleError("ingredient", "x"), false},
		{"duplicate", shared.NewDuplicateError("ingredient", "x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err, cfg))
		})
	}
}

func TestRetryable_Flags(t *testing.T) {
	cfg := DefaultConfig
	cfg.RetryOnConcurrentModification = false
	cfg.RetryOnDeadlock = false
	assert.False(t, Retryable(shared.NewConcurrentModificationError("ingredient", "x"), cfg))
	assert.False(t, Retryable(&pgconn.PgError{Code: "40P01"}, cfg))

	cfg.RetryPredicate = func(error) bool { return true }
	assert.True(t, Retryable(errors.New("anything"), cfg))
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		calls++
		if calls < 3 {
			return shared.NewConcurrentModificationError("ingredient", "x")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	want := shared.NewBusinessRuleError("ingredient", "x")
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		calls++
		return want
	})
	assert.ErrorIs(t, err, want)
	assert.Equal(t, 1, calls)
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		calls++
		return shared.NewConcurrentModificationError("ingredient", "x")
	})
	assert.ErrorIs(t, err, shared.ErrConcurrentModification)
	assert.Equal(t, DefaultConfig.MaxAttempts, calls)
}

func TestDo_Disabled(t *testing.T) {
	cfg := fastConfig()
	cfg.Enabled = false
	calls := 0
	_ = Do(context.Background(), cfg, func(context.Context) error {
		calls++
		return shared.NewConcurrentModificationError("ingredient", "x")
	})
	assert.Equal(t, 1, calls)
}

func TestBackoff(t *testing.T) {
	cfg := DefaultConfig
	cfg.JitterEnabled = false
	assert.Equal(t, time.Duration(0), Backoff(0, cfg))
	assert.Equal(t, 100*time.Millisecond, Backoff(1, cfg))
	assert.Equal(t, 200*time.Millisecond, Backoff(2, cfg))
	assert.Equal(t, 2*time.Second, Backoff(10, cfg))
}
