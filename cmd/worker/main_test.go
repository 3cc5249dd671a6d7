package main

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shoppingapp "pantry/application/shopping"
	"pantry/config"
	"pantry/domain/shared"
	"pantry/infrastructure/lock"
	"pantry/infrastructure/messaging"
	"pantry/infrastructure/persistence/mocks"
	"pantry/pkg/metrics"
)

type countingRecorder struct {
	metrics.Nop
	abandoned atomic.Int64
}

func (r *countingRecorder) RecordSessionsAbandoned(n int) { r.abandoned.Add(int64(n)) }

func TestSweepStaleSessions(t *testing.T) {
	clock := shared.NewFixedClock(time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	sessions := mocks.NewMockSessionRepository()
	svc := shoppingapp.NewApplicationService(sessions, mocks.NewMockIngredientRepository(), mocks.NewMockUnitOfWorkFactory(), lock.NewLocalLocker(), clock)

	user := shared.GenerateUserID().Value()
	started, err := svc.StartSession(context.Background(), user, shoppingapp.StartSessionRequest{})
	require.NoError(t, err)
	clock.Advance(4 * time.Hour)

	recorder := &countingRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- sweepStaleSessions(ctx, svc, recorder, config.WorkerConfig{
			StaleSessionAfter: 3 * time.Hour,
			SweepInterval:     10 * time.Millisecond,
		})
	}()

	assert.Eventually(t, func() bool { return recorder.abandoned.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	got, err := svc.GetSession(context.Background(), user, started.ID)
	require.NoError(t, err)
	assert.Equal(t, "ABANDONED", got.Status)
}

func TestSweepStaleSessions_Disabled(t *testing.T) {
	err := sweepStaleSessions(context.Background(), nil, metrics.Nop{}, config.WorkerConfig{})
	assert.NoError(t, err)
}

func TestNewPublisher(t *testing.T) {
	p, err := newPublisher(&config.Config{})
	require.NoError(t, err)
	assert.IsType(t, messaging.LoggingPublisher{}, p)

	p, err = newPublisher(&config.Config{Kafka: config.KafkaConfig{
		Enabled: true,
		Brokers: []string{"localhost:9092"},
		Topic:   "pantry.events",
	}})
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.NoError(t, p.Close())
}

func TestServeMetrics(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	go func() { done <- serveMetrics(ctx, handler, strconv.Itoa(port)) }()

	assert.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(port) + "/metrics")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestServeMetrics_NoPort(t *testing.T) {
	assert.NoError(t, serveMetrics(context.Background(), http.NotFoundHandler(), ""))
}
