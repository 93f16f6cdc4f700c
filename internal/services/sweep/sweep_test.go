package sweep

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestScheduler(interval time.Duration) *Scheduler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewScheduler(interval, logger)
}

func TestRegisterDaily_RunsOnTick(t *testing.T) {
	scheduler := newTestScheduler(10 * time.Millisecond)
	defer scheduler.Stop()

	var calls atomic.Int64
	scheduler.RegisterDaily("Subscription Renewal", func(_ context.Context) {
		calls.Add(1)
	})

	assert.Eventually(t, func() bool {
		return calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestRegisterDaily_ReRegisterReplaces(t *testing.T) {
	scheduler := newTestScheduler(10 * time.Millisecond)
	defer scheduler.Stop()

	var first, second atomic.Int64
	scheduler.RegisterDaily("Subscription Renewal", func(_ context.Context) {
		first.Add(1)
	})
	scheduler.RegisterDaily("Subscription Renewal", func(_ context.Context) {
		second.Add(1)
	})

	assert.Eventually(t, func() bool {
		return second.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	// Первая регистрация заменена, её счётчик больше не растёт.
	was := first.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, was, first.Load())
}

func TestStop(t *testing.T) {
	scheduler := newTestScheduler(10 * time.Millisecond)

	var calls atomic.Int64
	scheduler.RegisterDaily("Subscription Renewal", func(_ context.Context) {
		calls.Add(1)
	})
	scheduler.Stop()
	// Даём завершиться запуску, который мог быть в полёте на момент остановки.
	time.Sleep(30 * time.Millisecond)

	was := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, was, calls.Load())
}
