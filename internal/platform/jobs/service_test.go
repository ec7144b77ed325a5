package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	removed int64
	err     error
}

func (f *fakePurger) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.removed, f.err
}

func (f *fakePurger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestRunRetentionUsesWindow(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	purger := &fakePurger{removed: 4}
	svc := New(purger, 48*time.Hour, time.Hour, zap.New(core))
	now := time.Date(2025, 10, 31, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	removed, err := svc.RunRetention(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
	require.Len(t, purger.cutoffs, 1)
	assert.Equal(t, now.Add(-48*time.Hour), purger.cutoffs[0])

	entries := logs.FilterMessage("job completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, JobAuditRetention, entries[0].ContextMap()["jobType"])
}

func TestRunRetentionLogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc := New(&fakePurger{err: errors.New("db down")}, time.Hour, time.Hour, zap.New(core))

	_, err := svc.RunRetention(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("job failed").Len())
}

func TestScheduledRetentionRuns(t *testing.T) {
	purger := &fakePurger{}
	svc := New(purger, time.Hour, 10*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.Start(ctx)
	assert.Eventually(t, func() bool { return purger.calls() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestRetentionDisabled(t *testing.T) {
	purger := &fakePurger{}
	svc := New(purger, 0, 10*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, purger.calls())
}
