package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
)

type countingJob struct {
	mu    sync.Mutex
	calls int
	n     int
	err   error
}

func (c *countingJob) run(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.n, c.err
}

func (c *countingJob) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeOffers struct{ *countingJob }

func (f fakeOffers) ExpireStaleOffers(ctx context.Context) (int, error) { return f.run(ctx) }

type fakeReservations struct{ unactioned, past *countingJob }

func (f fakeReservations) ExpireUnactioned(ctx context.Context) (int, error) {
	return f.unactioned.run(ctx)
}
func (f fakeReservations) CompletePast(ctx context.Context) (int, error) { return f.past.run(ctx) }

type fakeDisputes struct{ *countingJob }

func (f fakeDisputes) ResolveOverdue(ctx context.Context) (int, error) { return f.run(ctx) }

type fakeMetrics struct {
	mu   sync.Mutex
	runs map[string]string
}

func (m *fakeMetrics) IncSweeperRun(job, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runs == nil {
		m.runs = make(map[string]string)
	}
	m.runs[job] = result
}

type fixture struct {
	offers, unactioned, past, disputes *countingJob
	metrics                            *fakeMetrics
	sweeper                            *Sweeper
}

func newFixture(interval time.Duration) *fixture {
	f := &fixture{
		offers:     &countingJob{},
		unactioned: &countingJob{},
		past:       &countingJob{},
		disputes:   &countingJob{},
		metrics:    &fakeMetrics{},
	}
	f.sweeper = New(interval,
		fakeOffers{f.offers},
		fakeReservations{unactioned: f.unactioned, past: f.past},
		fakeDisputes{f.disputes},
		f.metrics,
		logger.NewNop(),
	)
	return f
}

func TestRunOnce_ErrorDoesNotStopOtherJobs(t *testing.T) {
	f := newFixture(time.Minute)
	f.offers.n = 2
	f.unactioned.err = errors.New("db down")
	f.past.n = 1

	f.sweeper.RunOnce(context.Background())

	assert.Equal(t, 1, f.offers.Calls())
	assert.Equal(t, 1, f.unactioned.Calls())
	assert.Equal(t, 1, f.past.Calls())
	assert.Equal(t, 1, f.disputes.Calls())
	assert.Equal(t, map[string]string{
		"expire_offers":            "ok",
		"expire_unactioned":        "error",
		"complete_past":            "ok",
		"resolve_overdue_disputes": "ok",
	}, f.metrics.runs)
}

func TestRunOnce_StopsOnCancellation(t *testing.T) {
	f := newFixture(time.Minute)
	f.offers.err = context.Canceled

	f.sweeper.RunOnce(context.Background())

	assert.Equal(t, 1, f.offers.Calls())
	assert.Equal(t, 0, f.unactioned.Calls())
	assert.Equal(t, "cancelled", f.metrics.runs["expire_offers"])
}

func TestRunOnce_CancelledContextSkipsJobs(t *testing.T) {
	f := newFixture(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.sweeper.RunOnce(ctx)

	assert.Equal(t, 0, f.offers.Calls())
}

func TestAdd_ExtraJob(t *testing.T) {
	f := newFixture(time.Minute)
	extra := &countingJob{}
	f.sweeper.Add("cleanup", extra.run)

	f.sweeper.RunOnce(context.Background())

	assert.Equal(t, 1, extra.Calls())
	assert.Equal(t, "ok", f.metrics.runs["cleanup"])
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	f := newFixture(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.sweeper.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return f.offers.Calls() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}
