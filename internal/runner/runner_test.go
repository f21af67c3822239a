package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid_bot/internal/models"
	"grid_bot/internal/strategy"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// feedFunc — фид из замыкания.
type feedFunc func(ctx context.Context, out chan<- models.Tick) error

func (f feedFunc) StreamTicker(ctx context.Context, _ string, out chan<- models.Tick) error {
	return f(ctx, out)
}

func send(prices ...float64) func(ctx context.Context, out chan<- models.Tick) {
	return func(ctx context.Context, out chan<- models.Tick) {
		for _, p := range prices {
			select {
			case out <- models.Tick{Symbol: "BTCUSDT", Price: p}:
			case <-ctx.Done():
				return
			}
		}
	}
}

type recorder struct {
	mu     sync.Mutex
	grids  []models.GridReport
	trades []models.TradeEvent
	status []models.Snapshot
	finals []models.RunReport
	first  chan struct{}
	once   sync.Once
}

func newRecorder() *recorder { return &recorder{first: make(chan struct{})} }

func (r *recorder) GridReady(_ context.Context, g models.GridReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grids = append(r.grids, g)
}

func (r *recorder) Trade(_ context.Context, t models.TradeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades = append(r.trades, t)
}

func (r *recorder) Status(_ context.Context, s models.Snapshot) {
	r.mu.Lock()
	r.status = append(r.status, s)
	r.mu.Unlock()
	r.once.Do(func() { close(r.first) })
}

func (r *recorder) Final(_ context.Context, rep models.RunReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finals = append(r.finals, rep)
}

type statusStub struct {
	mu    sync.Mutex
	runID string
	last  models.Snapshot
}

func (s *statusStub) SetRunID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runID = id
}

func (s *statusStub) SetSnapshot(snap models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = snap
}

func newEngine(t *testing.T, now func() time.Time, d time.Duration) *strategy.Engine {
	t.Helper()
	e, err := strategy.NewEngine(strategy.GridConfig{
		Symbol:               "BTCUSDT",
		InitialPrice:         100,
		InitialQuote:         1000,
		InitialCoin:          1,
		TrailingStopFraction: 0.03,
		TradeFraction:        0.2,
		PriceChangeFraction:  0.01,
		Duration:             d,
	}, strategy.WithClock(now))
	require.NoError(t, err)
	return e
}

func TestRun_FeedEndsStopsRun(t *testing.T) {
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rec := newRecorder()
	st := &statusStub{}
	tracer := mocktracer.New()

	r := New(Params{
		RunID:    "run-1",
		InstID:   "BTCUSDT",
		Engine:   newEngine(t, clk.Now, time.Hour),
		Notifier: rec,
		Status:   st,
		Tracer:   tracer,
		Now:      clk.Now,
		Feed: feedFunc(func(ctx context.Context, out chan<- models.Tick) error {
			send(100, 99, 101.5)(ctx, out)
			return nil
		}),
		TickBuffer: 8,
	})

	rep, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.StateStopped, rep.State)
	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, 1, rep.Snapshot.BuyCount)
	assert.Equal(t, 1, rep.Snapshot.SellCount)
	assert.Equal(t, 101.5, rep.Snapshot.CurrentPrice)

	require.Len(t, rec.grids, 1)
	assert.Equal(t, []float64{99, 98, 97, 96, 95}, rec.grids[0].BuyLevels)
	require.Len(t, rec.trades, 2)
	assert.Equal(t, models.SideBuy, rec.trades[0].Side)
	assert.Equal(t, models.SideSell, rec.trades[1].Side)
	assert.Len(t, rec.status, 3)
	require.Len(t, rec.finals, 1)
	assert.Equal(t, rep, rec.finals[0])

	assert.Equal(t, "run-1", st.runID)
	assert.Equal(t, 101.5, st.last.CurrentPrice)

	// grid.run + три grid.tick
	assert.Len(t, tracer.FinishedSpans(), 4)
}

func TestRun_FeedErrorFailsRun(t *testing.T) {
	clk := &clock{t: time.Now()}
	rec := newRecorder()
	boom := errors.New("feed reconnect attempts exhausted")

	r := New(Params{
		RunID:    "run-2",
		InstID:   "BTCUSDT",
		Engine:   newEngine(t, clk.Now, time.Hour),
		Notifier: rec,
		Now:      clk.Now,
		Feed: feedFunc(func(ctx context.Context, out chan<- models.Tick) error {
			send(100)(ctx, out)
			return boom
		}),
	})

	rep, err := r.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, models.StateFailed, rep.State)
	assert.Equal(t, boom.Error(), rep.Err)
	require.Len(t, rec.finals, 1)
	assert.Equal(t, models.StateFailed, rec.finals[0].State)
}

func TestRun_InvalidPriceFailsRun(t *testing.T) {
	clk := &clock{t: time.Now()}
	rec := newRecorder()

	r := New(Params{
		RunID:    "run-3",
		InstID:   "BTCUSDT",
		Engine:   newEngine(t, clk.Now, time.Hour),
		Notifier: rec,
		Now:      clk.Now,
		Feed: feedFunc(func(ctx context.Context, out chan<- models.Tick) error {
			send(100, -5)(ctx, out)
			<-ctx.Done()
			return nil
		}),
	})

	rep, err := r.Run(context.Background())
	require.ErrorIs(t, err, strategy.ErrInvalidPrice)
	assert.Equal(t, models.StateFailed, rep.State)
	assert.Equal(t, 100.0, rep.Snapshot.CurrentPrice, "last good snapshot is kept")
	require.Len(t, rec.finals, 1)
}

func TestRun_DeadlineWithoutTicks(t *testing.T) {
	rec := newRecorder()

	r := New(Params{
		RunID:    "run-4",
		InstID:   "BTCUSDT",
		Engine:   newEngine(t, time.Now, 30*time.Millisecond),
		Notifier: rec,
		Feed: feedFunc(func(ctx context.Context, out chan<- models.Tick) error {
			<-ctx.Done()
			return nil
		}),
	})

	done := make(chan struct{})
	var rep models.RunReport
	var err error
	go func() {
		rep, err = r.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop at deadline")
	}
	require.NoError(t, err)
	assert.Equal(t, models.StateFinished, rep.State)
	assert.Empty(t, rec.grids)
}

func TestRun_DeadlineAfterTick(t *testing.T) {
	clk := &clock{t: time.Now()}
	rec := newRecorder()

	r := New(Params{
		RunID:    "run-5",
		InstID:   "BTCUSDT",
		Engine:   newEngine(t, clk.Now, time.Hour),
		Notifier: rec,
		Now:      clk.Now,
		Feed: feedFunc(func(ctx context.Context, out chan<- models.Tick) error {
			send(100)(ctx, out)
			<-rec.first
			clk.Advance(2 * time.Hour)
			send(99, 98)(ctx, out)
			<-ctx.Done()
			return nil
		}),
	})

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StateFinished, rep.State)
	// тик 99 применён целиком, 98 уже не принимается
	assert.Equal(t, 1, rep.Snapshot.BuyCount)
	assert.Equal(t, 99.0, rep.Snapshot.CurrentPrice)
}

func TestRun_ExternalStop(t *testing.T) {
	rec := newRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := New(Params{
		RunID:    "run-6",
		InstID:   "BTCUSDT",
		Engine:   newEngine(t, time.Now, time.Hour),
		Notifier: rec,
		Feed: feedFunc(func(ctx context.Context, out chan<- models.Tick) error {
			send(100)(ctx, out)
			<-ctx.Done()
			return nil
		}),
	})

	go func() {
		<-rec.first
		cancel()
	}()

	rep, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StateStopped, rep.State)
	require.Len(t, rec.finals, 1)
}

func TestApply_StatusThrottle(t *testing.T) {
	clk := &clock{t: time.Now()}
	rec := newRecorder()
	r := New(Params{
		Engine:      newEngine(t, clk.Now, time.Hour),
		Notifier:    rec,
		Now:         clk.Now,
		StatusEvery: time.Second,
	})

	ctx := context.Background()
	for _, p := range []float64{100, 100.1, 100.2} {
		_, err := r.apply(ctx, models.Tick{Price: p})
		require.NoError(t, err)
	}
	assert.Len(t, rec.status, 1)

	clk.Advance(time.Second)
	_, err := r.apply(ctx, models.Tick{Price: 100.3})
	require.NoError(t, err)
	assert.Len(t, rec.status, 2)

	// сделка — статус сразу
	_, err = r.apply(ctx, models.Tick{Price: 99})
	require.NoError(t, err)
	assert.Len(t, rec.status, 3)
}
