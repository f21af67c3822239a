package runner

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	"golang.org/x/sync/errgroup"

	"grid_bot/internal/models"
	"grid_bot/internal/notify"
	"grid_bot/internal/strategy"
	"grid_bot/pkg/logger"
	"grid_bot/pkg/tracing"
)

// Feed — источник тиков. StreamTicker блокируется до отмены ctx (nil) или фатальной ошибки.
type Feed interface {
	StreamTicker(ctx context.Context, instID string, out chan<- models.Tick) error
}

// StatusSink — health-состояние, обновляется после каждого тика.
type StatusSink interface {
	SetRunID(id string)
	SetSnapshot(s models.Snapshot)
}

type Params struct {
	RunID       models.RunID
	InstID      string
	Engine      *strategy.Engine
	Feed        Feed
	Notifier    notify.Notifier
	Status      StatusSink         // может быть nil
	Tracer      opentracing.Tracer // nil => NoopTracer
	TickBuffer  int
	StatusEvery time.Duration // 0 => статус на каждый тик
	Now         func() time.Time
}

// Runner ведёт один прогон: фид в своей горутине, движок — строго в одной горутине-потребителе.
type Runner struct {
	p Params

	lastStatus time.Time
}

func New(p Params) *Runner {
	if p.Tracer == nil {
		p.Tracer = opentracing.NoopTracer{}
	}
	if p.TickBuffer < 1 {
		p.TickBuffer = 1
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Runner{p: p}
}

func (r *Runner) RunID() models.RunID { return r.p.RunID }

// Run блокируется до конца прогона. Итоговый отчёт отправляется всегда,
// ошибка != nil только при фатальном сбое (фид, невалидная цена).
func (r *Runner) Run(ctx context.Context) (models.RunReport, error) {
	eng := r.p.Engine
	if r.p.Status != nil {
		r.p.Status.SetRunID(string(r.p.RunID))
	}

	span, ctx := tracing.StartSpan(ctx, r.p.Tracer, "grid.run")
	span.SetTag("run_id", string(r.p.RunID))
	span.SetTag("symbol", r.p.InstID)
	defer span.Finish()

	logger.Info("[RUN] %s started: %s, deadline %s", r.p.RunID, r.p.InstID, eng.Deadline().Format(time.RFC3339))

	// feedCtx гасит фид, когда прогон закончился сам (по времени)
	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()

	ticks := make(chan models.Tick, r.p.TickBuffer)
	g, gctx := errgroup.WithContext(feedCtx)

	var feedErr error
	g.Go(func() error {
		defer close(ticks)
		feedErr = r.p.Feed.StreamTicker(gctx, r.p.InstID, ticks)
		if feedErr != nil {
			logger.Error("[FEED] %s: %v", r.p.InstID, feedErr)
		}
		return feedErr
	})
	g.Go(func() error {
		return r.consume(gctx, ticks, stopFeed)
	})
	runErr := g.Wait()

	// потребитель завершён, движок теперь наш
	switch {
	case runErr != nil:
		eng.Fail(runErr)
	case feedErr != nil:
		eng.Fail(feedErr)
	case !eng.Done():
		eng.Stop()
	}

	report := r.report()
	if report.Err != "" {
		span.SetTag("error", true)
		span.LogKV("event", "error", "message", report.Err)
	}
	span.SetTag("state", string(report.State))

	r.p.Notifier.Final(context.WithoutCancel(ctx), report)
	logger.Info("[RUN] %s %s: pnl=%.4f buy/sell=%d/%d", r.p.RunID, report.State,
		report.Snapshot.PnL, report.Snapshot.BuyCount, report.Snapshot.SellCount)

	if report.State == models.StateFailed {
		return report, eng.Err()
	}
	return report, nil
}

// consume — единственная горутина, которая трогает движок.
func (r *Runner) consume(ctx context.Context, ticks <-chan models.Tick, stopFeed context.CancelFunc) error {
	eng := r.p.Engine

	deadline := time.NewTimer(r.untilDeadline())
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-deadline.C:
			if eng.CheckDeadline(r.p.Now()) {
				logger.Info("[RUN] %s time limit reached", r.p.RunID)
				stopFeed()
				return nil
			}
			deadline.Reset(r.untilDeadline())

		case t, ok := <-ticks:
			if !ok {
				return nil
			}
			done, err := r.apply(ctx, t)
			if err != nil {
				return err
			}
			if done {
				logger.Info("[RUN] %s time limit reached", r.p.RunID)
				stopFeed()
				return nil
			}
		}
	}
}

func (r *Runner) apply(ctx context.Context, t models.Tick) (bool, error) {
	span, spanCtx := tracing.StartSpan(ctx, r.p.Tracer, "grid.tick")
	defer span.Finish()
	span.SetTag("price", t.Price)

	upd, err := r.p.Engine.OnPriceUpdate(t)
	if err != nil {
		span.SetTag("error", true)
		if errors.Is(err, strategy.ErrNotRunning) {
			return true, nil
		}
		return true, err
	}
	span.SetTag("trades", len(upd.Trades))

	if upd.Grid != nil {
		logger.Info("[GRID] %s ref=%.4f buy=%v sell=%v stop=%.4f",
			upd.Grid.Symbol, upd.Grid.Reference, upd.Grid.BuyLevels, upd.Grid.SellLevels, upd.Grid.TrailStop)
		r.p.Notifier.GridReady(spanCtx, *upd.Grid)
	}
	for _, tr := range upd.Trades {
		logger.Info("[TRADE] %s %s %.6f @ %.4f liquidation=%t", tr.Symbol, tr.Side, tr.Amount, tr.Price, tr.Liquidation)
		r.p.Notifier.Trade(spanCtx, tr)
	}

	if r.p.Status != nil {
		r.p.Status.SetSnapshot(upd.Snapshot)
	}
	now := r.p.Now()
	if r.p.StatusEvery <= 0 || now.Sub(r.lastStatus) >= r.p.StatusEvery || len(upd.Trades) > 0 {
		r.lastStatus = now
		r.p.Notifier.Status(spanCtx, upd.Snapshot)
	}

	return upd.Done, nil
}

func (r *Runner) untilDeadline() time.Duration {
	d := r.p.Engine.Deadline().Sub(r.p.Now())
	if d < time.Millisecond {
		return time.Millisecond
	}
	return d
}

func (r *Runner) report() models.RunReport {
	eng := r.p.Engine
	rep := models.RunReport{
		RunID:      string(r.p.RunID),
		Symbol:     r.p.InstID,
		State:      eng.State(),
		Snapshot:   eng.Snapshot(),
		StartedAt:  eng.StartTime(),
		FinishedAt: r.p.Now(),
	}
	if err := eng.Err(); err != nil {
		rep.Err = err.Error()
	}
	return rep
}
