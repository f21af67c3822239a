package runner

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/fx"

	"grid_bot/internal/journal"
	"grid_bot/internal/models"
	bitget "grid_bot/internal/modules/bitget_websocket/service"
	"grid_bot/internal/modules/config"
	health "grid_bot/internal/modules/health/service"
	"grid_bot/internal/notify"
	"grid_bot/internal/strategy"
	"grid_bot/pkg/db"
	"grid_bot/pkg/logger"
)

func NewRunID() models.RunID { return models.RunID(uuid.NewString()) }

func asset(cfg *config.Config) notify.Asset {
	quote := strings.ToUpper(cfg.Run.Quote)
	return notify.Asset{
		Base:  strings.TrimSuffix(cfg.Run.InstID(), quote),
		Quote: quote,
	}
}

// NewNotifier собирает sink'и: консоль всегда, Telegram и журнал — если настроены.
func NewNotifier(
	ctx context.Context,
	cfg *config.Config,
	runID models.RunID,
	txm *db.PgTxManager,
	state *health.State,
) (notify.Notifier, error) {
	a := asset(cfg)
	sinks := []notify.Notifier{notify.NewStdout(a)}

	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, a)
		if err != nil {
			// чат — не критичен для бумажного прогона
			logger.Error("[TG] init: %v, telegram disabled", err)
		} else {
			tg.Start(ctx, state.Snapshot)
			sinks = append(sinks, tg)
		}
	}

	if txm != nil {
		j := journal.New(txm, string(runID))
		if err := j.Migrate(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, j)
	}

	return notify.NewFanout(sinks...), nil
}

func NewRunner(
	cfg *config.Config,
	runID models.RunID,
	eng *strategy.Engine,
	feed *bitget.Client,
	n notify.Notifier,
	state *health.State,
	tracer opentracing.Tracer,
) *Runner {
	return New(Params{
		RunID:       runID,
		InstID:      cfg.Run.InstID(),
		Engine:      eng,
		Feed:        feed,
		Notifier:    n,
		Status:      state,
		Tracer:      tracer,
		TickBuffer:  cfg.Exchange.TickBuffer,
		StatusEvery: cfg.Run.StatusEvery,
	})
}

// Module: прогон стартует на OnStart, по его концу приложение само просит fx остановиться.
// Код выхода 1, если прогон упал.
func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewRunID,
			NewNotifier,
			NewRunner,
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			sd fx.Shutdowner,
			r *Runner,
			ctx context.Context,
		) {
			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})

			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						defer close(done)
						code := 0
						if _, err := r.Run(runCtx); err != nil {
							logger.Error("[RUN] %s failed: %v", r.RunID(), err)
							code = 1
						}
						if err := sd.Shutdown(fx.ExitCode(code)); err != nil {
							logger.Error("[RUN] shutdown: %v", err)
						}
					}()
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					cancel()
					select {
					case <-done:
						return nil
					case <-stopCtx.Done():
						return stopCtx.Err()
					}
				},
			})
		}),
	)
}
