package bootstrap

import (
	"context"

	"go.uber.org/fx"

	bootstrap "grid_bot/internal/modules/bootstrap/service"
	bitget "grid_bot/internal/modules/bitget_websocket/service"
	"grid_bot/internal/modules/config"
)

// Module — предполётная проверка символа. Подключать до runner'а:
// OnStart хуки fx выполняются в порядке регистрации.
func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			func(c *bitget.Client) *bootstrap.Preflight {
				return bootstrap.NewPreflight(c, bitget.ErrUnknownSymbol)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, p *bootstrap.Preflight) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return p.Run(ctx, cfg.Run.InstID())
				},
			})
		}),
	)
}
