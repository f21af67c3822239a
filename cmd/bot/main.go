package main

import (
	"context"

	"go.uber.org/fx"

	"grid_bot/internal/modules/bitget_websocket"
	"grid_bot/internal/modules/bootstrap"
	"grid_bot/internal/modules/config"
	"grid_bot/internal/modules/health"
	"grid_bot/internal/modules/logging"
	"grid_bot/internal/modules/postgres"
	"grid_bot/internal/modules/strategy"
	"grid_bot/internal/modules/tracing"
	"grid_bot/internal/runner"
)

func main() {
	app := fx.New(
		fx.Provide(
			func(lc fx.Lifecycle) context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				lc.Append(fx.StopHook(cancel))
				return ctx
			},
		),
		fx.WithLogger(logging.EventLogger),
		config.Module(),
		logging.Module(),
		tracing.Module(),
		health.Module(),
		postgres.Module(),
		strategy.Module(),
		bitget_websocket.Module(),
		bootstrap.Module(),
		runner.Module(),
	)
	app.Run()
}
