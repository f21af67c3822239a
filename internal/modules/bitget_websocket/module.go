package bitget_websocket

import (
	"go.uber.org/fx"

	"grid_bot/internal/modules/bitget_websocket/service"
	"grid_bot/internal/modules/config"
	health "grid_bot/internal/modules/health/service"
)

// Module — клиент Bitget: ws-тикер и REST-проверка символа.
// Стрим запускает runner, здесь только конструктор.
func Module() fx.Option {
	return fx.Module("bitget_websocket",
		fx.Provide(
			func(cfg *config.Config, state *health.State) *service.Client {
				return service.NewClient(service.Config{
					WSURL:        cfg.Exchange.WSURL,
					RestURL:      cfg.Exchange.RestURL,
					MaxRetries:   cfg.Exchange.MaxRetries,
					PingInterval: cfg.Exchange.PingInterval,
				}, state)
			},
		),
	)
}
