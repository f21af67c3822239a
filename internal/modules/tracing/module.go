package tracing

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/fx"

	"grid_bot/internal/modules/config"
	"grid_bot/pkg/logger"
	"grid_bot/pkg/tracing"
)

// Module отдаёт opentracing.Tracer: jaeger или noop, если tracing.enabled=false.
func Module() fx.Option {
	return fx.Module("tracing",
		fx.Provide(
			func(lc fx.Lifecycle, cfg *config.Config) (opentracing.Tracer, error) {
				tracing.SetServiceName(cfg.Service.Name)
				tracer, closer, err := tracing.InitTracer(tracing.Config{
					Enabled: cfg.Tracing.Enabled,
					Host:    cfg.Tracing.Host,
					Port:    cfg.Tracing.Port,
				})
				if err != nil {
					return nil, err
				}
				if cfg.Tracing.Enabled {
					logger.Info("[TRACE] jaeger agent %s:%d", cfg.Tracing.Host, cfg.Tracing.Port)
				}

				lc.Append(fx.Hook{
					OnStop: func(ctx context.Context) error {
						closer()
						return nil
					},
				})
				return tracer, nil
			},
		),
	)
}
