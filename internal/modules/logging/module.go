package logging

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"grid_bot/internal/modules/config"
	"grid_bot/pkg/logger"
)

// NewLogger инициализирует глобальный pkg/logger и отдаёт *zap.Logger для fx.
func NewLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	logger.SetServiceName(cfg.Service.Name)
	l, sync, err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sync()
			return nil
		},
	})
	return l, nil
}

// EventLogger — события fx в тот же zap.
func EventLogger(l *zap.Logger) fxevent.Logger {
	zl := &fxevent.ZapLogger{Logger: l.Named("fx")}
	zl.UseLogLevel(zap.DebugLevel)
	return zl
}

func Module() fx.Option {
	return fx.Module("logging",
		fx.Provide(NewLogger),
	)
}
