package strategy

import (
	"go.uber.org/fx"

	"grid_bot/internal/modules/config"
	"grid_bot/internal/strategy"
	"grid_bot/pkg/logger"
)

// GridConfig переводит проценты из конфига в доли движка.
func GridConfig(cfg *config.Config) strategy.GridConfig {
	r := cfg.Run
	return strategy.GridConfig{
		Symbol:               r.InstID(),
		InitialPrice:         r.InitialPrice,
		InitialQuote:         r.InitialBalance,
		InitialCoin:          r.InitialCoin,
		TrailingStopFraction: r.TrailingStopPct / 100,
		TradeFraction:        r.TradePct / 100,
		PriceChangeFraction:  r.PriceChangePct / 100,
		GridSteps:            r.GridSteps,
		Duration:             r.RunTime,
	}
}

// NewEngine — невалидный конфиг роняет старт приложения до первого тика.
func NewEngine(gc strategy.GridConfig) (*strategy.Engine, error) {
	e, err := strategy.NewEngine(gc)
	if err != nil {
		return nil, err
	}
	gc = e.Config()
	logger.Info("[STRAT] grid %s: balance=%.2f coin=%.6f step=%.4f%% stop=%.2f%% trade=%.2f%% levels=%d run=%s",
		gc.Symbol, gc.InitialQuote, gc.InitialCoin,
		gc.PriceChangeFraction*100, gc.TrailingStopFraction*100, gc.TradeFraction*100,
		gc.GridSteps, gc.Duration)
	return e, nil
}

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			GridConfig,
			NewEngine,
		),
	)
}
