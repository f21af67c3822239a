package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid_bot/internal/modules/config"
	"grid_bot/internal/strategy"
)

func TestGridConfig_PercentToFraction(t *testing.T) {
	cfg := &config.Config{}
	cfg.Run = config.RunConfig{
		Symbol:          "btc",
		Quote:           "usdt",
		InitialPrice:    100,
		InitialBalance:  1000,
		TrailingStopPct: 3,
		TradePct:        20,
		PriceChangePct:  1,
		RunTime:         time.Minute,
	}

	gc := GridConfig(cfg)
	assert.Equal(t, "BTCUSDT", gc.Symbol)
	assert.InDelta(t, 0.03, gc.TrailingStopFraction, 1e-12)
	assert.InDelta(t, 0.2, gc.TradeFraction, 1e-12)
	assert.InDelta(t, 0.01, gc.PriceChangeFraction, 1e-12)

	e, err := NewEngine(gc)
	require.NoError(t, err)
	assert.Equal(t, strategy.DefaultGridSteps, e.Config().GridSteps)
}

func TestNewEngine_RejectsBadPercent(t *testing.T) {
	cfg := &config.Config{}
	cfg.Run = config.RunConfig{Symbol: "BTC", InitialPrice: 100, TrailingStopPct: 3, TradePct: 120, PriceChangePct: 1, RunTime: time.Minute}

	_, err := NewEngine(GridConfig(cfg))
	var cerr *strategy.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "trade_fraction", cerr.Field)
}
