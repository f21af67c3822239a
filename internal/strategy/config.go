package strategy

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultGridSteps — уровней сетки по каждую сторону от опорной цены.
const DefaultGridSteps = 5

// GridConfig задаётся один раз до старта и не меняется весь прогон.
// Все доли — дроби, не проценты: 0.03 => 3%.
type GridConfig struct {
	Symbol       string
	InitialPrice float64 // опорная цена до первого тика
	InitialQuote float64 // стартовый баланс в quote (USDT)
	InitialCoin  float64 // стартовый баланс в монете

	TrailingStopFraction float64 // (0, 1)
	TradeFraction        float64 // (0, 1]
	PriceChangeFraction  float64 // > 0, шаг сетки
	GridSteps            int     // 0 => DefaultGridSteps

	Duration time.Duration
}

// ConfigError — невалидный параметр прогона, движок не создаётся.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid grid config: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (c GridConfig) withDefaults() GridConfig {
	if c.GridSteps == 0 {
		c.GridSteps = DefaultGridSteps
	}
	return c
}

// Validate проверяет границы всех параметров.
func (c GridConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.Symbol) == "":
		return &ConfigError{Field: "symbol", Value: c.Symbol, Reason: "must not be empty"}
	case !finite(c.InitialPrice) || c.InitialPrice <= 0:
		return &ConfigError{Field: "initial_price", Value: c.InitialPrice, Reason: "must be > 0"}
	case !finite(c.InitialQuote) || c.InitialQuote < 0:
		return &ConfigError{Field: "initial_balance", Value: c.InitialQuote, Reason: "must be >= 0"}
	case !finite(c.InitialCoin) || c.InitialCoin < 0:
		return &ConfigError{Field: "initial_coin", Value: c.InitialCoin, Reason: "must be >= 0"}
	case !finite(c.TrailingStopFraction) || c.TrailingStopFraction <= 0 || c.TrailingStopFraction >= 1:
		return &ConfigError{Field: "trailing_stop", Value: c.TrailingStopFraction, Reason: "must be in (0, 1)"}
	case !finite(c.TradeFraction) || c.TradeFraction <= 0 || c.TradeFraction > 1:
		return &ConfigError{Field: "trade_fraction", Value: c.TradeFraction, Reason: "must be in (0, 1]"}
	case !finite(c.PriceChangeFraction) || c.PriceChangeFraction <= 0:
		return &ConfigError{Field: "price_change", Value: c.PriceChangeFraction, Reason: "must be > 0"}
	case c.GridSteps < 1:
		return &ConfigError{Field: "grid_steps", Value: c.GridSteps, Reason: "must be >= 1"}
	case c.Duration <= 0:
		return &ConfigError{Field: "run_time", Value: c.Duration, Reason: "must be > 0"}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
