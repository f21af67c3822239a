package service

import (
	"context"
	"errors"
	"time"

	"grid_bot/pkg/logger"
)

// SymbolChecker — REST-проверка инструмента на бирже.
type SymbolChecker interface {
	CheckSymbol(ctx context.Context, instID string) (float64, error)
}

// Preflight проверяет символ до старта фида.
type Preflight struct {
	checker SymbolChecker
	unknown error // какая ошибка считается фатальной
	timeout time.Duration
}

func NewPreflight(checker SymbolChecker, unknown error) *Preflight {
	return &Preflight{checker: checker, unknown: unknown, timeout: 10 * time.Second}
}

// Run: неизвестный символ — ошибка старта, сетевые сбои — только предупреждение.
func (p *Preflight) Run(ctx context.Context, instID string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	price, err := p.checker.CheckSymbol(ctx, instID)
	switch {
	case err == nil:
		logger.Info("[BOOT] %s ok, last price %.4f", instID, price)
		return nil
	case p.unknown != nil && errors.Is(err, p.unknown):
		logger.Error("[BOOT] %s: %v", instID, err)
		return err
	default:
		logger.Warn("[BOOT] %s check skipped: %v", instID, err)
		return nil
	}
}
