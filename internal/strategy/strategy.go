// Package strategy — бумажная сеточная стратегия: сетка уровней от первой цены,
// разовый трейлинг-стоп и виртуальный кошелёк.
//
// Движок однопоточный и не делает I/O: тики подаёт ровно один потребитель (runner),
// наружу уходят только копии (Update, Snapshot).
package strategy

import (
	"errors"

	"grid_bot/internal/models"
)

var (
	// ErrInvalidPrice — цена не положительная или не конечная. Для прогона фатально.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrNotRunning — движок уже в терминальном состоянии, тик не применён.
	ErrNotRunning = errors.New("engine is not running")
)

// Update — результат обработки одного тика.
type Update struct {
	Grid     *models.GridReport  // не nil только на первом тике
	Trades   []models.TradeEvent // не больше одной покупки, одной продажи и одной ликвидации
	Snapshot models.Snapshot
	Done     bool // прогон завершён, дальше тики не принимаются
}
