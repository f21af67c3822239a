package models

// Side сделки: "BUY"/"SELL".
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// RunState — состояние прогона движка.
type RunState string

const (
	StateRunning  RunState = "running"
	StateFinished RunState = "finished" // вышло время прогона
	StateStopped  RunState = "stopped"  // остановлен снаружи
	StateFailed   RunState = "failed"   // ошибка фида
)

// Terminal — из этого состояния переходов нет.
func (s RunState) Terminal() bool { return s != StateRunning }

// RunID — идентификатор одного прогона (uuid).
type RunID string
