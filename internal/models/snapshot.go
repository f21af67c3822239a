package models

import "time"

// Snapshot — состояние кошелька и сетки после тика (только для отчётов).
type Snapshot struct {
	Symbol       string    `json:"symbol"`
	CurrentPrice float64   `json:"current_price"`
	Quote        float64   `json:"quote"`
	Coin         float64   `json:"coin"`
	BuyCount     int       `json:"buy_count"`
	SellCount    int       `json:"sell_count"`
	PnL          float64   `json:"pnl"`
	TrailStop    float64   `json:"trail_stop"`
	TrailArmed   bool      `json:"trail_armed"`
	State        RunState  `json:"state"`
	Time         time.Time `json:"time"`
}

// RunReport — итог прогона, отдаётся всегда: и по времени, и по ошибке.
type RunReport struct {
	RunID      string    `json:"run_id"`
	Symbol     string    `json:"symbol"`
	State      RunState  `json:"state"`
	Err        string    `json:"error,omitempty"`
	Snapshot   Snapshot  `json:"snapshot"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Elapsed — длительность прогона.
func (r RunReport) Elapsed() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }
