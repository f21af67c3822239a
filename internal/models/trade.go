package models

import "time"

// TradeEvent — симулированная сделка в бумажном кошельке.
type TradeEvent struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	Price       float64   `json:"price"`
	Amount      float64   `json:"amount"` // в монетах
	Value       float64   `json:"value"`  // в quote
	Liquidation bool      `json:"liquidation"`
	Level       float64   `json:"level,omitempty"` // сработавший уровень сетки, 0 для трейлинг-стопа
	Time        time.Time `json:"time"`
}

// GridReport — разовый отчёт о построенной сетке.
type GridReport struct {
	Symbol     string    `json:"symbol"`
	Reference  float64   `json:"reference"`
	BuyLevels  []float64 `json:"buy_levels"`
	SellLevels []float64 `json:"sell_levels"`
	TrailStop  float64   `json:"trail_stop"`
}
