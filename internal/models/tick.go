package models

import "time"

// Tick — одна цена последней сделки из фида.
type Tick struct {
	Symbol string
	Price  float64
	Time   time.Time
}
