package notify

import (
	"context"

	"grid_bot/internal/models"
)

// Notifier — получатель событий прогона. Реализации не должны блокировать
// потребителя тиков надолго и не возвращают ошибок: сбой вывода не роняет прогон.
type Notifier interface {
	GridReady(ctx context.Context, g models.GridReport)
	Trade(ctx context.Context, t models.TradeEvent)
	Status(ctx context.Context, s models.Snapshot)
	Final(ctx context.Context, r models.RunReport)
}

// Asset — подписи монет для человекочитаемых сообщений.
type Asset struct {
	Base  string // BTC
	Quote string // USDT
}

// Fanout рассылает событие всем sink'ам по порядку.
type Fanout []Notifier

func NewFanout(sinks ...Notifier) Fanout {
	out := make(Fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f Fanout) GridReady(ctx context.Context, g models.GridReport) {
	for _, n := range f {
		n.GridReady(ctx, g)
	}
}

func (f Fanout) Trade(ctx context.Context, t models.TradeEvent) {
	for _, n := range f {
		n.Trade(ctx, t)
	}
}

func (f Fanout) Status(ctx context.Context, s models.Snapshot) {
	for _, n := range f {
		n.Status(ctx, s)
	}
}

func (f Fanout) Final(ctx context.Context, r models.RunReport) {
	for _, n := range f {
		n.Final(ctx, r)
	}
}
