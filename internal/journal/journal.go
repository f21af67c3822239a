// Package journal пишет прогоны и сделки в Postgres. Только запись:
// состояние движка из журнала не восстанавливается.
package journal

import (
	"context"
	"time"

	"github.com/bytedance/sonic"

	"grid_bot/internal/models"
	"grid_bot/pkg/db"
	"grid_bot/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS grid_runs (
	run_id      TEXT PRIMARY KEY,
	symbol      TEXT NOT NULL,
	reference   DOUBLE PRECISION,
	levels      JSONB,
	trail_stop  DOUBLE PRECISION,
	state       TEXT NOT NULL,
	quote       DOUBLE PRECISION,
	coin        DOUBLE PRECISION,
	buy_count   INT,
	sell_count  INT,
	pnl         DOUBLE PRECISION,
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS grid_trades (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES grid_runs(run_id),
	side        TEXT NOT NULL,
	price       DOUBLE PRECISION NOT NULL,
	amount      DOUBLE PRECISION NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	level       DOUBLE PRECISION,
	liquidation BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL
);`

const (
	upsertRunSQL = `INSERT INTO grid_runs (run_id, symbol, reference, levels, trail_stop, state, started_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (run_id) DO UPDATE SET reference = EXCLUDED.reference, levels = EXCLUDED.levels, trail_stop = EXCLUDED.trail_stop`

	insertTradeSQL = `INSERT INTO grid_trades (id, run_id, side, price, amount, value, level, liquidation, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	finishRunSQL = `INSERT INTO grid_runs (run_id, symbol, state, quote, coin, buy_count, sell_count, pnl, error, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (run_id) DO UPDATE SET state = EXCLUDED.state, quote = EXCLUDED.quote, coin = EXCLUDED.coin,
	buy_count = EXCLUDED.buy_count, sell_count = EXCLUDED.sell_count, pnl = EXCLUDED.pnl,
	error = EXCLUDED.error, started_at = EXCLUDED.started_at, finished_at = EXCLUDED.finished_at`
)

type levels struct {
	Buy  []float64 `json:"buy"`
	Sell []float64 `json:"sell"`
}

// Journal — sink для notify.Fanout. Ошибки записи логируются, прогон не валят.
type Journal struct {
	tx    db.TxManager
	runID string
	now   func() time.Time
}

func New(tx db.TxManager, runID string) *Journal {
	return &Journal{tx: tx, runID: runID, now: time.Now}
}

// Migrate создаёт таблицы, если их нет.
func (j *Journal) Migrate(ctx context.Context) error {
	return j.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, schema)
		return err
	})
}

func (j *Journal) GridReady(ctx context.Context, g models.GridReport) {
	payload, err := sonic.Marshal(levels{Buy: g.BuyLevels, Sell: g.SellLevels})
	if err != nil {
		logger.Error("[JOURNAL] marshal levels: %v", err)
		return
	}
	j.exec(ctx, "grid", upsertRunSQL,
		j.runID, g.Symbol, g.Reference, string(payload), g.TrailStop, string(models.StateRunning), j.now().UTC())
}

func (j *Journal) Trade(ctx context.Context, t models.TradeEvent) {
	var level any
	if t.Level != 0 {
		level = t.Level
	}
	j.exec(ctx, "trade", insertTradeSQL,
		t.ID, j.runID, string(t.Side), t.Price, t.Amount, t.Value, level, t.Liquidation, t.Time)
}

func (j *Journal) Status(context.Context, models.Snapshot) {}

func (j *Journal) Final(ctx context.Context, r models.RunReport) {
	var errText any
	if r.Err != "" {
		errText = r.Err
	}
	s := r.Snapshot
	j.exec(ctx, "final", finishRunSQL,
		j.runID, r.Symbol, string(r.State), s.Quote, s.Coin, s.BuyCount, s.SellCount, s.PnL, errText,
		r.StartedAt, r.FinishedAt)
}

func (j *Journal) exec(ctx context.Context, what, sql string, args ...any) {
	err := j.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, sql, args...)
		return err
	})
	if err != nil {
		logger.Error("[JOURNAL] %s run=%s: %v", what, j.runID, err)
	}
}
