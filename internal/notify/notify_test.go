package notify

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid_bot/internal/models"
)

var btc = Asset{Base: "BTC", Quote: "USDT"}

func TestFormatTrade(t *testing.T) {
	buy := models.TradeEvent{Side: models.SideBuy, Price: 99, Amount: 200.0 / 99.0}
	assert.Equal(t, "Bought 2.0202 BTC at 99.0000 USDT", FormatTrade(btc, buy))

	liq := models.TradeEvent{Side: models.SideSell, Price: 96.5, Amount: 7, Liquidation: true}
	assert.Equal(t, "Trailing Stop Triggered! Sold 7.0000 BTC at 96.5000 USDT", FormatTrade(btc, liq))
}

func TestFormatStatus(t *testing.T) {
	s := models.Snapshot{CurrentPrice: 99, Quote: 800, Coin: 2.0202, BuyCount: 1, PnL: -0.0002}
	assert.Equal(t,
		"Current Price: 99.0000 USDT | Wallet: [USDT: 800.000, BTC: 2.020] | Buy/Sell: 1/0 | PnL: -0.0002 USDT",
		FormatStatus(btc, s))
}

func TestFormatGrid(t *testing.T) {
	g := models.GridReport{
		BuyLevels:  []float64{99, 98.5},
		SellLevels: []float64{101, 101.5},
		TrailStop:  97.00000000000001,
	}
	out := FormatGrid(g)
	assert.Contains(t, out, "Buy Levels")
	assert.Contains(t, out, "99.0000         | 101.0000")
	assert.Contains(t, out, "98.5000         | 101.5000")
	assert.True(t, strings.HasSuffix(out, "Trailing Stop Price: 97.0000"))
}

func TestFormatFinal(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := models.RunReport{
		RunID:      "run-1",
		Symbol:     "BTCUSDT",
		State:      models.StateFailed,
		Err:        "feed down",
		Snapshot:   models.Snapshot{CurrentPrice: 100, Quote: 1000, PnL: 0},
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
	}
	out := FormatFinal(btc, r)
	assert.True(t, strings.HasPrefix(out, "Bot stopped on error."))
	assert.Contains(t, out, "Elapsed: 1m30s")
	assert.Contains(t, out, "Error: feed down")
}

func TestStdout_StatusLineIsBrokenBeforeMessages(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdoutTo(&buf, btc)
	ctx := context.Background()

	s.Status(ctx, models.Snapshot{CurrentPrice: 100})
	s.Status(ctx, models.Snapshot{CurrentPrice: 101})
	s.Trade(ctx, models.TradeEvent{Side: models.SideBuy, Price: 99, Amount: 1})

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "\rCurrent Price"))
	idx := strings.Index(out, "Bought")
	require.Positive(t, idx)
	assert.Equal(t, byte('\n'), out[idx-1], "trade must start on a fresh line")
}

func TestStdout_GridAndFinal(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdoutTo(&buf, btc)
	ctx := context.Background()

	s.GridReady(ctx, models.GridReport{BuyLevels: []float64{99}, SellLevels: []float64{101}, TrailStop: 97})
	s.Final(ctx, models.RunReport{State: models.StateFinished})

	out := buf.String()
	assert.Contains(t, out, "Grid Levels")
	assert.Contains(t, out, "Trailing Stop Price: 97.0000")
	assert.Contains(t, out, "Time limit reached")
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) GridReady(context.Context, models.GridReport) { r.add("grid") }
func (r *recorder) Trade(context.Context, models.TradeEvent)     { r.add("trade") }
func (r *recorder) Status(context.Context, models.Snapshot)      { r.add("status") }
func (r *recorder) Final(context.Context, models.RunReport)      { r.add("final") }

func TestFanout_SkipsNil(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	f := NewFanout(a, nil, b)
	require.Len(t, f, 2)

	ctx := context.Background()
	f.GridReady(ctx, models.GridReport{})
	f.Trade(ctx, models.TradeEvent{})
	f.Status(ctx, models.Snapshot{})
	f.Final(ctx, models.RunReport{})

	want := []string{"grid", "trade", "status", "final"}
	assert.Equal(t, want, a.events)
	assert.Equal(t, want, b.events)
}

type botStub struct {
	sent []string
}

func (b *botStub) Send(c tgbot.Chattable) (tgbot.Message, error) {
	if m, ok := c.(tgbot.MessageConfig); ok {
		b.sent = append(b.sent, m.Text)
	}
	return tgbot.Message{}, nil
}

func (b *botStub) GetUpdatesChan(tgbot.UpdateConfig) tgbot.UpdatesChannel {
	return make(chan tgbot.Update)
}

func (b *botStub) StopReceivingUpdates() {}

func TestTelegram_SkipsStatus(t *testing.T) {
	bot := &botStub{}
	tg := &Telegram{bot: bot, chatID: 1, asset: btc}
	ctx := context.Background()

	tg.Status(ctx, models.Snapshot{})
	tg.Trade(ctx, models.TradeEvent{Side: models.SideSell, Price: 101, Amount: 2})
	tg.Final(ctx, models.RunReport{State: models.StateStopped})

	require.Len(t, bot.sent, 2)
	assert.Equal(t, "🔴 Sold 2.0000 BTC at 101.0000 USDT", bot.sent[0])
	assert.Contains(t, bot.sent[1], "Bot stopped.")
}

func TestTelegram_NoChatIsNoop(t *testing.T) {
	bot := &botStub{}
	tg := &Telegram{bot: bot, asset: btc}
	tg.Trade(context.Background(), models.TradeEvent{})
	assert.Empty(t, bot.sent)
}
