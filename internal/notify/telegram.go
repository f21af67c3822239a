package notify

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grid_bot/internal/models"
	"grid_bot/pkg/logger"
)

// sender — часть BotAPI, которой мы пользуемся.
type sender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

// Telegram — пассивный нотифайер + команда /status.
// Статус-тики в чат не шлём: только сетку, сделки и итог.
type Telegram struct {
	bot    sender
	chatID int64
	asset  Asset
}

func NewTelegram(token string, chatID int64, asset Asset) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID, asset: asset}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		logger.Error("[TG] send: %v", err)
	}
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

func (t *Telegram) GridReady(_ context.Context, g models.GridReport) {
	t.Sendf("📐 Сетка %s построена от %.4f\n\n%s", g.Symbol, g.Reference, FormatGrid(g))
}

func (t *Telegram) Trade(_ context.Context, ev models.TradeEvent) {
	emoji := "🟢"
	if ev.Side == models.SideSell {
		emoji = "🔴"
	}
	if ev.Liquidation {
		emoji = "🛑"
	}
	t.Sendf("%s %s", emoji, FormatTrade(t.asset, ev))
}

func (t *Telegram) Status(context.Context, models.Snapshot) {}

func (t *Telegram) Final(_ context.Context, r models.RunReport) {
	emoji := "🏁"
	if r.State == models.StateFailed {
		emoji = "❌"
	}
	t.Sendf("%s %s", emoji, FormatFinal(t.asset, r))
}

// Start: long-polling, отвечает на /status текущим снапшотом.
func (t *Telegram) Start(ctx context.Context, status func() models.Snapshot) {
	if t == nil || t.bot == nil {
		return
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		defer t.bot.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				if upd.Message == nil || upd.Message.Chat == nil ||
					upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
					continue
				}
				switch upd.Message.Command() {
				case "status":
					t.Send("📊 " + FormatStatus(t.asset, status()))
				}
			}
		}
	}()
}
