package notify

import (
	"fmt"
	"strings"
	"time"

	"grid_bot/internal/helper"
	"grid_bot/internal/models"
)

// FormatTrade — одна строка на сделку.
func FormatTrade(a Asset, t models.TradeEvent) string {
	verb := "Bought"
	if t.Side == models.SideSell {
		verb = "Sold"
	}
	line := fmt.Sprintf("%s %.4f %s at %.4f %s", verb, t.Amount, a.Base, t.Price, a.Quote)
	if t.Liquidation {
		line = fmt.Sprintf("Trailing Stop Triggered! %s", line)
	}
	return line
}

// FormatStatus — строка статуса, перерисовывается на каждом тике.
func FormatStatus(a Asset, s models.Snapshot) string {
	return fmt.Sprintf("Current Price: %.4f %s | Wallet: [%s: %.3f, %s: %.3f] | Buy/Sell: %d/%d | PnL: %.4f %s",
		s.CurrentPrice, a.Quote,
		a.Quote, s.Quote, a.Base, s.Coin,
		s.BuyCount, s.SellCount,
		s.PnL, a.Quote,
	)
}

// FormatGridRows — пары "buy | sell" построчно, по 4 знака.
func FormatGridRows(g models.GridReport) []string {
	n := max(len(g.BuyLevels), len(g.SellLevels))
	rows := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var buy, sell string
		if i < len(g.BuyLevels) {
			buy = helper.FormatFixed(g.BuyLevels[i], 4)
		}
		if i < len(g.SellLevels) {
			sell = helper.FormatFixed(g.SellLevels[i], 4)
		}
		rows = append(rows, fmt.Sprintf("%-15s | %-15s", buy, sell))
	}
	return rows
}

func FormatGrid(g models.GridReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-15s | %-15s\n", "Buy Levels", "Sell Levels")
	b.WriteString(strings.Repeat("-", 33))
	b.WriteString("\n")
	for _, row := range FormatGridRows(g) {
		b.WriteString(row)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Trailing Stop Price: %s", helper.FormatFixed(g.TrailStop, 4))
	return b.String()
}

func finalTitle(r models.RunReport) string {
	switch r.State {
	case models.StateFinished:
		return "Time limit reached. Bot stopped."
	case models.StateStopped:
		return "Bot stopped."
	case models.StateFailed:
		return "Bot stopped on error."
	default:
		return "Bot state: " + string(r.State)
	}
}

// FormatFinal — итоговый отчёт прогона.
func FormatFinal(a Asset, r models.RunReport) string {
	s := r.Snapshot
	var b strings.Builder
	b.WriteString(finalTitle(r))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Run: %s (%s)\n", r.RunID, r.Symbol)
	fmt.Fprintf(&b, "Elapsed: %s\n", r.Elapsed().Round(time.Second))
	fmt.Fprintf(&b, "Last Price: %.4f %s\n", s.CurrentPrice, a.Quote)
	fmt.Fprintf(&b, "Wallet: %s %.3f, %s %.3f\n", a.Quote, s.Quote, a.Base, s.Coin)
	fmt.Fprintf(&b, "Buy/Sell: %d/%d\n", s.BuyCount, s.SellCount)
	fmt.Fprintf(&b, "PnL: %.4f %s", s.PnL, a.Quote)
	if r.Err != "" {
		fmt.Fprintf(&b, "\nError: %s", r.Err)
	}
	return b.String()
}
