package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"grid_bot/internal/models"
)

type styles struct {
	box, title, buy, sell, err lipgloss.Style
}

// цвета зависят от writer'а: в файл или пайп escape-коды не пишутся
func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		box: r.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")),
		buy:  r.NewStyle().Foreground(lipgloss.Color("42")),
		sell: r.NewStyle().Foreground(lipgloss.Color("220")),
		err:  r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// Stdout — консольный вывод: сетка и итог в рамке, статус одной перерисовываемой строкой.
type Stdout struct {
	asset Asset
	st    styles

	mu       sync.Mutex
	w        io.Writer
	inStatus bool // курсор стоит на строке статуса
}

func NewStdout(asset Asset) *Stdout { return NewStdoutTo(os.Stdout, asset) }

func NewStdoutTo(w io.Writer, asset Asset) *Stdout {
	return &Stdout{w: w, asset: asset, st: newStyles(lipgloss.NewRenderer(w))}
}

func (s *Stdout) GridReady(_ context.Context, g models.GridReport) {
	body := lipgloss.JoinVertical(lipgloss.Left, s.st.title.Render("Grid Levels"), FormatGrid(g))
	s.println(s.st.box.Render(body))
}

func (s *Stdout) Trade(_ context.Context, t models.TradeEvent) {
	style := s.st.buy
	if t.Side == models.SideSell {
		style = s.st.sell
	}
	if t.Liquidation {
		style = s.st.err
	}
	s.println(style.Render(FormatTrade(s.asset, t)))
}

func (s *Stdout) Status(_ context.Context, snap models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.w, "\r%s", FormatStatus(s.asset, snap))
	s.inStatus = true
}

func (s *Stdout) Final(_ context.Context, r models.RunReport) {
	body := FormatFinal(s.asset, r)
	if r.State == models.StateFailed {
		body = s.st.err.Render(body)
	}
	s.println(s.st.box.Render(body))
}

func (s *Stdout) println(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inStatus {
		_, _ = fmt.Fprintln(s.w)
		s.inStatus = false
	}
	_, _ = fmt.Fprintln(s.w, text)
}
