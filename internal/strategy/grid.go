package strategy

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"grid_bot/internal/helper"
	"grid_bot/internal/models"
)

// levelPlaces — точность уровней сетки.
const levelPlaces = 4

// Option настраивает движок (часы, генератор id) — в основном для тестов.
type Option func(*Engine)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator подменяет генератор id сделок.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// Engine — сеточная бумажная стратегия на одном символе.
// Не потокобезопасен: тики подаются строго последовательно одним потребителем.
type Engine struct {
	cfg   GridConfig
	now   func() time.Time
	newID func() string

	wallet       Wallet
	currentPrice float64
	lastTick     time.Time

	buyLevels         []float64 // по убыванию
	sellLevels        []float64 // по возрастанию
	levelsInitialized bool

	// трейлинг-стоп ставится один раз от опорной цены и не подтягивается
	trailStop  float64
	trailArmed bool

	buyCount  int
	sellCount int

	startTime time.Time
	state     models.RunState
	err       error
}

// NewEngine валидирует конфиг и фиксирует время старта прогона.
func NewEngine(cfg GridConfig, opts ...Option) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:          cfg,
		now:          time.Now,
		newID:        uuid.NewString,
		wallet:       NewWallet(cfg.InitialQuote, cfg.InitialCoin),
		currentPrice: cfg.InitialPrice,
		state:        models.StateRunning,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.startTime = e.now()
	e.lastTick = e.startTime
	return e, nil
}

// OnPriceUpdate — точка входа на каждый тик.
func (e *Engine) OnPriceUpdate(t models.Tick) (Update, error) {
	if e.state.Terminal() {
		return Update{Snapshot: e.Snapshot(), Done: true}, ErrNotRunning
	}
	if !finite(t.Price) || t.Price <= 0 {
		err := fmt.Errorf("%w: %v", ErrInvalidPrice, t.Price)
		e.Fail(err)
		return Update{Snapshot: e.Snapshot(), Done: true}, err
	}

	at := t.Time
	if at.IsZero() {
		at = e.now()
	}
	e.currentPrice = t.Price
	e.lastTick = at

	var upd Update
	// сетка — снимок первой цены, дальше не пересчитывается
	if !e.levelsInitialized {
		g := e.initializeLevels(t.Price)
		e.levelsInitialized = true
		upd.Grid = &g
	}

	upd.Trades = e.evaluateGrid(at)

	e.CheckDeadline(e.now())

	upd.Snapshot = e.Snapshot()
	upd.Done = e.state.Terminal()
	return upd, nil
}

func (e *Engine) initializeLevels(ref float64) models.GridReport {
	dist := ref * e.cfg.PriceChangeFraction

	e.buyLevels = make([]float64, 0, e.cfg.GridSteps)
	e.sellLevels = make([]float64, 0, e.cfg.GridSteps)
	for k := 1; k <= e.cfg.GridSteps; k++ {
		e.buyLevels = append(e.buyLevels, helper.RoundTo(ref-float64(k)*dist, levelPlaces))
		e.sellLevels = append(e.sellLevels, helper.RoundTo(ref+float64(k)*dist, levelPlaces))
	}

	if !e.trailArmed {
		e.trailStop = ref * (1 - e.cfg.TrailingStopFraction)
		e.trailArmed = true
	}

	return models.GridReport{
		Symbol:     e.cfg.Symbol,
		Reference:  ref,
		BuyLevels:  slices.Clone(e.buyLevels),
		SellLevels: slices.Clone(e.sellLevels),
		TrailStop:  e.trailStop,
	}
}

// evaluateGrid: максимум одна покупка и одна продажа за тик, уровень сгорает
// даже если сделка вышла пустой. Трейлинг-стоп проверяется независимо.
func (e *Engine) evaluateGrid(at time.Time) []models.TradeEvent {
	var trades []models.TradeEvent

	for i, level := range e.buyLevels {
		if e.currentPrice <= level {
			if ev, ok := e.buy(level, at); ok {
				trades = append(trades, ev)
			}
			e.buyLevels = slices.Delete(e.buyLevels, i, i+1)
			break
		}
	}

	for i, level := range e.sellLevels {
		if e.currentPrice >= level {
			if ev, ok := e.sell(level, false, at); ok {
				trades = append(trades, ev)
			}
			e.sellLevels = slices.Delete(e.sellLevels, i, i+1)
			break
		}
	}

	if e.trailArmed && e.currentPrice <= e.trailStop {
		if ev, ok := e.sell(e.currentPrice, true, at); ok {
			trades = append(trades, ev)
		}
		e.trailArmed = false
		e.trailStop = 0
	}

	return trades
}

func (e *Engine) buy(price float64, at time.Time) (models.TradeEvent, bool) {
	spend := e.wallet.Quote() * e.cfg.TradeFraction
	if spend <= 0 {
		return models.TradeEvent{}, false
	}
	coins := spend / price
	if err := e.wallet.apply(-spend, coins); err != nil {
		return models.TradeEvent{}, false
	}
	e.buyCount++

	return models.TradeEvent{
		ID:     e.newID(),
		Symbol: e.cfg.Symbol,
		Side:   models.SideBuy,
		Price:  price,
		Amount: coins,
		Value:  spend,
		Level:  price,
		Time:   at,
	}, true
}

func (e *Engine) sell(price float64, liquidation bool, at time.Time) (models.TradeEvent, bool) {
	amount := e.wallet.Coin() * e.cfg.TradeFraction
	if liquidation {
		amount = e.wallet.Coin()
	}
	if amount <= 0 {
		return models.TradeEvent{}, false
	}
	proceeds := amount * price
	if err := e.wallet.apply(proceeds, -amount); err != nil {
		return models.TradeEvent{}, false
	}
	e.sellCount++

	ev := models.TradeEvent{
		ID:          e.newID(),
		Symbol:      e.cfg.Symbol,
		Side:        models.SideSell,
		Price:       price,
		Amount:      amount,
		Value:       proceeds,
		Liquidation: liquidation,
		Time:        at,
	}
	if !liquidation {
		ev.Level = price
	}
	return ev, true
}

// CalculatePnL — стоимость кошелька по текущей цене минус стартовый quote.
// Стоимость стартовых монет не вычитается.
func (e *Engine) CalculatePnL() float64 {
	return e.wallet.Value(e.currentPrice) - e.cfg.InitialQuote
}

// Snapshot — копия состояния для отчётов.
func (e *Engine) Snapshot() models.Snapshot {
	return models.Snapshot{
		Symbol:       e.cfg.Symbol,
		CurrentPrice: e.currentPrice,
		Quote:        e.wallet.Quote(),
		Coin:         e.wallet.Coin(),
		BuyCount:     e.buyCount,
		SellCount:    e.sellCount,
		PnL:          e.CalculatePnL(),
		TrailStop:    e.trailStop,
		TrailArmed:   e.trailArmed,
		State:        e.state,
		Time:         e.lastTick,
	}
}

// CheckDeadline переводит движок в Finished, если время прогона вышло.
// Runner дёргает его и по таймеру, когда тиков нет.
func (e *Engine) CheckDeadline(now time.Time) bool {
	if e.state != models.StateRunning {
		return e.state.Terminal()
	}
	if now.Sub(e.startTime) >= e.cfg.Duration {
		e.state = models.StateFinished
	}
	return e.state.Terminal()
}

// Stop — принудительная остановка снаружи.
func (e *Engine) Stop() {
	if e.state == models.StateRunning {
		e.state = models.StateStopped
	}
}

// Fail — фатальная ошибка фида. Последний снапшот сохраняется.
func (e *Engine) Fail(err error) {
	if e.state != models.StateRunning {
		return
	}
	e.state = models.StateFailed
	e.err = err
}

func (e *Engine) State() models.RunState { return e.state }
func (e *Engine) Done() bool             { return e.state.Terminal() }
func (e *Engine) Err() error             { return e.err }
func (e *Engine) Config() GridConfig     { return e.cfg }
func (e *Engine) StartTime() time.Time   { return e.startTime }
func (e *Engine) Wallet() Wallet         { return e.wallet }
func (e *Engine) BuyCount() int          { return e.buyCount }
func (e *Engine) SellCount() int         { return e.sellCount }
func (e *Engine) CurrentPrice() float64  { return e.currentPrice }

// Deadline — момент, когда прогон должен завершиться.
func (e *Engine) Deadline() time.Time { return e.startTime.Add(e.cfg.Duration) }

// TrailStop возвращает цену стопа и false, если стоп снят или ещё не выставлен.
func (e *Engine) TrailStop() (float64, bool) { return e.trailStop, e.trailArmed }

func (e *Engine) BuyLevels() []float64  { return slices.Clone(e.buyLevels) }
func (e *Engine) SellLevels() []float64 { return slices.Clone(e.sellLevels) }

func (e *Engine) LevelsInitialized() bool { return e.levelsInitialized }
