package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"

	"grid_bot/internal/models"
	"grid_bot/pkg/logger"
)

const (
	maxBackoff   = 30 * time.Second
	writeTimeout = 5 * time.Second
)

// StateHook — куда отдаём состояние соединения (health).
type StateHook interface {
	SetWSConnected(v bool)
	TouchTick(t time.Time)
}

type Config struct {
	WSURL        string
	RestURL      string
	MaxRetries   int
	PingInterval time.Duration
	BaseBackoff  time.Duration // 0 => 1s
}

type Client struct {
	cfg      Config
	wsDialer *websocket.Dialer
	rest     *resty.Client
	hook     StateHook
}

func NewClient(cfg Config, hook StateHook) *Client {
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	return &Client{
		cfg:      cfg,
		wsDialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		rest: resty.New().
			SetBaseURL(cfg.RestURL).
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond),
		hook: hook,
	}
}

// StreamTicker стримит последнюю цену instId в out до отмены ctx (тогда nil)
// или до фатальной ошибки: битый фрейм сразу, обрыв связи после MaxRetries переподключений.
func (c *Client) StreamTicker(ctx context.Context, instID string, out chan<- models.Tick) error {
	attempt := 0
	for {
		received, err := c.session(ctx, instID, out)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, ErrMalformedFrame) {
			return err
		}
		if received {
			attempt = 0
		}

		attempt++
		if attempt > c.cfg.MaxRetries {
			return fmt.Errorf("%w after %d attempts: %v", ErrFeedExhausted, attempt, err)
		}

		wait := c.backoff(attempt)
		logger.Error("[WS] %s: %v, reconnect %d/%d in %s", instID, err, attempt, c.cfg.MaxRetries, wait)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.cfg.BaseBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

// session — одно соединение от dial до обрыва. received: пришёл хотя бы один тик.
func (c *Client) session(ctx context.Context, instID string, out chan<- models.Tick) (received bool, err error) {
	conn, _, err := c.wsDialer.DialContext(ctx, c.cfg.WSURL, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	logger.Info("[WS] connected %s, subscribe ticker %s", c.cfg.WSURL, instID)

	c.setConnected(true)
	defer c.setConnected(false)

	done := make(chan struct{})
	defer close(done)
	// ReadMessage не знает про ctx: закрываем соединение сами
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()

	sub, err := sonic.Marshal(subRequest{
		Op:   "subscribe",
		Args: []subArg{{InstType: instTypeSpot, Channel: channelTicker, InstID: instID}},
	})
	if err != nil {
		return false, fmt.Errorf("marshal subscribe: %w", err)
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}

	// keepalive: Bitget рвёт соединение без ping дольше 2 минут
	go func() {
		t := time.NewTicker(c.cfg.PingInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return received, fmt.Errorf("read: %w", err)
		}
		if string(msg) == "pong" {
			continue
		}

		ticks, err := decodeFrame(msg)
		if err != nil {
			return received, err
		}
		for _, t := range ticks {
			select {
			case out <- t:
				received = true
				if c.hook != nil {
					c.hook.TouchTick(t.Time)
				}
			case <-ctx.Done():
				return received, ctx.Err()
			}
		}
	}
}

func (c *Client) setConnected(v bool) {
	if c.hook != nil {
		c.hook.SetWSConnected(v)
	}
}

// decodeFrame: ack/служебные фреймы => nil, nil.
func decodeFrame(msg []byte) ([]models.Tick, error) {
	var f wsFrame
	if err := sonic.Unmarshal(msg, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch f.Event {
	case "error":
		return nil, fmt.Errorf("%w: code=%v msg=%s", ErrMalformedFrame, f.Code, f.Msg)
	case "":
	default:
		return nil, nil
	}
	if f.Arg.Channel != channelTicker || len(f.Data) == 0 {
		return nil, nil
	}

	ticks := make([]models.Tick, 0, len(f.Data))
	for _, row := range f.Data {
		price, err := strconv.ParseFloat(row.LastPr, 64)
		if err != nil || price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			return nil, fmt.Errorf("%w: lastPr=%q", ErrMalformedFrame, row.LastPr)
		}
		at := time.Now()
		if ms, err := strconv.ParseInt(row.Ts, 10, 64); err == nil && ms > 0 {
			at = time.UnixMilli(ms)
		}
		symbol := row.InstID
		if symbol == "" {
			symbol = f.Arg.InstID
		}
		ticks = append(ticks, models.Tick{Symbol: symbol, Price: price, Time: at})
	}
	return ticks, nil
}
