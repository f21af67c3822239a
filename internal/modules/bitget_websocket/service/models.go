package service

import "errors"

var (
	// ErrMalformedFrame — биржа прислала мусор или event:error. Ретраить бессмысленно.
	ErrMalformedFrame = errors.New("malformed ticker frame")
	// ErrFeedExhausted — кончились попытки переподключения.
	ErrFeedExhausted = errors.New("feed reconnect attempts exhausted")
	// ErrUnknownSymbol — биржа не знает такой instId.
	ErrUnknownSymbol = errors.New("unknown symbol")
)

const (
	instTypeSpot  = "SPOT"
	channelTicker = "ticker"
	successCode   = "00000"
)

type subArg struct {
	InstType string `json:"instType"`
	Channel  string `json:"channel"`
	InstID   string `json:"instId"`
}

type subRequest struct {
	Op   string   `json:"op"`
	Args []subArg `json:"args"`
}

// wsFrame — любой текстовый фрейм публичного канала v2.
type wsFrame struct {
	Event  string      `json:"event"`
	Code   any         `json:"code"`
	Msg    string      `json:"msg"`
	Action string      `json:"action"`
	Arg    subArg      `json:"arg"`
	Data   []tickerRow `json:"data"`
}

type tickerRow struct {
	InstID string `json:"instId"`
	LastPr string `json:"lastPr"`
	Ts     string `json:"ts"`
}

// restTickers — ответ /api/v2/spot/market/tickers.
type restTickers struct {
	Code string      `json:"code"`
	Msg  string      `json:"msg"`
	Data []tickerRow `json:"data"`
}
