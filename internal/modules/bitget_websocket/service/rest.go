package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

const tickersPath = "/api/v2/spot/market/tickers"

// CheckSymbol — предполётная проверка: instId торгуется на споте.
// Возвращает последнюю цену. Сетевые ошибки не оборачиваются в ErrUnknownSymbol.
func (c *Client) CheckSymbol(ctx context.Context, instID string) (float64, error) {
	res, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("symbol", instID).
		Get(tickersPath)
	if err != nil {
		return 0, errors.Wrap(err, "bitget tickers")
	}
	if res.StatusCode() >= http.StatusInternalServerError {
		return 0, fmt.Errorf("bitget tickers: http %d", res.StatusCode())
	}

	var body restTickers
	if err := sonic.Unmarshal(res.Body(), &body); err != nil {
		return 0, errors.Wrapf(err, "bitget tickers: http %d", res.StatusCode())
	}
	if body.Code != successCode || len(body.Data) == 0 {
		return 0, fmt.Errorf("%w: %s (%s %s)", ErrUnknownSymbol, instID, body.Code, body.Msg)
	}

	price, err := strconv.ParseFloat(body.Data[0].LastPr, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: lastPr=%q", ErrMalformedFrame, body.Data[0].LastPr)
	}
	return price, nil
}
