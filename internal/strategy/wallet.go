package strategy

import "errors"

// ErrInsufficientBalance — операция увела бы баланс в минус.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Wallet — бумажный кошелёк: quote и монета. Меняется только движком.
type Wallet struct {
	quote float64
	coin  float64
}

func NewWallet(quote, coin float64) Wallet {
	return Wallet{quote: quote, coin: coin}
}

func (w Wallet) Quote() float64 { return w.quote }
func (w Wallet) Coin() float64  { return w.coin }

// Value — стоимость кошелька в quote по цене price.
func (w Wallet) Value(price float64) float64 {
	return w.quote + w.coin*price
}

// apply применяет обе дельты целиком или не применяет ничего.
func (w *Wallet) apply(dQuote, dCoin float64) error {
	q := w.quote + dQuote
	c := w.coin + dCoin
	if q < 0 || c < 0 || !finite(q) || !finite(c) {
		return ErrInsufficientBalance
	}
	w.quote, w.coin = q, c
	return nil
}
