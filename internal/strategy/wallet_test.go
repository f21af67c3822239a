package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWallet_Apply(t *testing.T) {
	w := NewWallet(100, 1)

	assert.NoError(t, w.apply(-50, 0.5))
	assert.Equal(t, 50.0, w.Quote())
	assert.Equal(t, 1.5, w.Coin())

	assert.ErrorIs(t, w.apply(-51, 1), ErrInsufficientBalance)
	assert.ErrorIs(t, w.apply(10, -2), ErrInsufficientBalance)
	assert.ErrorIs(t, w.apply(math.Inf(1), 0), ErrInsufficientBalance)

	// неудачная операция ничего не меняет
	assert.Equal(t, 50.0, w.Quote())
	assert.Equal(t, 1.5, w.Coin())
}

func TestWallet_Value(t *testing.T) {
	w := NewWallet(10, 2)
	assert.Equal(t, 30.0, w.Value(10))
}
