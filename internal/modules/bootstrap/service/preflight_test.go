package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errUnknown = errors.New("unknown symbol")

type checkerFunc func(ctx context.Context, instID string) (float64, error)

func (f checkerFunc) CheckSymbol(ctx context.Context, instID string) (float64, error) {
	return f(ctx, instID)
}

func TestPreflight(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"known", nil, false},
		{"unknown", fmt.Errorf("%w: NOPEUSDT", errUnknown), true},
		{"network", errors.New("dial tcp: i/o timeout"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPreflight(checkerFunc(func(ctx context.Context, instID string) (float64, error) {
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline)
				return 100, tt.err
			}), errUnknown)

			err := p.Run(context.Background(), "BTCUSDT")
			if tt.wantErr {
				assert.ErrorIs(t, err, errUnknown)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
