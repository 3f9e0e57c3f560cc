package service

import (
	"testing"

	"intent-gateway/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestComputeFee(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		bps    int64
		want   int64
	}{
		{"one percent", 150000, 100, 1500},
		{"two and a half percent", 150000, 250, 3750},
		{"floors fractional sat", 99, 100, 0},
		{"floors just below one", 9999, 1, 0},
		{"exact boundary", 10000, 1, 1},
		{"zero rate", 150000, 0, 0},
		{"one sat fee", 101, 100, 1},
		{"large amount", 21_000_000_0000_0000, 100, 21_000_000_0000_00},
		// A naive amount*bps product would exceed int64 here.
		{"full supply at full rate", domain.MaxAmountSats, 10_000, domain.MaxAmountSats},
		{"full supply at one bp", domain.MaxAmountSats, 1, 210_000_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeFee(tt.amount, tt.bps))
		})
	}
}
