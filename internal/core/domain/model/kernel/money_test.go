package kernel_test

import (
	"testing"

	"mrdinner/internal/core/domain/model/kernel"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"3300", 3300},
		{"3299.5", 3300},
		{"3299.49", 3299},
		{"0.5", 1},
		{"49500.000", 49500},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, kernel.RoundCents(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestHasQuantityScale(t *testing.T) {
	assert.True(t, kernel.HasQuantityScale(decimal.RequireFromString("1.00")))
	assert.True(t, kernel.HasQuantityScale(decimal.RequireFromString("2.5")))
	assert.False(t, kernel.HasQuantityScale(decimal.RequireFromString("0.125")))
}
