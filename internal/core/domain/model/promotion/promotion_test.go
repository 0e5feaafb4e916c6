package promotion_test

import (
	"testing"
	"time"

	"mrdinner/internal/core/domain/model/promotion"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCodes(t *testing.T) {
	assert.Equal(t, []string{"WELCOME", "VIP"}, promotion.NormalizeCodes([]string{" welcome", "VIP", "", "Welcome "}))
}

func TestCoupon_Rules(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	limit := int64(1)

	c := promotion.Coupon{Code: "SPRING", Active: true, Channel: "VOICE", ValidFrom: &yesterday, MaxRedemptionsPerUser: &limit}

	assert.True(t, c.IsValidAt(now))
	assert.False(t, c.IsValidAt(yesterday.Add(-time.Second)))
	assert.True(t, c.AllowsChannel("voice"))
	assert.False(t, c.AllowsChannel("GUI"))
	assert.True(t, c.HasRoom(promotion.Usage{Global: 100}))
	assert.False(t, c.HasRoom(promotion.Usage{PerCustomer: 1}))
	assert.Equal(t, "SPRING", c.DisplayLabel())

	c.Channel = promotion.ChannelAny
	assert.True(t, c.AllowsChannel("GUI"))
}
