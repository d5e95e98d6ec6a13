package model

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 16, 14, 30, 0, 0, time.UTC)

func item(q, min float64, exp *time.Time) Item {
	return Item{
		CurrentQuantity: decimal.NewFromFloat(q),
		MinimumQuantity: decimal.NewFromFloat(min),
		ExpirationDate:  exp,
	}
}

func daysFromNow(d int) *time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day()+d, 9, 0, 0, 0, time.UTC)
	return &t
}

func TestComputeStatus_Quantity(t *testing.T) {
	cases := []struct {
		name string
		q    float64
		min  float64
		want ItemStatus
	}{
		{"zero is out of stock", 0, 5, ItemStatusOutOfStock},
		{"negative is out of stock", -1, 5, ItemStatusOutOfStock},
		{"zero with zero minimum", 0, 0, ItemStatusOutOfStock},
		{"below minimum", 3, 5, ItemStatusLow},
		{"equal to minimum is low", 5, 5, ItemStatusLow},
		{"fraction above minimum", 5.001, 5, ItemStatusOK},
		{"above minimum", 10, 5, ItemStatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeStatus(item(tc.q, tc.min, nil), now))
		})
	}
}

func TestComputeStatus_Expiration(t *testing.T) {
	cases := []struct {
		name string
		days int
		want ItemStatus
	}{
		{"today", 0, ItemStatusExpiringSoon},
		{"tomorrow", 1, ItemStatusExpiringSoon},
		{"exactly 30 days", 30, ItemStatusExpiringSoon},
		{"31 days", 31, ItemStatusOK},
		// 期限切れでも数量が十分なら OK のまま
		{"expired yesterday", -1, ItemStatusOK},
		{"expired long ago", -90, ItemStatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeStatus(item(10, 5, daysFromNow(tc.days)), now))
		})
	}
}

func TestComputeStatus_QuantityWinsOverExpiration(t *testing.T) {
	assert.Equal(t, ItemStatusOutOfStock, ComputeStatus(item(0, 5, daysFromNow(3)), now))
	assert.Equal(t, ItemStatusLow, ComputeStatus(item(4, 5, daysFromNow(3)), now))
}

func TestDaysUntil_CalendarDays(t *testing.T) {
	lateNight := time.Date(2026, 10, 16, 23, 59, 0, 0, time.UTC)
	earlyMorning := time.Date(2026, 10, 17, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysUntil(earlyMorning, lateNight))
	assert.Equal(t, 0, DaysUntil(lateNight, now))
	assert.Equal(t, -1, DaysUntil(time.Date(2026, 10, 15, 23, 0, 0, 0, time.UTC), now))
}

func TestExpiringWindow(t *testing.T) {
	from, to := ExpiringWindow(now)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 11, 16, 0, 0, 0, 0, time.UTC), to)

	// 窓の中は EXPIRING_SOON、外は OK
	last := to.Add(-time.Second)
	assert.Equal(t, ItemStatusExpiringSoon, ComputeStatus(item(10, 5, &last), now))
	assert.Equal(t, ItemStatusOK, ComputeStatus(item(10, 5, &to), now))
}

func TestComputeStatus_DateOnlyExpirationAcrossZones(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	day := func(s string) *time.Time {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return &d
	}

	nows := map[string]time.Time{
		"new york morning": time.Date(2026, 10, 16, 10, 0, 0, 0, newYork),
		"new york evening": time.Date(2026, 10, 16, 22, 0, 0, 0, newYork),
		"tokyo morning":    time.Date(2026, 10, 16, 7, 0, 0, 0, tokyo),
		"utc":              time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	}
	for name, at := range nows {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 0, DaysUntil(*day("2026-10-16"), at))
			assert.Equal(t, ItemStatusExpiringSoon, ComputeStatus(item(10, 5, day("2026-10-16")), at))
			assert.Equal(t, ItemStatusExpiringSoon, ComputeStatus(item(10, 5, day("2026-11-15")), at))
			assert.Equal(t, ItemStatusOK, ComputeStatus(item(10, 5, day("2026-11-16")), at))
			assert.Equal(t, ItemStatusOK, ComputeStatus(item(10, 5, day("2026-10-15")), at))

			from, to := ExpiringWindow(at)
			assert.Equal(t, *day("2026-10-16"), from)
			assert.Equal(t, *day("2026-11-16"), to)
		})
	}
}

func TestParseEnums(t *testing.T) {
	st, ok := ParseItemStatus("LOW")
	assert.True(t, ok)
	assert.Equal(t, ItemStatusLow, st)
	_, ok = ParseItemStatus("low")
	assert.False(t, ok)

	tt, ok := ParseTransactionType("CONSUME")
	assert.True(t, ok)
	assert.Equal(t, TransactionConsume, tt)
	_, ok = ParseTransactionType("REMOVE")
	assert.False(t, ok)
}

func TestRuleEnables(t *testing.T) {
	r := NotificationRule{NotifyOnLowStock: true, NotifyOnOutOfStock: false, NotifyOnExpiringSoon: true}
	assert.True(t, r.Enables(NotificationLowStock))
	assert.False(t, r.Enables(NotificationOutOfStock))
	assert.True(t, r.Enables(NotificationExpiringSoon))
}
