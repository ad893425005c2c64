package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

func TestEstimateTransitCost_Tariff(t *testing.T) {
	tests := []struct {
		name   string
		mode   domain.TransportMode
		meters float64
		want   string
	}{
		{"walking is free", domain.ModeWalking, 3000, "0"},
		{"cycling flat fare", domain.ModeCycling, 12000, "1.5"},
		{"transit base", domain.ModeTransit, 4000, "2"},
		{"transit one step", domain.ModeTransit, 5100, "3"},
		{"transit two steps", domain.ModeTransit, 14000, "4"},
		{"driving per km", domain.ModeDriving, 10000, "8"},
		{"taxi base", domain.ModeTaxi, 2000, "13"},
		{"taxi beyond base", domain.ModeTaxi, 5000, "17.6"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.EstimateTransitCost(tc.mode, tc.meters, "CNY")
			assert.True(t, got.Equal(domain.MustMoney(tc.want, "CNY")), "got %s", got)
		})
	}
}

func TestEstimateTransitCost_ZeroDistance(t *testing.T) {
	got := domain.EstimateTransitCost(domain.ModeTaxi, 0, "")
	assert.True(t, got.IsZero())
	assert.Equal(t, domain.DefaultCurrency, got.Currency())
}

func TestEstimateTransitCost_MonotonicInDistance(t *testing.T) {
	modes := []domain.TransportMode{domain.ModeWalking, domain.ModeCycling, domain.ModeTransit, domain.ModeDriving, domain.ModeTaxi}
	for _, mode := range modes {
		prev := domain.EstimateTransitCost(mode, 1, "CNY")
		for m := 250.0; m <= 40000; m += 250 {
			cur := domain.EstimateTransitCost(mode, m, "CNY")
			assert.False(t, prev.Amount().GreaterThan(cur.Amount()), "%s at %vm", mode, m)
			prev = cur
		}
	}
}

func TestNewRouteInfo_RejectsNegative(t *testing.T) {
	_, err := domain.NewRouteInfo(-1, 10, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
