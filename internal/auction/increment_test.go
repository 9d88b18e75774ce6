package auction

import (
	"testing"

	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"auctionhouse/internal/model"
	"auctionhouse/internal/money"
)

func TestPercentIncrement(t *testing.T) {
	p := DefaultIncrement()
	item := model.Item{CurrentPrice: money.MustParse("1000")}

	tests := []struct {
		name   string
		latest string
		want   string
	}{
		{"no bid", "", "200.00"},
		{"floor", "1200", "200.00"},
		{"exactly at floor", "20000", "200.00"},
		{"percent", "30000", "300.00"},
		{"rounded to cents", "45678.90", "456.79"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var latest *model.ManualBid
			if tt.latest != "" {
				latest = &model.ManualBid{Amount: money.MustParse(tt.latest)}
			}
			check.Equal(t, tt.want, p.MinimumIncrement(item, latest).String())
		})
	}
}

func TestMinimumNextBid(t *testing.T) {
	item := model.Item{CurrentPrice: money.MustParse("1000")}
	check.Equal(t, "1200.00", MinimumNextBid(DefaultIncrement(), item, nil).String())
	check.Equal(t, "1050.00", MinimumNextBid(FixedIncrement{Step: money.New(50)}, item, nil).String())

	p := PercentIncrement{Rate: decimal.RequireFromString("0.05"), Floor: money.MustParse("0.01")}
	latest := &model.ManualBid{Amount: money.MustParse("10.20")}
	item.CurrentPrice = latest.Amount
	check.Equal(t, "10.71", MinimumNextBid(p, item, latest).String())
}

func TestIsOpen(t *testing.T) {
	i := model.Item{Status: model.ItemLive, EndTime: t0}
	check.True(t, IsOpen(i, t0.Add(-1)))
	check.False(t, IsOpen(i, t0))
	i.Status = model.ItemSold
	check.False(t, IsOpen(i, t0.Add(-1)))
}
