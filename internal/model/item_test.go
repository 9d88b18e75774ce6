package model

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/check"

	"auctionhouse/internal/money"
)

func TestItemSettle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("highest bid wins", func(t *testing.T) {
		i := Item{ID: "i1", StartingPrice: money.New(1000), CurrentPrice: money.New(1400), Status: ItemLive}
		changed := i.Settle(&ManualBid{Bidder: "alice", Amount: money.New(1400)}, now)

		check.True(t, changed)
		check.Equal(t, ItemSold, i.Status)
		check.Equal(t, "alice", i.Winner)
		check.Equal(t, "1400.00", i.CurrentPrice.String())
		check.Equal(t, now, i.UpdatedAt)
	})

	t.Run("no bids leaves item unsold", func(t *testing.T) {
		i := Item{ID: "i2", StartingPrice: money.New(1000), CurrentPrice: money.New(1000), Status: ItemLive}
		check.True(t, i.Settle(nil, now))
		check.Equal(t, ItemUnsold, i.Status)
		check.Equal(t, "", i.Winner)
	})

	t.Run("settled item does not change", func(t *testing.T) {
		i := Item{ID: "i3", Status: ItemUnsold}
		check.False(t, i.Settle(&ManualBid{Bidder: "bob", Amount: money.New(5)}, now))
		check.Equal(t, ItemUnsold, i.Status)
		check.Equal(t, "", i.Winner)
	})
}
