package model

import (
	"time"

	"auctionhouse/internal/money"
)

type ItemStatus string

const (
	ItemLive   ItemStatus = "live"
	ItemSold   ItemStatus = "sold"
	ItemUnsold ItemStatus = "unsold"
)

type Item struct {
	ID            string      `bson:"_id" json:"item_id"`
	Title         string      `bson:"title" json:"title"`
	Description   string      `bson:"description" json:"description"`
	StartingPrice money.Money `bson:"starting_price" json:"starting_price"`
	CurrentPrice  money.Money `bson:"current_price" json:"current_price"`
	EndTime       time.Time   `bson:"end_time" json:"end_time"`
	Status        ItemStatus  `bson:"status" json:"status"`
	Winner        string      `bson:"winner,omitempty" json:"winner,omitempty"`
	CreatedAt     time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `bson:"updated_at" json:"-"`
}

// Closed reports whether the item has left the live state.
func (i Item) Closed() bool {
	return i.Status != ItemLive
}

// Settle moves a live item to its final state. Calling it on an item that is already sold or
// unsold changes nothing.
func (i *Item) Settle(highest *ManualBid, now time.Time) bool {
	if i.Closed() {
		return false
	}
	if highest != nil {
		i.Winner = highest.Bidder
		i.CurrentPrice = highest.Amount
		i.Status = ItemSold
	} else {
		i.Status = ItemUnsold
	}
	i.UpdatedAt = now
	return true
}
