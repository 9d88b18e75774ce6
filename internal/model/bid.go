package model

import (
	"time"

	"auctionhouse/internal/money"
)

// ManualBid is one entry of an item's append-only bid ledger. Bids placed by the engine on
// behalf of a proxy bid are ledger entries too, flagged Automated.
type ManualBid struct {
	ID        string      `bson:"_id" json:"bid_id"`
	ItemID    string      `bson:"item_id" json:"item_id"`
	Bidder    string      `bson:"bidder" json:"bidder"`
	Amount    money.Money `bson:"amount" json:"amount"`
	Automated bool        `bson:"automated" json:"automated"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
}

// ProxyBid is a standing instruction to bid on Bidder's behalf up to MaxBid.
type ProxyBid struct {
	ID            string      `bson:"_id" json:"proxy_bid_id"`
	ItemID        string      `bson:"item_id" json:"item_id"`
	Bidder        string      `bson:"bidder" json:"bidder"`
	MaxBid        money.Money `bson:"max_bid" json:"max_bid"`
	Active        bool        `bson:"active" json:"active"`
	CreatedAt     time.Time   `bson:"created_at" json:"created_at"`
	DeactivatedAt *time.Time  `bson:"deactivated_at,omitempty" json:"deactivated_at,omitempty"`
}
