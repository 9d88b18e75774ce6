package model

import (
	"time"

	"auctionhouse/internal/money"
)

type EventType string

const (
	EventBidPlaced  EventType = "bid.placed"
	EventItemSold   EventType = "item.sold"
	EventItemUnsold EventType = "item.unsold"
)

// AuctionEvent is published after a transaction that changed an item commits.
type AuctionEvent struct {
	ID            string      `json:"event_id"`
	Type          EventType   `json:"type"`
	ItemID        string      `json:"item_id"`
	Bidder        string      `json:"bidder,omitempty"`
	Amount        money.Money `json:"amount"`
	PreviousPrice money.Money `json:"previous_price"`
	Automated     bool        `json:"automated,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}
