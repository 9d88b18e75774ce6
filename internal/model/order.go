package model

import (
	"time"

	"auctionhouse/internal/money"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCanceled  OrderStatus = "canceled"
)

type Order struct {
	ID              string      `bson:"_id" json:"order_id"`
	User            string      `bson:"user" json:"user"`
	ItemID          string      `bson:"item_id" json:"item_id"`
	Amount          money.Money `bson:"amount" json:"amount"`
	Status          OrderStatus `bson:"status" json:"status"`
	PaymentIntentID string      `bson:"payment_intent_id,omitempty" json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `bson:"updated_at" json:"-"`
}
