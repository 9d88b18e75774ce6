package auction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"auctionhouse/internal/misc"
	"auctionhouse/internal/model"
	"auctionhouse/internal/money"
)

const notifyTimeout = 10 * time.Second

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// Notifier delivers a message to a user. Delivery is best effort.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// EventPublisher receives every committed change to an item.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.AuctionEvent) error
}

type PaymentOutcome string

const (
	PaymentSucceeded PaymentOutcome = "succeeded"
	PaymentFailed    PaymentOutcome = "failed"
)

type IntentHandle struct {
	ID           string      `json:"payment_intent_id"`
	ClientSecret string      `json:"client_secret,omitempty"`
	Amount       money.Money `json:"amount"`
}

type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount money.Money, orderID string) (IntentHandle, error)
	Confirm(ctx context.Context, intentID string) (PaymentOutcome, error)
}

func bidEvent(b model.ManualBid, previous money.Money) model.AuctionEvent {
	return model.AuctionEvent{
		ID:            uuid.NewString(),
		Type:          model.EventBidPlaced,
		ItemID:        b.ItemID,
		Bidder:        b.Bidder,
		Amount:        b.Amount,
		PreviousPrice: previous,
		Automated:     b.Automated,
		Timestamp:     b.CreatedAt,
	}
}

func settleEvent(i model.Item) model.AuctionEvent {
	ev := model.AuctionEvent{
		ID:            uuid.NewString(),
		Type:          model.EventItemUnsold,
		ItemID:        i.ID,
		Amount:        i.CurrentPrice,
		PreviousPrice: i.CurrentPrice,
		Timestamp:     i.UpdatedAt,
	}
	if i.Status == model.ItemSold {
		ev.Type = model.EventItemSold
		ev.Bidder = i.Winner
	}
	return ev
}

func (e Engine) publish(ctx context.Context, evs ...model.AuctionEvent) {
	if e.Events == nil {
		return
	}
	for _, ev := range evs {
		if err := e.Events.Publish(ctx, ev); err != nil {
			e.log().Errorf("publish: Error publishing %s event for Item %s, err: %v", ev.Type, ev.ItemID, err)
		}
	}
}

func (e Engine) notify(ctx context.Context, recipient, subject, body string) {
	if e.Notifier == nil || recipient == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := e.Notifier.Send(ctx, recipient, subject, body); err != nil {
		e.log().Errorf("notify: Error sending %q to %s, err: %v", subject, recipient, err)
	}
}

func (e Engine) notifyOutbid(ctx context.Context, item model.Item, recipients []string) {
	title := misc.StringLimit(item.Title, 45)
	for _, r := range recipients {
		e.notify(ctx, r, "You have been outbid",
			fmt.Sprintf("%s is now at %s", title, item.CurrentPrice))
	}
}

func (e Engine) notifyWinner(ctx context.Context, item model.Item) {
	if item.Status != model.ItemSold {
		return
	}
	e.notify(ctx, item.Winner, "You won an auction!",
		fmt.Sprintf("%s is yours for %s, proceed to checkout", misc.StringLimit(item.Title, 45), item.CurrentPrice))
}

func (e Engine) log() logger {
	if e.Logger == nil {
		return nopLogger{}
	}
	return e.Logger
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
