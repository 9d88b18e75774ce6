package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/pkg/errors"

	"auctionhouse/internal/model"
	"auctionhouse/internal/money"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs []published
	err  error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, published{subject, data})
	return nil
}

func TestPublish(t *testing.T) {
	c := &fakeConn{}
	n := NATS{Conn: c}
	ev := model.AuctionEvent{
		ID:            "ev-1",
		Type:          model.EventBidPlaced,
		ItemID:        "item-1",
		Bidder:        "alice",
		Amount:        money.MustParse("1400"),
		PreviousPrice: money.MustParse("1200"),
		Automated:     true,
		Timestamp:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	assert.NoError(t, n.Publish(context.Background(), ev))
	assert.Equal(t, 1, len(c.msgs))
	check.Equal(t, "auction.events.item-1", c.msgs[0].subject)

	var got map[string]any
	assert.NoError(t, json.Unmarshal(c.msgs[0].data, &got))
	check.Equal(t, "bid.placed", got["type"])
	check.Equal(t, "1400.00", got["amount"])
	check.Equal(t, "1200.00", got["previous_price"])
	check.Equal(t, true, got["automated"])
}

func TestPublishError(t *testing.T) {
	boom := errors.New("connection closed")
	n := NATS{Conn: &fakeConn{err: boom}}
	err := n.Publish(context.Background(), model.AuctionEvent{ItemID: "item-1", Type: model.EventItemSold})
	check.True(t, errors.Is(err, boom))
}
