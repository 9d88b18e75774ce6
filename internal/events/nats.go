// Package events publishes committed auction changes to NATS.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"auctionhouse/internal/model"
)

const SubjectPrefix = "auction.events."

type conn interface {
	Publish(subject string, data []byte) error
}

// NATS publishes each event as JSON on SubjectPrefix + item id, so subscribers can follow a
// single item or use a wildcard for all of them.
type NATS struct {
	Conn conn
}

func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("auctionhouse"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	return nc, errors.Wrapf(err, "error connecting to NATS at: %s", url)
}

func Subject(itemID string) string {
	return SubjectPrefix + itemID
}

func (n NATS) Publish(_ context.Context, ev model.AuctionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrapf(err, "Publish: error marshalling %s event for Item %s", ev.Type, ev.ItemID)
	}
	return errors.Wrapf(n.Conn.Publish(Subject(ev.ItemID), data),
		"Publish: error publishing %s event for Item %s", ev.Type, ev.ItemID)
}
