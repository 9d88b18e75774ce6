// Package auction holds the bidding core: the bid ledger, standing proxy bids, the escalation
// procedure that raises proxy bids against each other and end-of-auction settlement.
package auction

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"auctionhouse/internal/database"
	"auctionhouse/internal/model"
	"auctionhouse/internal/money"
)

// Engine is the single writer of item price, status and winner. Every mutation of an item runs
// inside Store.WithItemTx so writes to one item are serialized; different items never block
// each other. Events and notifications go out only after the transaction commits.
type Engine struct {
	Store     Store
	Clock     Clock
	Increment IncrementPolicy
	Logger    logger
	Events    EventPublisher
	Notifier  Notifier
	Payments  PaymentProvider
}

type NewItem struct {
	ID            string      `json:"item_id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	StartingPrice money.Money `json:"starting_price"`
	EndTime       time.Time   `json:"end_time"`
}

type ItemView struct {
	model.Item
	HighestBid     *model.ManualBid `json:"highest_bid,omitempty"`
	MinimumNextBid money.Money      `json:"minimum_next_bid"`
}

type BidOutcome struct {
	Bid       model.ManualBid   `json:"bid"`
	Automated []model.ManualBid `json:"automated_bids"`
	Item      model.Item        `json:"item"`
}

type ProxyOutcome struct {
	ProxyBid  model.ProxyBid    `json:"proxy_bid"`
	Automated []model.ManualBid `json:"automated_bids"`
	Item      model.Item        `json:"item"`
}

type escalation struct {
	bids        []model.ManualBid
	deactivated []model.ProxyBid
	events      []model.AuctionEvent
}

func (e Engine) now() time.Time {
	if e.Clock == nil {
		return SystemClock{}.Now()
	}
	return e.Clock.Now()
}

func (e Engine) increment() IncrementPolicy {
	if e.Increment == nil {
		return DefaultIncrement()
	}
	return e.Increment
}

func (e Engine) ledger() Ledger {
	return Ledger{Store: e.Store}
}

func (e Engine) registry() Registry {
	return Registry{Store: e.Store}
}

func (e Engine) loadItem(ctx context.Context, itemID string) (model.Item, error) {
	i, err := e.Store.ItemFindOne(ctx, itemID)
	if errors.Is(err, database.ErrNotFound) {
		return model.Item{}, errors.Wrapf(ErrItemNotFound, "Item with ID: %s", itemID)
	}
	return i, err
}

func (e Engine) CreateItem(ctx context.Context, ni NewItem) (model.Item, error) {
	now := e.now()
	ni.Title = strings.TrimSpace(ni.Title)
	switch {
	case ni.Title == "":
		return model.Item{}, errors.Wrap(ErrInvalidItem, "title is required")
	case !ni.StartingPrice.IsPositive():
		return model.Item{}, errors.Wrapf(ErrInvalidItem, "starting price must be positive, got: %s", ni.StartingPrice)
	case !ni.EndTime.After(now):
		return model.Item{}, errors.Wrapf(ErrInvalidItem, "end time %s is not in the future", ni.EndTime.Format(time.RFC3339))
	}

	i := model.Item{
		ID:            ni.ID,
		Title:         ni.Title,
		Description:   ni.Description,
		StartingPrice: ni.StartingPrice,
		CurrentPrice:  ni.StartingPrice,
		EndTime:       ni.EndTime.UTC(),
		Status:        model.ItemLive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if err := e.Store.ItemInsert(ctx, i); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return model.Item{}, errors.Wrapf(ErrInvalidItem, "Item with ID: %s already exists", i.ID)
		}
		return model.Item{}, err
	}
	e.log().Infof("CreateItem: Created Item: %s, ID: %s, ends at: %s", i.Title, i.ID, i.EndTime.Format(time.RFC3339))
	return i, nil
}

func (e Engine) GetItem(ctx context.Context, itemID string) (ItemView, error) {
	i, err := e.settleIfDue(ctx, itemID)
	if err != nil {
		return ItemView{}, err
	}
	return e.view(ctx, i)
}

func (e Engine) ListItems(ctx context.Context) ([]ItemView, error) {
	is, err := e.Store.ItemsFindAll(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "error listing Items")
	}
	return e.views(ctx, is)
}

func (e Engine) views(ctx context.Context, is []model.Item) ([]ItemView, error) {
	now := e.now()
	vs := make([]ItemView, 0, len(is))
	for _, i := range is {
		if !i.Closed() && !now.Before(i.EndTime) {
			settled, err := e.Finalize(ctx, i.ID)
			if err != nil {
				return nil, err
			}
			i = settled
		}
		v, err := e.view(ctx, i)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}

func (e Engine) view(ctx context.Context, i model.Item) (ItemView, error) {
	highest, err := e.ledger().Highest(ctx, i.ID)
	if err != nil {
		return ItemView{}, errors.WithMessagef(err, "error finding highest Bid for Item: %s", i.ID)
	}
	return ItemView{
		Item:           i,
		HighestBid:     highest,
		MinimumNextBid: MinimumNextBid(e.increment(), i, highest),
	}, nil
}

// settleIfDue returns the item, finalizing it first when its end time has passed.
func (e Engine) settleIfDue(ctx context.Context, itemID string) (model.Item, error) {
	i, err := e.loadItem(ctx, itemID)
	if err != nil {
		return model.Item{}, err
	}
	if i.Closed() || e.now().Before(i.EndTime) {
		return i, nil
	}
	return e.Finalize(ctx, itemID)
}

// PlaceBid records a manual bid and lets standing proxy bids respond to it.
func (e Engine) PlaceBid(ctx context.Context, itemID, bidder string, amount money.Money) (BidOutcome, error) {
	if bidder == "" {
		return BidOutcome{}, errors.Wrap(ErrInvalidBid, "bidder is required")
	}
	if !amount.IsPositive() {
		return BidOutcome{}, errors.Wrapf(ErrInvalidBid, "amount must be positive, got: %s", amount)
	}

	var (
		out        BidOutcome
		evs        []model.AuctionEvent
		prevLeader string
	)
	err := e.Store.WithItemTx(ctx, itemID, func(ctx context.Context) error {
		out, evs, prevLeader = BidOutcome{}, nil, ""

		item, err := e.openItem(ctx, itemID)
		if err != nil {
			return err
		}
		now := e.now()

		highest, err := e.ledger().Highest(ctx, itemID)
		if err != nil {
			return err
		}
		if highest != nil {
			prevLeader = highest.Bidder
		}
		minNext := MinimumNextBid(e.increment(), item, highest)
		if amount.LessThan(minNext) {
			return errors.Wrapf(ErrStaleBid, "amount %s is below the minimum next bid %s on Item %s",
				amount, minNext, itemID)
		}

		prev := item.CurrentPrice
		b, err := e.ledger().Record(ctx, &item, bidder, amount, false, now)
		if err != nil {
			return err
		}
		evs = append(evs, bidEvent(b, prev))

		esc, err := e.escalate(ctx, &item, now)
		if err != nil {
			return err
		}
		evs = append(evs, esc.events...)
		out = BidOutcome{Bid: b, Automated: esc.bids, Item: item}
		return nil
	})
	if err != nil {
		e.afterRejected(ctx, itemID, err)
		return BidOutcome{}, err
	}

	e.log().Infof("PlaceBid: %s bid %s on Item %s, %d automated bid(s), price now %s",
		bidder, amount, itemID, len(out.Automated), out.Item.CurrentPrice)
	e.publish(ctx, evs...)
	e.notifyOutbid(ctx, out.Item, outbid(prevLeader, evs))
	return out, nil
}

// RegisterProxyBid replaces the bidder's standing proxy bid on the item and escalates.
func (e Engine) RegisterProxyBid(ctx context.Context, itemID, bidder string, maxBid money.Money) (ProxyOutcome, error) {
	if bidder == "" {
		return ProxyOutcome{}, errors.Wrap(ErrInvalidBid, "bidder is required")
	}
	if !maxBid.IsPositive() {
		return ProxyOutcome{}, errors.Wrapf(ErrInvalidBid, "max bid must be positive, got: %s", maxBid)
	}

	var (
		out        ProxyOutcome
		evs        []model.AuctionEvent
		prevLeader string
	)
	err := e.Store.WithItemTx(ctx, itemID, func(ctx context.Context) error {
		out, evs, prevLeader = ProxyOutcome{}, nil, ""

		item, err := e.openItem(ctx, itemID)
		if err != nil {
			return err
		}
		now := e.now()

		highest, err := e.ledger().Highest(ctx, itemID)
		if err != nil {
			return err
		}
		if highest != nil {
			prevLeader = highest.Bidder
		}

		pb, err := e.registry().Upsert(ctx, itemID, bidder, maxBid, now)
		if err != nil {
			return err
		}

		esc, err := e.escalate(ctx, &item, now)
		if err != nil {
			return err
		}
		for _, d := range esc.deactivated {
			if d.ID == pb.ID {
				pb = d
			}
		}
		evs = esc.events
		out = ProxyOutcome{ProxyBid: pb, Automated: esc.bids, Item: item}
		return nil
	})
	if err != nil {
		e.afterRejected(ctx, itemID, err)
		return ProxyOutcome{}, err
	}

	e.log().Infof("RegisterProxyBid: %s registered max %s on Item %s, active: %t, %d automated bid(s), price now %s",
		bidder, maxBid, itemID, out.ProxyBid.Active, len(out.Automated), out.Item.CurrentPrice)
	e.publish(ctx, evs...)
	e.notifyOutbid(ctx, out.Item, outbid(prevLeader, evs))
	return out, nil
}

// openItem loads the item and fails with ErrAuctionClosed once bidding has ended.
func (e Engine) openItem(ctx context.Context, itemID string) (model.Item, error) {
	item, err := e.loadItem(ctx, itemID)
	if err != nil {
		return model.Item{}, err
	}
	if !IsOpen(item, e.now()) {
		return model.Item{}, errors.Wrapf(ErrAuctionClosed, "Item %s is %s, end time: %s",
			itemID, item.Status, item.EndTime.Format(time.RFC3339))
	}
	return item, nil
}

// afterRejected settles an item whose bid was turned away because its end time had passed.
func (e Engine) afterRejected(ctx context.Context, itemID string, err error) {
	if !errors.Is(err, ErrAuctionClosed) {
		return
	}
	if _, ferr := e.Finalize(ctx, itemID); ferr != nil {
		e.log().Errorf("afterRejected: Error finalizing Item %s, err: %v", itemID, ferr)
	}
}

// escalate raises active proxy bids against the current price until none of them can or needs
// to bid. A proxy never bids against its own bidder's lead. Without any bid on the item, proxies
// only start once two different bidders hold one that can still go above the price. Each
// recorded bid raises the price by a positive increment and proxies have finite maximums, so
// the loop terminates.
func (e Engine) escalate(ctx context.Context, item *model.Item, now time.Time) (escalation, error) {
	var res escalation
	for {
		highest, err := e.ledger().Highest(ctx, item.ID)
		if err != nil {
			return res, err
		}
		proxies, err := e.registry().Active(ctx, item.ID)
		if err != nil {
			return res, errors.WithMessagef(err, "error finding active ProxyBids for Item %s", item.ID)
		}

		var leader string
		if highest != nil {
			leader = highest.Bidder
		}
		opened := highest != nil || distinctBidders(proxies, item.CurrentPrice) >= 2

		var progressed bool
		for _, pb := range proxies {
			if pb.MaxBid.LessThanOrEqual(item.CurrentPrice) {
				if err = e.deactivate(ctx, &res, pb, now, "exhausted"); err != nil {
					return res, err
				}
				continue
			}
			if !opened || pb.Bidder == leader {
				continue
			}

			candidate := MinimumNextBid(e.increment(), *item, highest)
			if candidate.GreaterThan(pb.MaxBid) {
				if err = e.deactivate(ctx, &res, pb, now, "outbid at "+candidate.String()); err != nil {
					return res, err
				}
				continue
			}

			prev := item.CurrentPrice
			b, err := e.ledger().Record(ctx, item, pb.Bidder, candidate, true, now)
			if err != nil {
				return res, err
			}
			e.log().Debugf("escalate: ProxyBid %s of %s raised Item %s from %s to %s",
				pb.ID, pb.Bidder, item.ID, prev, candidate)
			res.bids = append(res.bids, b)
			res.events = append(res.events, bidEvent(b, prev))
			progressed = true
			break
		}
		if !progressed {
			return res, nil
		}
	}
}

func (e Engine) deactivate(ctx context.Context, res *escalation, pb model.ProxyBid, now time.Time, reason string) error {
	if err := e.registry().Deactivate(ctx, pb, now); err != nil {
		return errors.WithMessagef(err, "error deactivating ProxyBid %s", pb.ID)
	}
	e.log().Debugf("escalate: Deactivated ProxyBid %s of %s on Item %s, max: %s, %s",
		pb.ID, pb.Bidder, pb.ItemID, pb.MaxBid, reason)
	pb.Active = false
	t := now
	pb.DeactivatedAt = &t
	res.deactivated = append(res.deactivated, pb)
	return nil
}

// distinctBidders counts the bidders whose proxy bids can still go above price.
func distinctBidders(pbs []model.ProxyBid, price money.Money) int {
	seen := make(map[string]struct{}, len(pbs))
	for _, pb := range pbs {
		if pb.MaxBid.GreaterThan(price) {
			seen[pb.Bidder] = struct{}{}
		}
	}
	return len(seen)
}

// outbid lists everyone who led the item at some point during the operation but no longer does.
func outbid(prevLeader string, evs []model.AuctionEvent) []string {
	if len(evs) == 0 {
		return nil
	}
	final := evs[len(evs)-1].Bidder
	seen := map[string]bool{final: true}
	var rs []string
	for _, b := range append([]string{prevLeader}, bidders(evs)...) {
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		rs = append(rs, b)
	}
	return rs
}

func bidders(evs []model.AuctionEvent) []string {
	bs := make([]string, 0, len(evs))
	for _, ev := range evs {
		bs = append(bs, ev.Bidder)
	}
	return bs
}

// Finalize settles an item whose end time has passed: sold to the highest bidder, or unsold when
// nobody bid. Remaining proxy bids are deactivated. Items still open or already settled are
// returned unchanged.
func (e Engine) Finalize(ctx context.Context, itemID string) (model.Item, error) {
	var (
		item    model.Item
		settled bool
		closed  int
	)
	err := e.Store.WithItemTx(ctx, itemID, func(ctx context.Context) error {
		settled, closed = false, 0

		var err error
		item, err = e.loadItem(ctx, itemID)
		if err != nil {
			return err
		}
		now := e.now()
		if item.Closed() || now.Before(item.EndTime) {
			return nil
		}

		highest, err := e.ledger().Highest(ctx, itemID)
		if err != nil {
			return err
		}
		if !item.Settle(highest, now) {
			return nil
		}
		if err = e.Store.ItemSettle(ctx, item); err != nil {
			return errors.WithMessagef(err, "error settling Item %s", itemID)
		}
		if closed, err = e.registry().DeactivateAll(ctx, itemID, now); err != nil {
			return errors.WithMessagef(err, "error closing ProxyBids of Item %s", itemID)
		}
		settled = true
		return nil
	})
	if err != nil {
		return model.Item{}, err
	}
	if !settled {
		return item, nil
	}

	e.log().Infof("Finalize: Item %s is %s, winner: %q, price: %s, closed %d ProxyBid(s)",
		itemID, item.Status, item.Winner, item.CurrentPrice, closed)
	e.publish(ctx, settleEvent(item))
	e.notifyWinner(ctx, item)
	return item, nil
}
