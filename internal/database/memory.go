package database

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"auctionhouse/internal/lock"
	"auctionhouse/internal/model"
	"auctionhouse/internal/money"
)

// Memory keeps everything in process memory. Each item owns a partition holding its bids, proxy
// bids and orders. A transaction works on a private copy of one partition and swaps it in on
// commit, so committed partitions are never mutated and can be read without holding mu.
type Memory struct {
	mu     sync.RWMutex
	parts  map[string]*partition
	locker *lock.Local
}

type partition struct {
	item    model.Item
	bids    []model.ManualBid
	proxies []model.ProxyBid
	orders  []model.Order
}

func (p *partition) clone() *partition {
	return &partition{
		item:    p.item,
		bids:    append([]model.ManualBid(nil), p.bids...),
		proxies: append([]model.ProxyBid(nil), p.proxies...),
		orders:  append([]model.Order(nil), p.orders...),
	}
}

type memTxKey struct{}

type memTx struct {
	itemID string
	part   *partition
}

func NewMemory() *Memory {
	return &Memory{
		parts:  make(map[string]*partition),
		locker: lock.NewLocal(),
	}
}

func memTxFromContext(ctx context.Context) (*memTx, bool) {
	tx, ok := ctx.Value(memTxKey{}).(*memTx)
	return tx, ok
}

func (m *Memory) WithItemTx(ctx context.Context, itemID string, fn func(ctx context.Context) error) error {
	if tx, ok := memTxFromContext(ctx); ok {
		if tx.itemID == itemID {
			return fn(ctx)
		}
		return errors.Errorf("WithItemTx: transaction for Item %s started inside transaction for Item %s",
			itemID, tx.itemID)
	}

	unlock, err := m.locker.Lock(ctx, itemID)
	if err != nil {
		return errors.WithMessagef(err, "error locking Item with ID: %s", itemID)
	}
	defer func() { _ = unlock() }()

	m.mu.RLock()
	committed := m.parts[itemID]
	m.mu.RUnlock()

	tx := &memTx{itemID: itemID}
	if committed != nil {
		tx.part = committed.clone()
	}
	if err = fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		return err
	}
	if tx.part != nil {
		m.mu.Lock()
		m.parts[itemID] = tx.part
		m.mu.Unlock()
	}
	return nil
}

func (m *Memory) partition(ctx context.Context, itemID string) *partition {
	if tx, ok := memTxFromContext(ctx); ok && tx.itemID == itemID {
		return tx.part
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parts[itemID]
}

func (m *Memory) partitions(ctx context.Context) []*partition {
	tx, inTx := memTxFromContext(ctx)
	m.mu.RLock()
	ps := make([]*partition, 0, len(m.parts))
	for id, p := range m.parts {
		if inTx && id == tx.itemID {
			continue
		}
		ps = append(ps, p)
	}
	m.mu.RUnlock()
	if inTx && tx.part != nil {
		ps = append(ps, tx.part)
	}
	return ps
}

// write applies fn to the item's partition inside a transaction, joining the caller's when the
// context carries one.
func (m *Memory) write(ctx context.Context, itemID string, fn func(p *partition) error) error {
	if tx, ok := memTxFromContext(ctx); ok && tx.itemID == itemID {
		if tx.part == nil {
			return errors.Wrapf(ErrNotFound, "error finding Item with ID: %s", itemID)
		}
		return fn(tx.part)
	}
	return m.WithItemTx(ctx, itemID, func(ctx context.Context) error {
		return m.write(ctx, itemID, fn)
	})
}

func (m *Memory) ItemInsert(ctx context.Context, i model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.parts[i.ID]; ok {
		return errors.Wrapf(ErrDuplicate, "error inserting Item with ID: %s", i.ID)
	}
	m.parts[i.ID] = &partition{item: i}
	return nil
}

func (m *Memory) ItemFindOne(ctx context.Context, itemID string) (model.Item, error) {
	p := m.partition(ctx, itemID)
	if p == nil {
		return model.Item{}, errors.Wrapf(ErrNotFound, "error finding Item with ID: %s", itemID)
	}
	return p.item, nil
}

func (m *Memory) ItemsFind(ctx context.Context, itemIDs []string) ([]model.Item, error) {
	is := []model.Item{}
	for _, id := range itemIDs {
		if p := m.partition(ctx, id); p != nil {
			is = append(is, p.item)
		}
	}
	sortItems(is)
	return is, nil
}

func (m *Memory) ItemsFindAll(ctx context.Context) ([]model.Item, error) {
	is := []model.Item{}
	for _, p := range m.partitions(ctx) {
		is = append(is, p.item)
	}
	sortItems(is)
	return is, nil
}

func sortItems(is []model.Item) {
	slices.SortStableFunc(is, func(a, b model.Item) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func (m *Memory) ItemPriceUpdate(ctx context.Context, itemID string, from, to money.Money, now time.Time) error {
	return m.write(ctx, itemID, func(p *partition) error {
		if p.item.Status != model.ItemLive || !p.item.CurrentPrice.Equal(from) {
			return errors.Wrapf(ErrConflict, "Item not matched when updating price, ItemID: %s, from: %s, to: %s",
				itemID, from, to)
		}
		p.item.CurrentPrice = to
		p.item.UpdatedAt = now
		return nil
	})
}

func (m *Memory) ItemSettle(ctx context.Context, i model.Item) error {
	return m.write(ctx, i.ID, func(p *partition) error {
		if p.item.Status != model.ItemLive {
			return errors.Wrapf(ErrConflict, "Item not live when settling, ItemID: %s", i.ID)
		}
		p.item.Status = i.Status
		p.item.Winner = i.Winner
		p.item.CurrentPrice = i.CurrentPrice
		p.item.UpdatedAt = i.UpdatedAt
		return nil
	})
}

func (m *Memory) BidInsert(ctx context.Context, b model.ManualBid) error {
	return m.write(ctx, b.ItemID, func(p *partition) error {
		p.bids = append(p.bids, b)
		return nil
	})
}

func (m *Memory) BidFindHighest(ctx context.Context, itemID string) (model.ManualBid, error) {
	p := m.partition(ctx, itemID)
	if p == nil || len(p.bids) == 0 {
		return model.ManualBid{}, errors.Wrapf(ErrNotFound, "error finding highest Bid for ItemID: %s", itemID)
	}
	best := p.bids[0]
	for _, b := range p.bids[1:] {
		if b.Amount.GreaterThan(best.Amount) ||
			(b.Amount.Equal(best.Amount) && b.CreatedAt.Before(best.CreatedAt)) {
			best = b
		}
	}
	return best, nil
}

func (m *Memory) BidsFindByItem(ctx context.Context, itemID string) ([]model.ManualBid, error) {
	p := m.partition(ctx, itemID)
	if p == nil {
		return []model.ManualBid{}, nil
	}
	return append([]model.ManualBid{}, p.bids...), nil
}

func (m *Memory) BidItemIDsByBidder(ctx context.Context, bidder string) ([]string, error) {
	itemIDs := []string{}
	for _, p := range m.partitions(ctx) {
		for _, b := range p.bids {
			if b.Bidder == bidder {
				itemIDs = append(itemIDs, p.item.ID)
				break
			}
		}
	}
	slices.Sort(itemIDs)
	return itemIDs, nil
}

func (m *Memory) ProxyBidInsert(ctx context.Context, pb model.ProxyBid) error {
	return m.write(ctx, pb.ItemID, func(p *partition) error {
		for _, existing := range p.proxies {
			if existing.Active && pb.Active && existing.Bidder == pb.Bidder {
				return errors.Wrapf(ErrConflict, "active ProxyBid already exists, ItemID: %s, bidder: %s",
					pb.ItemID, pb.Bidder)
			}
		}
		p.proxies = append(p.proxies, pb)
		return nil
	})
}

func (m *Memory) ProxyBidsFindActive(ctx context.Context, itemID string) ([]model.ProxyBid, error) {
	pbs := []model.ProxyBid{}
	p := m.partition(ctx, itemID)
	if p == nil {
		return pbs, nil
	}
	for _, pb := range p.proxies {
		if pb.Active {
			pbs = append(pbs, pb)
		}
	}
	slices.SortStableFunc(pbs, func(a, b model.ProxyBid) bool {
		if c := a.MaxBid.Cmp(b.MaxBid); c != 0 {
			return c > 0
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return pbs, nil
}

func (m *Memory) ProxyBidDeactivate(ctx context.Context, pb model.ProxyBid, now time.Time) error {
	return m.write(ctx, pb.ItemID, func(p *partition) error {
		for i := range p.proxies {
			if p.proxies[i].ID == pb.ID && p.proxies[i].Active {
				deactivateAt(&p.proxies[i], now)
			}
		}
		return nil
	})
}

func (m *Memory) ProxyBidsDeactivate(ctx context.Context, itemID string, bidder string, now time.Time) (int, error) {
	var n int
	err := m.write(ctx, itemID, func(p *partition) error {
		for i := range p.proxies {
			if p.proxies[i].Active && (bidder == "" || p.proxies[i].Bidder == bidder) {
				deactivateAt(&p.proxies[i], now)
				n++
			}
		}
		return nil
	})
	return n, err
}

func deactivateAt(pb *model.ProxyBid, now time.Time) {
	t := now
	pb.Active = false
	pb.DeactivatedAt = &t
}

func (m *Memory) OrderInsert(ctx context.Context, o model.Order) error {
	return m.write(ctx, o.ItemID, func(p *partition) error {
		p.orders = append(p.orders, o)
		return nil
	})
}

func (m *Memory) OrderFindOne(ctx context.Context, orderID string) (model.Order, error) {
	for _, p := range m.partitions(ctx) {
		for _, o := range p.orders {
			if o.ID == orderID {
				return o, nil
			}
		}
	}
	return model.Order{}, errors.Wrapf(ErrNotFound, "error finding Order with ID: %s", orderID)
}

func (m *Memory) OrdersFindByUser(ctx context.Context, user string) ([]model.Order, error) {
	orders := []model.Order{}
	for _, p := range m.partitions(ctx) {
		for _, o := range p.orders {
			if o.User == user {
				orders = append(orders, o)
			}
		}
	}
	sortOrders(orders)
	return orders, nil
}

func (m *Memory) OrdersFindByItem(ctx context.Context, itemID string) ([]model.Order, error) {
	orders := []model.Order{}
	if p := m.partition(ctx, itemID); p != nil {
		orders = append(orders, p.orders...)
	}
	sortOrders(orders)
	return orders, nil
}

func sortOrders(orders []model.Order) {
	slices.SortStableFunc(orders, func(a, b model.Order) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func (m *Memory) OrderUpdate(ctx context.Context, o model.Order, from model.OrderStatus) error {
	return m.write(ctx, o.ItemID, func(p *partition) error {
		for i := range p.orders {
			if p.orders[i].ID != o.ID {
				continue
			}
			if p.orders[i].Status != from {
				return errors.Wrapf(ErrConflict, "Order not in status %s when updating, OrderID: %s", from, o.ID)
			}
			p.orders[i].Status = o.Status
			p.orders[i].PaymentIntentID = o.PaymentIntentID
			p.orders[i].UpdatedAt = o.UpdatedAt
			return nil
		}
		return errors.Wrapf(ErrNotFound, "error finding Order with ID: %s", o.ID)
	})
}
