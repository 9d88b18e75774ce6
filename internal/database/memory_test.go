package database

import (
	"context"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/pkg/errors"

	"auctionhouse/internal/model"
	"auctionhouse/internal/money"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seedItem(t *testing.T, m *Memory, id string) model.Item {
	t.Helper()
	i := model.Item{
		ID:            id,
		Title:         "Lot " + id,
		StartingPrice: money.MustParse("1000"),
		CurrentPrice:  money.MustParse("1000"),
		EndTime:       t0.Add(time.Hour),
		Status:        model.ItemLive,
		CreatedAt:     t0,
		UpdatedAt:     t0,
	}
	assert.NoError(t, m.ItemInsert(context.Background(), i))
	return i
}

func TestMemoryItemInsertDuplicate(t *testing.T) {
	m := NewMemory()
	seedItem(t, m, "a")

	err := m.ItemInsert(context.Background(), model.Item{ID: "a"})
	check.True(t, errors.Is(err, ErrDuplicate))

	_, err = m.ItemFindOne(context.Background(), "missing")
	check.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryTxRollback(t *testing.T) {
	m := NewMemory()
	seedItem(t, m, "a")
	ctx := context.Background()
	boom := errors.New("boom")

	err := m.WithItemTx(ctx, "a", func(ctx context.Context) error {
		assert.NoError(t, m.BidInsert(ctx, model.ManualBid{
			ID: "b1", ItemID: "a", Bidder: "u1", Amount: money.MustParse("1200"), CreatedAt: t0,
		}))
		assert.NoError(t, m.ItemPriceUpdate(ctx, "a", money.MustParse("1000"), money.MustParse("1200"), t0))

		// Reads inside the transaction see its own writes.
		i, err := m.ItemFindOne(ctx, "a")
		assert.NoError(t, err)
		check.Equal(t, "1200.00", i.CurrentPrice.String())
		return boom
	})
	check.True(t, errors.Is(err, boom))

	i, err := m.ItemFindOne(ctx, "a")
	assert.NoError(t, err)
	check.Equal(t, "1000.00", i.CurrentPrice.String())
	bids, err := m.BidsFindByItem(ctx, "a")
	assert.NoError(t, err)
	check.Equal(t, 0, len(bids))
}

func TestMemoryTxIsolation(t *testing.T) {
	m := NewMemory()
	seedItem(t, m, "a")
	ctx := context.Background()

	err := m.WithItemTx(ctx, "a", func(txCtx context.Context) error {
		assert.NoError(t, m.ItemPriceUpdate(txCtx, "a", money.MustParse("1000"), money.MustParse("1500"), t0))
		outside, err := m.ItemFindOne(ctx, "a")
		assert.NoError(t, err)
		check.Equal(t, "1000.00", outside.CurrentPrice.String())
		return nil
	})
	assert.NoError(t, err)

	i, err := m.ItemFindOne(ctx, "a")
	assert.NoError(t, err)
	check.Equal(t, "1500.00", i.CurrentPrice.String())
}

func TestMemoryNestedTxOtherItem(t *testing.T) {
	m := NewMemory()
	seedItem(t, m, "a")
	seedItem(t, m, "b")
	ctx := context.Background()

	err := m.WithItemTx(ctx, "a", func(ctx context.Context) error {
		return m.WithItemTx(ctx, "b", func(ctx context.Context) error { return nil })
	})
	check.Error(t, err)

	err = m.WithItemTx(ctx, "a", func(ctx context.Context) error {
		return m.WithItemTx(ctx, "a", func(ctx context.Context) error { return nil })
	})
	check.NoError(t, err)
}

func TestMemoryItemPriceUpdateConflict(t *testing.T) {
	m := NewMemory()
	seedItem(t, m, "a")
	ctx := context.Background()

	err := m.ItemPriceUpdate(ctx, "a", money.MustParse("900"), money.MustParse("1200"), t0)
	check.True(t, errors.Is(err, ErrConflict))

	settled := model.Item{ID: "a", Status: model.ItemUnsold, CurrentPrice: money.MustParse("1000"), UpdatedAt: t0}
	assert.NoError(t, m.ItemSettle(ctx, settled))
	check.True(t, errors.Is(m.ItemSettle(ctx, settled), ErrConflict))

	err = m.ItemPriceUpdate(ctx, "a", money.MustParse("1000"), money.MustParse("1200"), t0)
	check.True(t, errors.Is(err, ErrConflict))
}

func TestMemoryBidFindHighest(t *testing.T) {
	m := NewMemory()
	seedItem(t, m, "a")
	ctx := context.Background()

	_, err := m.BidFindHighest(ctx, "a")
	check.True(t, errors.Is(err, ErrNotFound))

	for _, b := range []model.ManualBid{
		{ID: "1", ItemID: "a", Bidder: "u1", Amount: money.MustParse("1200"), CreatedAt: t0},
		{ID: "2", ItemID: "a", Bidder: "u2", Amount: money.MustParse("1400"), CreatedAt: t0.Add(2 * time.Second)},
		{ID: "3", ItemID: "a", Bidder: "u3", Amount: money.MustParse("1400"), CreatedAt: t0.Add(time.Second)},
	} {
		assert.NoError(t, m.BidInsert(ctx, b))
	}

	best, err := m.BidFindHighest(ctx, "a")
	assert.NoError(t, err)
	check.Equal(t, "3", best.ID)

	ids, err := m.BidItemIDsByBidder(ctx, "u2")
	assert.NoError(t, err)
	check.Equal(t, []string{"a"}, ids)
}

func TestMemoryProxyBids(t *testing.T) {
	m := NewMemory()
	seedItem(t, m, "a")
	ctx := context.Background()

	pbs := []model.ProxyBid{
		{ID: "p1", ItemID: "a", Bidder: "u1", MaxBid: money.MustParse("1500"), Active: true, CreatedAt: t0},
		{ID: "p2", ItemID: "a", Bidder: "u2", MaxBid: money.MustParse("2000"), Active: true, CreatedAt: t0.Add(time.Second)},
		{ID: "p3", ItemID: "a", Bidder: "u3", MaxBid: money.MustParse("1500"), Active: true, CreatedAt: t0.Add(-time.Second)},
	}
	for _, pb := range pbs {
		assert.NoError(t, m.ProxyBidInsert(ctx, pb))
	}

	dup := model.ProxyBid{ID: "p4", ItemID: "a", Bidder: "u1", MaxBid: money.MustParse("3000"), Active: true}
	check.True(t, errors.Is(m.ProxyBidInsert(ctx, dup), ErrConflict))

	active, err := m.ProxyBidsFindActive(ctx, "a")
	assert.NoError(t, err)
	got := []string{}
	for _, pb := range active {
		got = append(got, pb.ID)
	}
	check.Equal(t, []string{"p2", "p3", "p1"}, got)

	assert.NoError(t, m.ProxyBidDeactivate(ctx, pbs[1], t0))
	n, err := m.ProxyBidsDeactivate(ctx, "a", "u3", t0)
	assert.NoError(t, err)
	check.Equal(t, 1, n)

	active, err = m.ProxyBidsFindActive(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(active))
	check.Equal(t, "p1", active[0].ID)

	n, err = m.ProxyBidsDeactivate(ctx, "a", "", t0)
	assert.NoError(t, err)
	check.Equal(t, 1, n)
}

func TestMemoryOrders(t *testing.T) {
	m := NewMemory()
	seedItem(t, m, "a")
	seedItem(t, m, "b")
	ctx := context.Background()

	o1 := model.Order{ID: "o1", User: "u1", ItemID: "a", Amount: money.MustParse("1200"), Status: model.OrderPending, CreatedAt: t0}
	o2 := model.Order{ID: "o2", User: "u1", ItemID: "b", Amount: money.MustParse("900"), Status: model.OrderPending, CreatedAt: t0.Add(time.Minute)}
	assert.NoError(t, m.OrderInsert(ctx, o1))
	assert.NoError(t, m.OrderInsert(ctx, o2))

	orders, err := m.OrdersFindByUser(ctx, "u1")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(orders))
	check.Equal(t, "o2", orders[0].ID)

	o1.Status = model.OrderConfirmed
	assert.NoError(t, m.OrderUpdate(ctx, o1, model.OrderPending))
	check.True(t, errors.Is(m.OrderUpdate(ctx, o1, model.OrderPending), ErrConflict))

	got, err := m.OrderFindOne(ctx, "o1")
	assert.NoError(t, err)
	check.Equal(t, model.OrderConfirmed, got.Status)

	_, err = m.OrderFindOne(ctx, "nope")
	check.True(t, errors.Is(err, ErrNotFound))
}
