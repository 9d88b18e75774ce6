package auction

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

type fakePayments struct {
	outcome PaymentOutcome
	created []string
}

func (p *fakePayments) CreateIntent(_ context.Context, amount money.Money, orderID string) (IntentHandle, error) {
	p.created = append(p.created, orderID)
	return IntentHandle{ID: "pi_" + orderID, ClientSecret: "secret", Amount: amount}, nil
}

func (p *fakePayments) Confirm(context.Context, string) (PaymentOutcome, error) {
	return p.outcome, nil
}

// wonItem returns an item sold to "A" for 1400.
func wonItem(t *testing.T, h harness) model.Item {
	t.Helper()
	ctx := context.Background()
	i := h.item(t, "1000")
	_, err := h.PlaceBid(ctx, i.ID, "B", money.MustParse("1200"))
	assert.NoError(t, err)
	_, err = h.PlaceBid(ctx, i.ID, "A", money.MustParse("1400"))
	assert.NoError(t, err)
	h.clock.Advance(time.Hour)
	return i
}

func TestCheckoutNonWinner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	i := wonItem(t, h)

	_, err := h.Checkout(ctx, i.ID, "B")
	check.True(t, errors.Is(err, ErrNotWinner))

	orders, err := h.Store.OrdersFindByItem(ctx, i.ID)
	assert.NoError(t, err)
	check.Equal(t, 0, len(orders))

	// checkout settled the item lazily
	got, err := h.Store.ItemFindOne(ctx, i.ID)
	assert.NoError(t, err)
	check.Equal(t, model.ItemSold, got.Status)
}

func TestCheckoutOpenItem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	i := h.item(t, "1000")
	_, err := h.PlaceBid(ctx, i.ID, "A", money.MustParse("1200"))
	assert.NoError(t, err)

	_, err = h.Checkout(ctx, i.ID, "A")
	check.True(t, errors.Is(err, ErrNotWinner))

	_, err = h.Checkout(ctx, "nope", "A")
	check.True(t, errors.Is(err, ErrItemNotFound))
}

func TestCheckoutAndPay(t *testing.T) {
	h := newHarness(t)
	pay := &fakePayments{outcome: PaymentSucceeded}
	h.Payments = pay
	ctx := context.Background()
	i := wonItem(t, h)

	o, err := h.Checkout(ctx, i.ID, "A")
	assert.NoError(t, err)
	check.Equal(t, model.OrderPending, o.Status)
	check.Equal(t, "1400.00", o.Amount.String())
	check.Equal(t, "A", o.User)
	sold, err := h.Store.ItemFindOne(ctx, i.ID)
	assert.NoError(t, err)
	check.Equal(t, model.ItemSold, sold.Status)
	check.Equal(t, "A", sold.Winner)

	_, err = h.Checkout(ctx, i.ID, "A")
	check.True(t, errors.Is(err, ErrOrderExists))

	_, err = h.Order(ctx, o.ID, "B")
	check.True(t, errors.Is(err, ErrOrderNotFound))
	_, err = h.CreatePaymentIntent(ctx, o.ID, "B")
	check.True(t, errors.Is(err, ErrOrderNotFound))

	handle, err := h.CreatePaymentIntent(ctx, o.ID, "A")
	assert.NoError(t, err)
	check.Equal(t, "pi_"+o.ID, handle.ID)
	check.Equal(t, "1400.00", handle.Amount.String())

	stored, err := h.Order(ctx, o.ID, "A")
	assert.NoError(t, err)
	check.Equal(t, handle.ID, stored.PaymentIntentID)

	confirmed, err := h.ConfirmPayment(ctx, o.ID, "A", "")
	assert.NoError(t, err)
	check.Equal(t, model.OrderConfirmed, confirmed.Status)
	check.Equal(t, handle.ID, confirmed.PaymentIntentID)

	_, err = h.ConfirmPayment(ctx, o.ID, "A", handle.ID)
	check.True(t, errors.Is(err, ErrOrderProcessed))
	_, err = h.CancelOrder(ctx, o.ID, "A")
	check.True(t, errors.Is(err, ErrOrderProcessed))

	orders, err := h.UserOrders(ctx, "A")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(orders))
	check.Equal(t, model.OrderConfirmed, orders[0].Status)

	var paid bool
	for _, m := range h.rec.messagesTo("A") {
		if m.subject == "Payment received" {
			paid = true
		}
	}
	check.True(t, paid)
}

func TestConfirmPaymentFailed(t *testing.T) {
	h := newHarness(t)
	h.Payments = &fakePayments{outcome: PaymentFailed}
	ctx := context.Background()
	i := wonItem(t, h)

	o, err := h.Checkout(ctx, i.ID, "A")
	assert.NoError(t, err)

	_, err = h.ConfirmPayment(ctx, o.ID, "A", "")
	check.True(t, errors.Is(err, ErrPaymentFailed))

	_, err = h.ConfirmPayment(ctx, o.ID, "A", "pi_other")
	check.True(t, errors.Is(err, ErrPaymentFailed))

	stored, err := h.Order(ctx, o.ID, "A")
	assert.NoError(t, err)
	check.Equal(t, model.OrderPending, stored.Status)
}

func TestCancelAndCheckoutAgain(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	i := wonItem(t, h)

	o, err := h.Checkout(ctx, i.ID, "A")
	assert.NoError(t, err)

	canceled, err := h.CancelOrder(ctx, o.ID, "A")
	assert.NoError(t, err)
	check.Equal(t, model.OrderCanceled, canceled.Status)

	again, err := h.Checkout(ctx, i.ID, "A")
	assert.NoError(t, err)
	check.NotEqual(t, o.ID, again.ID)
}

func TestUserBids(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	won := wonItem(t, h)

	// a second item still open after the clock moved
	open, err := h.CreateItem(ctx, NewItem{
		Title:         "Tea set",
		StartingPrice: money.MustParse("100"),
		EndTime:       h.clock.Now().Add(time.Hour),
	})
	assert.NoError(t, err)
	_, err = h.PlaceBid(ctx, open.ID, "A", money.MustParse("300"))
	assert.NoError(t, err)

	vs, err := h.UserBids(ctx, "A")
	assert.NoError(t, err)
	check.Equal(t, 2, len(vs))

	_, err = h.Checkout(ctx, won.ID, "A")
	assert.NoError(t, err)

	vs, err = h.UserBids(ctx, "A")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(vs))
	check.Equal(t, open.ID, vs[0].ID)
	check.Equal(t, "A", vs[0].HighestBid.Bidder)
}
