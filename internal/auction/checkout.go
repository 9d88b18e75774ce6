package auction

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"auctionhouse/internal/database"
	"auctionhouse/internal/misc"
	"auctionhouse/internal/model"
)

// Checkout opens a pending order for the winner of a settled item.
func (e Engine) Checkout(ctx context.Context, itemID, user string) (model.Order, error) {
	if _, err := e.settleIfDue(ctx, itemID); err != nil {
		return model.Order{}, err
	}

	var o model.Order
	err := e.Store.WithItemTx(ctx, itemID, func(ctx context.Context) error {
		item, err := e.loadItem(ctx, itemID)
		if err != nil {
			return err
		}
		if user == "" || item.Winner != user {
			return errors.Wrapf(ErrNotWinner, "user %q on Item %s", user, itemID)
		}

		existing, err := e.Store.OrdersFindByItem(ctx, itemID)
		if err != nil {
			return errors.WithMessagef(err, "error finding Orders for Item %s", itemID)
		}
		for _, eo := range existing {
			if eo.User == user && eo.Status != model.OrderCanceled {
				return errors.Wrapf(ErrOrderExists, "Order %s is %s", eo.ID, eo.Status)
			}
		}

		// a winner only exists on a sold item, Finalize marked it
		now := e.now()
		o = model.Order{
			ID:        uuid.NewString(),
			User:      user,
			ItemID:    itemID,
			Amount:    item.CurrentPrice,
			Status:    model.OrderPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return errors.WithMessagef(e.Store.OrderInsert(ctx, o), "error inserting Order for Item %s", itemID)
	})
	if err != nil {
		return model.Order{}, err
	}
	e.log().Infof("Checkout: Created Order %s for %s on Item %s, amount: %s", o.ID, user, itemID, o.Amount)
	return o, nil
}

// Order returns one of the user's orders. Orders of other users are reported as not found.
func (e Engine) Order(ctx context.Context, orderID, user string) (model.Order, error) {
	o, err := e.Store.OrderFindOne(ctx, orderID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && o.User != user) {
		return model.Order{}, errors.Wrapf(ErrOrderNotFound, "Order with ID: %s", orderID)
	}
	return o, err
}

func (e Engine) pendingOrder(ctx context.Context, orderID, user string) (model.Order, error) {
	o, err := e.Order(ctx, orderID, user)
	if err != nil {
		return model.Order{}, err
	}
	if o.Status != model.OrderPending {
		return model.Order{}, errors.Wrapf(ErrOrderProcessed, "Order %s is %s", orderID, o.Status)
	}
	return o, nil
}

// updateOrder moves a pending order with fn applied under the item's lock.
func (e Engine) updateOrder(ctx context.Context, o model.Order, fn func(o *model.Order)) (model.Order, error) {
	var updated model.Order
	err := e.Store.WithItemTx(ctx, o.ItemID, func(ctx context.Context) error {
		cur, err := e.pendingOrder(ctx, o.ID, o.User)
		if err != nil {
			return err
		}
		fn(&cur)
		cur.UpdatedAt = e.now()
		if err = e.Store.OrderUpdate(ctx, cur, model.OrderPending); err != nil {
			if errors.Is(err, database.ErrConflict) {
				return errors.Wrapf(ErrOrderProcessed, "Order %s changed concurrently", o.ID)
			}
			return err
		}
		updated = cur
		return nil
	})
	return updated, err
}

// CreatePaymentIntent asks the payment provider for an intent covering the order amount. The
// provider call happens outside the item lock.
func (e Engine) CreatePaymentIntent(ctx context.Context, orderID, user string) (IntentHandle, error) {
	if e.Payments == nil {
		return IntentHandle{}, errors.New("CreatePaymentIntent: no payment provider configured")
	}
	o, err := e.pendingOrder(ctx, orderID, user)
	if err != nil {
		return IntentHandle{}, err
	}

	h, err := e.Payments.CreateIntent(ctx, o.Amount, o.ID)
	if err != nil {
		return IntentHandle{}, errors.WithMessagef(err, "error creating payment intent for Order %s", orderID)
	}
	if _, err = e.updateOrder(ctx, o, func(o *model.Order) { o.PaymentIntentID = h.ID }); err != nil {
		return IntentHandle{}, err
	}
	e.log().Infof("CreatePaymentIntent: Created intent %s for Order %s, amount: %s", h.ID, orderID, h.Amount)
	return h, nil
}

// ConfirmPayment asks the provider for the outcome of the order's payment intent and confirms
// the order when it succeeded.
func (e Engine) ConfirmPayment(ctx context.Context, orderID, user, intentID string) (model.Order, error) {
	if e.Payments == nil {
		return model.Order{}, errors.New("ConfirmPayment: no payment provider configured")
	}
	o, err := e.pendingOrder(ctx, orderID, user)
	if err != nil {
		return model.Order{}, err
	}
	if intentID == "" {
		intentID = o.PaymentIntentID
	}
	if intentID == "" {
		return model.Order{}, errors.Wrapf(ErrPaymentFailed, "Order %s has no payment intent", orderID)
	}

	outcome, err := e.Payments.Confirm(ctx, intentID)
	if err != nil {
		return model.Order{}, errors.WithMessagef(err, "error confirming payment intent %s for Order %s", intentID, orderID)
	}
	if outcome != PaymentSucceeded {
		e.log().Warnf("ConfirmPayment: Payment intent %s for Order %s %s", intentID, orderID, outcome)
		return model.Order{}, errors.Wrapf(ErrPaymentFailed, "payment intent %s %s", intentID, outcome)
	}

	o, err = e.updateOrder(ctx, o, func(o *model.Order) {
		o.Status = model.OrderConfirmed
		o.PaymentIntentID = intentID
	})
	if err != nil {
		return model.Order{}, err
	}
	e.log().Infof("ConfirmPayment: Confirmed Order %s for %s, intent: %s", orderID, user, intentID)

	title := o.ItemID
	if i, err := e.Store.ItemFindOne(ctx, o.ItemID); err == nil {
		title = misc.StringLimit(i.Title, 45)
	}
	e.notify(ctx, user, "Payment received", fmt.Sprintf("Your payment of %s for %s is confirmed", o.Amount, title))
	return o, nil
}

func (e Engine) CancelOrder(ctx context.Context, orderID, user string) (model.Order, error) {
	o, err := e.pendingOrder(ctx, orderID, user)
	if err != nil {
		return model.Order{}, err
	}
	o, err = e.updateOrder(ctx, o, func(o *model.Order) { o.Status = model.OrderCanceled })
	if err != nil {
		return model.Order{}, err
	}
	e.log().Infof("CancelOrder: Canceled Order %s for %s", orderID, user)
	return o, nil
}

func (e Engine) UserOrders(ctx context.Context, user string) ([]model.Order, error) {
	orders, err := e.Store.OrdersFindByUser(ctx, user)
	return orders, errors.WithMessagef(err, "error finding Orders of %s", user)
}

// UserBids lists the items the user has bid on and has not ordered yet.
func (e Engine) UserBids(ctx context.Context, user string) ([]ItemView, error) {
	itemIDs, err := e.Store.BidItemIDsByBidder(ctx, user)
	if err != nil {
		return nil, errors.WithMessagef(err, "error finding Items bid on by %s", user)
	}
	orders, err := e.Store.OrdersFindByUser(ctx, user)
	if err != nil {
		return nil, errors.WithMessagef(err, "error finding Orders of %s", user)
	}

	ordered := make([]string, 0, len(orders))
	for _, o := range orders {
		if o.Status != model.OrderCanceled {
			ordered = append(ordered, o.ItemID)
		}
	}
	pending := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		if !slices.Contains(ordered, id) {
			pending = append(pending, id)
		}
	}

	is, err := e.Store.ItemsFind(ctx, pending)
	if err != nil {
		return nil, errors.WithMessagef(err, "error finding Items bid on by %s", user)
	}
	return e.views(ctx, is)
}
