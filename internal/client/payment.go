package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"auctionhouse/internal/auction"
	"auctionhouse/internal/misc"
	"auctionhouse/internal/money"
)

var ErrPayment = errors.New("payment provider error")

// PaymentConfig points the client at a Stripe compatible payment intents API.
type PaymentConfig struct {
	URL      string
	Key      string
	Currency string
}

type paymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

type paymentError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent creates a payment intent for amount. The order id doubles as idempotency key so
// retrying for the same order never charges twice.
func (c Client) CreateIntent(ctx context.Context, amount money.Money, orderID string) (auction.IntentHandle, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount.Cents(), 10))
	form.Set("currency", c.currency())
	form.Set("metadata[order_id]", orderID)

	req, err := newRequest(ctx, http.MethodPost, c.paymentURL("/v1/payment_intents"), strings.NewReader(form.Encode()))
	if err != nil {
		return auction.IntentHandle{}, errors.Wrap(err, "CreateIntent: error creating HTTP request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", "order-"+orderID)

	pi, err := c.paymentDo(req, "CreateIntent")
	if err != nil {
		return auction.IntentHandle{}, errors.WithMessagef(err, "error creating payment intent for Order %s", orderID)
	}
	c.Logger.Infof("CreateIntent: Created payment intent %s for Order %s, amount: %d %s", pi.ID, orderID, pi.Amount, pi.Currency)
	return auction.IntentHandle{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       amount,
	}, nil
}

// Confirm looks up the intent and reports whether its payment succeeded. Any state other than
// succeeded counts as failed.
func (c Client) Confirm(ctx context.Context, intentID string) (auction.PaymentOutcome, error) {
	req, err := newRequest(ctx, http.MethodGet, c.paymentURL("/v1/payment_intents/"+url.PathEscape(intentID)), nil)
	if err != nil {
		return "", errors.Wrap(err, "Confirm: error creating HTTP request")
	}
	pi, err := c.paymentDo(req, "Confirm")
	if err != nil {
		return "", errors.WithMessagef(err, "error retrieving payment intent %s", intentID)
	}
	c.Logger.Debugf("Confirm: Payment intent %s is %s", pi.ID, pi.Status)
	if pi.Status == "succeeded" {
		return auction.PaymentSucceeded, nil
	}
	return auction.PaymentFailed, nil
}

func (c Client) paymentURL(path string) string {
	return strings.TrimSuffix(c.Payment.URL, "/") + path
}

func (c Client) currency() string {
	if c.Payment.Currency == "" {
		return "usd"
	}
	return strings.ToLower(c.Payment.Currency)
}

func (c Client) paymentDo(req *http.Request, caller string) (paymentIntent, error) {
	req.Header.Set("Authorization", "Bearer "+c.Payment.Key)

	resp, body, err := c.do(req, caller)
	if err != nil {
		return paymentIntent{}, errors.Wrapf(err, "%s: error doing request to: %s", caller, req.URL)
	}
	if resp.StatusCode != http.StatusOK {
		var pe paymentError
		if json.Unmarshal(body, &pe) == nil && pe.Error.Message != "" {
			return paymentIntent{}, errors.Wrapf(ErrPayment, "%s: status: %s, %s: %s",
				caller, resp.Status, pe.Error.Type, pe.Error.Message)
		}
		return paymentIntent{}, errors.Wrapf(ErrPayment, "%s: status: %s, body: %s",
			caller, resp.Status, misc.BytesLimit(body, 500))
	}

	var pi paymentIntent
	if err = json.Unmarshal(body, &pi); err != nil {
		return paymentIntent{}, errors.Wrapf(err, "%s: error unmarshalling payment intent: %s",
			caller, misc.BytesLimit(body, 500))
	}
	return pi, nil
}
