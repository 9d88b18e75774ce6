// Package client talks to the outbound HTTP collaborators: the payment provider and FCM.
package client

import (
	"context"
	"io"
	"net/http"
	"time"
)

const (
	DefaultTimeout  = 15 * time.Second
	maxResponseSize = 300000
)

type Client struct {
	*http.Client
	FCMKey string
	// FCMURL defaults to the legacy FCM send endpoint.
	FCMURL  string
	Payment PaymentConfig
	Logger  logger
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

func New(fcmKey string, payment PaymentConfig, l logger) Client {
	return Client{
		Client:  &http.Client{Timeout: DefaultTimeout},
		FCMKey:  fcmKey,
		Payment: payment,
		Logger:  l,
	}
}

func newRequest(ctx context.Context, method string, url string, body io.Reader) (*http.Request, error) {
	r, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	setDefaultRequestHeader(r)
	return r, nil
}

func setDefaultRequestHeader(r *http.Request) {
	r.Header.Set("User-Agent", "auctionhouse/1.0")
	r.Header.Set("Accept", "application/json")
}

// do sends req and reads at most maxResponseSize bytes of the response body.
func (c Client) do(req *http.Request, caller string) (*http.Response, []byte, error) {
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("%s: Error closing response body, url: %s, err: %v", caller, req.URL, err)
		}
	}()
	body, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, maxResponseSize))
	return resp, body, err
}
