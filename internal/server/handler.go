package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"auctionhouse/internal/auction"
	"auctionhouse/internal/client"
	"auctionhouse/internal/database"
	"auctionhouse/internal/money"
)

func (s Server) writeJsonResponse(w http.ResponseWriter, response any, statusCode int) {
	if resp, err := json.Marshal(response); err != nil {
		s.Logger.Errorf("Error encoding response: %+v, err: %v", response, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	} else {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(statusCode)
		if _, err = w.Write(resp); err != nil {
			s.Logger.Errorf("Error writing JSON response: %s, err: %v", resp, err)
		}
	}
}

// writeError maps err to a status code. Client errors carry the error text, server errors only
// the status text.
func (s Server) writeError(w http.ResponseWriter, r *http.Request, caller string, err error) {
	tid := getTraceContext(r.Context()).traceID
	status := statusCode(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Errorf("%s: %v, TraceID: %s", caller, err, tid)
		http.Error(w, http.StatusText(status), status)
		return
	}
	s.Logger.Debugf("%s: %v, TraceID: %s", caller, err, tid)
	http.Error(w, err.Error(), status)
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, auction.ErrInvalidBid),
		errors.Is(err, auction.ErrInvalidItem),
		errors.Is(err, money.ErrInvalid),
		errors.Is(err, money.ErrPrecision):
		return http.StatusBadRequest
	case errors.Is(err, auction.ErrItemNotFound),
		errors.Is(err, auction.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, auction.ErrNotWinner):
		return http.StatusForbidden
	case errors.Is(err, auction.ErrStaleBid),
		errors.Is(err, auction.ErrAuctionClosed),
		errors.Is(err, auction.ErrOrderExists),
		errors.Is(err, auction.ErrOrderProcessed),
		errors.Is(err, database.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, auction.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, database.ErrTransient),
		errors.Is(err, client.ErrPayment):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decodeJSON reads the request body into v, answering 400 itself on failure.
func (s Server) decodeJSON(w http.ResponseWriter, r *http.Request, caller string, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.Logger.Debugf("%s: Error decoding JSON, err: %v, TraceID: %s", caller, err, getTraceContext(r.Context()).traceID)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	return true
}

func (s Server) notFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Logger.Debugf("notFoundHandler: Requested resource not found: %s %s, TraceID: %s",
			r.Method, r.URL.Path, getTraceContext(r.Context()).traceID)
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	}
}
