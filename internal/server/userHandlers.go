package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"auctionhouse/internal/auction"
	"auctionhouse/internal/model"
)

func (s Server) userBids() http.HandlerFunc {
	type response struct {
		Items []auction.ItemView `json:"items"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc := getUserContext(r.Context())
		vs, err := s.Engine.UserBids(r.Context(), uc.userID)
		if err != nil {
			s.writeError(w, r, "userBids", err)
			return
		}
		s.writeJsonResponse(w, response{Items: vs}, http.StatusOK)
	}
}

func (s Server) userOrders() http.HandlerFunc {
	type response struct {
		Orders []model.Order `json:"orders"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc := getUserContext(r.Context())
		orders, err := s.Engine.UserOrders(r.Context(), uc.userID)
		if err != nil {
			s.writeError(w, r, "userOrders", err)
			return
		}
		s.writeJsonResponse(w, response{Orders: orders}, http.StatusOK)
	}
}

func (s Server) orderGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uc := getUserContext(r.Context())
		o, err := s.Engine.Order(r.Context(), mux.Vars(r)["orderID"], uc.userID)
		if err != nil {
			s.writeError(w, r, "orderGet", err)
			return
		}
		s.writeJsonResponse(w, o, http.StatusOK)
	}
}

func (s Server) orderPaymentIntent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uc := getUserContext(r.Context())
		h, err := s.Engine.CreatePaymentIntent(r.Context(), mux.Vars(r)["orderID"], uc.userID)
		if err != nil {
			s.writeError(w, r, "orderPaymentIntent", err)
			return
		}
		s.writeJsonResponse(w, h, http.StatusOK)
	}
}

func (s Server) orderConfirm() http.HandlerFunc {
	type request struct {
		PaymentIntentID string `json:"payment_intent_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc := getUserContext(r.Context())
		req := request{}
		if r.ContentLength != 0 && !s.decodeJSON(w, r, "orderConfirm", &req) {
			return
		}

		o, err := s.Engine.ConfirmPayment(r.Context(), mux.Vars(r)["orderID"], uc.userID, req.PaymentIntentID)
		if err != nil {
			s.writeError(w, r, "orderConfirm", err)
			return
		}
		s.writeJsonResponse(w, o, http.StatusOK)
	}
}

func (s Server) orderCancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uc := getUserContext(r.Context())
		o, err := s.Engine.CancelOrder(r.Context(), mux.Vars(r)["orderID"], uc.userID)
		if err != nil {
			s.writeError(w, r, "orderCancel", err)
			return
		}
		s.writeJsonResponse(w, o, http.StatusOK)
	}
}
