package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"auctionhouse/internal/auction"
	"auctionhouse/internal/money"
)

func (s Server) itemList() http.HandlerFunc {
	type response struct {
		Items []auction.ItemView `json:"items"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		vs, err := s.Engine.ListItems(r.Context())
		if err != nil {
			s.writeError(w, r, "itemList", err)
			return
		}
		s.writeJsonResponse(w, response{Items: vs}, http.StatusOK)
	}
}

func (s Server) itemGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := s.Engine.GetItem(r.Context(), mux.Vars(r)["itemID"])
		if err != nil {
			s.writeError(w, r, "itemGet", err)
			return
		}
		s.writeJsonResponse(w, v, http.StatusOK)
	}
}

func (s Server) itemCreate() http.HandlerFunc {
	type request struct {
		ItemID        string      `json:"item_id"`
		Title         string      `json:"title"`
		Description   string      `json:"description"`
		StartingPrice money.Money `json:"starting_price"`
		EndTime       time.Time   `json:"end_time"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc := getUserContext(r.Context())
		req := request{}
		if !s.decodeJSON(w, r, "itemCreate", &req) {
			return
		}

		i, err := s.Engine.CreateItem(r.Context(), auction.NewItem{
			ID:            req.ItemID,
			Title:         req.Title,
			Description:   req.Description,
			StartingPrice: req.StartingPrice,
			EndTime:       req.EndTime,
		})
		if err != nil {
			s.writeError(w, r, "itemCreate", err)
			return
		}
		s.Logger.Infof("itemCreate: UserID: %s created Item: %s, TraceID: %s",
			uc.userID, i.ID, getTraceContext(r.Context()).traceID)
		s.writeJsonResponse(w, i, http.StatusCreated)
	}
}

func (s Server) bidPlace() http.HandlerFunc {
	type request struct {
		Amount money.Money `json:"amount"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc := getUserContext(r.Context())
		req := request{}
		if !s.decodeJSON(w, r, "bidPlace", &req) {
			return
		}

		out, err := s.Engine.PlaceBid(r.Context(), mux.Vars(r)["itemID"], uc.userID, req.Amount)
		if err != nil {
			s.writeError(w, r, "bidPlace", err)
			return
		}
		s.writeJsonResponse(w, out, http.StatusCreated)
	}
}

func (s Server) proxyBidRegister() http.HandlerFunc {
	type request struct {
		MaxBid money.Money `json:"max_bid"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc := getUserContext(r.Context())
		req := request{}
		if !s.decodeJSON(w, r, "proxyBidRegister", &req) {
			return
		}

		out, err := s.Engine.RegisterProxyBid(r.Context(), mux.Vars(r)["itemID"], uc.userID, req.MaxBid)
		if err != nil {
			s.writeError(w, r, "proxyBidRegister", err)
			return
		}
		s.writeJsonResponse(w, out, http.StatusCreated)
	}
}

func (s Server) itemFinalize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i, err := s.Engine.Finalize(r.Context(), mux.Vars(r)["itemID"])
		if err != nil {
			s.writeError(w, r, "itemFinalize", err)
			return
		}
		s.writeJsonResponse(w, i, http.StatusOK)
	}
}

func (s Server) itemCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uc := getUserContext(r.Context())
		o, err := s.Engine.Checkout(r.Context(), mux.Vars(r)["itemID"], uc.userID)
		if err != nil {
			s.writeError(w, r, "itemCheckout", err)
			return
		}
		s.writeJsonResponse(w, o, http.StatusCreated)
	}
}
