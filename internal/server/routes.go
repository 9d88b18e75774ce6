package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMw, s.maxBytesMw)
	r.NotFoundHandler = s.loggingMw(s.notFoundHandler())

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/items", s.itemList()).Methods(http.MethodGet)
	api.HandleFunc("/items/{itemID}", s.itemGet()).Methods(http.MethodGet)
	api.HandleFunc("/items/{itemID}/finalize", s.itemFinalize()).Methods(http.MethodPost)

	itemAPI := api.PathPrefix("/items").Subrouter()
	itemAPI.Use(s.authMw)
	itemAPI.HandleFunc("", s.itemCreate()).Methods(http.MethodPost)
	itemAPI.HandleFunc("/{itemID}/bids", s.bidPlace()).Methods(http.MethodPost)
	itemAPI.HandleFunc("/{itemID}/proxy-bids", s.proxyBidRegister()).Methods(http.MethodPost)
	itemAPI.HandleFunc("/{itemID}/checkout", s.itemCheckout()).Methods(http.MethodPost)

	userAPI := api.PathPrefix("/user").Subrouter()
	userAPI.Use(s.authMw)
	userAPI.HandleFunc("/bids", s.userBids()).Methods(http.MethodGet)
	userAPI.HandleFunc("/orders", s.userOrders()).Methods(http.MethodGet)
	userAPI.PathPrefix("").Handler(s.notFoundHandler())

	orderAPI := api.PathPrefix("/orders").Subrouter()
	orderAPI.Use(s.authMw)
	orderAPI.HandleFunc("/{orderID}", s.orderGet()).Methods(http.MethodGet)
	orderAPI.HandleFunc("/{orderID}/payment-intent", s.orderPaymentIntent()).Methods(http.MethodPost)
	orderAPI.HandleFunc("/{orderID}/confirm", s.orderConfirm()).Methods(http.MethodPost)
	orderAPI.HandleFunc("/{orderID}/cancel", s.orderCancel()).Methods(http.MethodPost)
	orderAPI.PathPrefix("").Handler(s.notFoundHandler())

	return r
}
