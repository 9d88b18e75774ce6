// Package server is the HTTP adapter in front of the auction engine.
package server

import (
	"github.com/lestrrat-go/jwx/v2/jwk"

	"auctionhouse/internal/auction"
)

type Server struct {
	Engine        auction.Engine
	Logger        logger
	AuthSecretKey jwk.Key
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
	Tracef(format string, v ...any)
}
