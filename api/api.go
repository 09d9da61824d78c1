// Package api exposes a small REST surface over a keeper.Keeper. It is a
// caller of the core contract: the keeper itself has no network surface.
package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/keyfort/keyfort/keeper"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	keeper *keeper.Keeper
}

// New creates a new API instance over the given Keeper.
func New(k *keeper.Keeper) *API {
	return &API{keeper: k}
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Route("/v1", func(r chi.Router) {
		r.Post("/encrypt", a.handleEncrypt)
		r.Post("/decrypt", a.handleDecrypt)
		r.Get("/status", a.handleStatus)
	})

	return r
}
