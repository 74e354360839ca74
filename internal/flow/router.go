package flow

import (
	"context"

	"climbd/internal/token"
)

// EntryRouter picks the first screen at launch.
type EntryRouter struct {
	deps Deps
}

func NewEntryRouter(deps Deps) *EntryRouter {
	return &EntryRouter{deps: deps.withDefaults()}
}

// Route navigates to the upload screen when a stored token is still valid
// and to the login screen otherwise, clearing an expired token first.
// Storage failures count as signed out.
func (r *EntryRouter) Route(ctx context.Context) Route {
	route := r.resolve(ctx)
	r.deps.Navigator.Navigate(route)
	return route
}

func (r *EntryRouter) resolve(ctx context.Context) Route {
	log := r.deps.Logger

	expiresAt, err := r.deps.Tokens.ExpiresAt(ctx)
	if err != nil {
		log.Error("checking auth status", "error", err)
		return RouteLogin
	}
	if expiresAt == "" {
		return RouteLogin
	}

	if token.IsExpired(expiresAt, r.deps.Now()) {
		log.Info("stored token expired", "expires_at", expiresAt)
		if err := r.deps.Tokens.ClearAll(ctx); err != nil {
			log.Error("clearing expired tokens", "error", err)
		}
		return RouteLogin
	}
	return RouteUploadActivity
}
