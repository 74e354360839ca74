package flow

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"climbd/internal/token"
)

func TestRouteWithoutTokensGoesToLogin(t *testing.T) {
	h := newHarness()
	route := NewEntryRouter(h.deps()).Route(context.Background())

	require.Equal(t, RouteLogin, route)
	require.Equal(t, []Route{RouteLogin}, h.nav.routes)
}

func TestRouteWithValidTokenGoesToUpload(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	require.NoError(t, h.tokens.SetAll(ctx, "a", "r", strconv.FormatInt(testNow.Unix()+3600, 10)))

	route := NewEntryRouter(h.deps()).Route(ctx)

	require.Equal(t, RouteUploadActivity, route)
	require.Equal(t, []Route{RouteUploadActivity}, h.nav.routes)
	rec, err := h.tokens.All(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", rec.AccessToken)
}

func TestRouteWithExpiredTokenClearsAndGoesToLogin(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	require.NoError(t, h.tokens.SetAll(ctx, "a", "r", strconv.FormatInt(testNow.Unix()-1, 10)))

	route := NewEntryRouter(h.deps()).Route(ctx)

	require.Equal(t, RouteLogin, route)
	require.Equal(t, []Route{RouteLogin}, h.nav.routes)
	require.NotContains(t, h.nav.routes, RouteUploadActivity)
	require.Equal(t, 0, h.storage.Len())
}

func TestRouteWithMalformedExpiryIsTreatedAsValid(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	require.NoError(t, h.tokens.SetAll(ctx, "a", "r", "not-a-number"))

	require.Equal(t, RouteUploadActivity, NewEntryRouter(h.deps()).Route(ctx))
}

func TestRouteStorageFailureGoesToLogin(t *testing.T) {
	h := newHarness()
	deps := h.deps()
	deps.Tokens = brokenTokens{err: errors.New("storage unavailable")}

	require.Equal(t, RouteLogin, NewEntryRouter(deps).Route(context.Background()))
	require.Equal(t, []Route{RouteLogin}, h.nav.routes)
}

type brokenTokens struct {
	err error
}

var _ TokenStore = brokenTokens{}

func (b brokenTokens) ExpiresAt(context.Context) (string, error) {
	return "", b.err
}

func (b brokenTokens) All(context.Context) (token.Record, error) {
	return token.Record{}, b.err
}

func (b brokenTokens) SetAll(context.Context, string, string, string) error {
	return b.err
}

func (b brokenTokens) ClearAll(context.Context) error {
	return b.err
}
