package guard_test

import (
	"context"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/readcomp/guard"
	"github.com/jrsteele09/readcomp/internal/errors"
	"github.com/jrsteele09/readcomp/sessions/storefakes"
	"github.com/jrsteele09/readcomp/token"
	"github.com/stretchr/testify/require"
)

type navigatorSpy struct {
	reasons []string
}

func (n *navigatorSpy) RedirectToLogin(_ context.Context, reason string) {
	n.reasons = append(n.reasons, reason)
}

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func signed(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	raw, err := token.NewHMACSigner("test").Sign(claims)
	require.NoError(t, err)
	return raw
}

func withNow(t *testing.T) {
	t.Helper()
	prev := token.NowTimeFunc
	token.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { token.NowTimeFunc = prev })
}

func TestMountWithoutSessionRedirects(t *testing.T) {
	nav := &navigatorSpy{}
	g := guard.New(storefakes.NewMemoryStore(), nav)

	m := g.Mount(context.Background())
	require.Equal(t, guard.Redirecting, m.State())
	require.Equal(t, []string{guard.ReasonNoSession}, nav.reasons)

	_, _, ok := m.Session()
	require.False(t, ok)
}

func TestMountExpiredTokenClearsAndRedirects(t *testing.T) {
	withNow(t)
	raw := signed(t, jwtlib.MapClaims{"user_id": 1, "exp": now.Add(-time.Minute).Unix()})
	store := storefakes.NewMemoryStoreWith(raw, "R1")
	nav := &navigatorSpy{}

	m := guard.New(store, nav).Mount(context.Background())
	require.Equal(t, guard.Redirecting, m.State())
	require.Equal(t, []string{guard.ReasonTokenExpired}, nav.reasons)

	_, ok, _ := store.Read()
	require.False(t, ok)
}

func TestMountTokenAtExpiryInstantIsExpired(t *testing.T) {
	withNow(t)
	raw := signed(t, jwtlib.MapClaims{"user_id": 1, "exp": now.Unix()})
	nav := &navigatorSpy{}

	m := guard.New(storefakes.NewMemoryStoreWith(raw, "R1"), nav).Mount(context.Background())
	require.Equal(t, guard.Redirecting, m.State())
}

func TestMountMalformedTokenClearsAndRedirects(t *testing.T) {
	store := storefakes.NewMemoryStoreWith("not-a-jwt", "R1")
	nav := &navigatorSpy{}

	_, err := guard.New(store, nav).RequireSession(context.Background())
	require.ErrorIs(t, err, errors.ErrRedirected)
	require.Equal(t, []string{guard.ReasonMalformedToken}, nav.reasons)
	require.Equal(t, 1, store.Clears)
}

func TestMountAuthenticated(t *testing.T) {
	withNow(t)
	raw := signed(t, jwtlib.MapClaims{
		"user_id":  42,
		"username": "sam",
		"role":     "STUDENT",
		"exp":      now.Add(time.Hour).Unix(),
	})
	store := storefakes.NewMemoryStoreWith(raw, "R1")
	nav := &navigatorSpy{}

	m, err := guard.New(store, nav).RequireSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, guard.Authenticated, m.State())
	require.Empty(t, nav.reasons)

	sess, claims, ok := m.Session()
	require.True(t, ok)
	require.Equal(t, raw, sess.AccessToken)
	require.Equal(t, "42", claims.Subject)
	require.Equal(t, "STUDENT", m.Role())
}

func TestCachedRoleWinsOverClaim(t *testing.T) {
	withNow(t)
	raw := signed(t, jwtlib.MapClaims{"user_id": 42, "exp": now.Add(time.Hour).Unix()})
	store := storefakes.NewMemoryStoreWith(raw, "R1")
	require.NoError(t, store.SaveRole("TEACHER"))

	m := guard.New(store, &navigatorSpy{}).Mount(context.Background())
	require.Equal(t, "TEACHER", m.Role())
}

func TestSessionExpiredRedirects(t *testing.T) {
	nav := &navigatorSpy{}
	store := storefakes.NewMemoryStore()
	g := guard.New(store, nav)

	g.SessionExpired(context.Background())
	require.Equal(t, []string{guard.ReasonSessionExpired}, nav.reasons)
	require.Zero(t, store.Clears)
}

func TestMenu(t *testing.T) {
	labels := func(entries []guard.MenuEntry) []string {
		var out []string
		for _, e := range entries {
			out = append(out, e.Label)
		}
		return out
	}
	base := []string{"Competitions", "Achievements", "Profile", "Notifications", "About"}

	g := guard.New(storefakes.NewMemoryStore(), &navigatorSpy{})
	require.Equal(t, base, labels(g.Menu("STUDENT")))
	require.Equal(t, base, labels(g.Menu("")))
	require.Equal(t, append(base, "Admin Panel"), labels(g.Menu("TEACHER")))

	custom := guard.New(storefakes.NewMemoryStore(), &navigatorSpy{}, guard.WithElevatedRole("ADMIN"))
	require.Equal(t, base, labels(custom.Menu("TEACHER")))
	require.Contains(t, labels(custom.Menu("ADMIN")), "Admin Panel")
}
