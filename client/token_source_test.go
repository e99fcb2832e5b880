package client_test

import (
	"net/http"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/readcomp/client"
	"github.com/jrsteele09/readcomp/internal/errors"
	"github.com/jrsteele09/readcomp/sessions/storefakes"
	"github.com/jrsteele09/readcomp/token"
	"github.com/stretchr/testify/require"
)

func TestStoreTokenSource(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		_, err := client.NewStoreTokenSource(storefakes.NewMemoryStore()).Token()
		require.ErrorIs(t, err, errors.ErrNoSession)
	})

	t.Run("decodable token carries expiry", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		raw, err := token.NewHMACSigner("secret").Sign(jwtlib.MapClaims{"user_id": 7, "exp": exp.Unix()})
		require.NoError(t, err)

		tok, err := client.NewStoreTokenSource(storefakes.NewMemoryStoreWith(raw, "R1")).Token()
		require.NoError(t, err)
		require.True(t, tok.Expiry.Equal(exp))
		require.Equal(t, "R1", tok.RefreshToken)

		req, _ := http.NewRequest(http.MethodGet, "http://example.test/", nil)
		tok.SetAuthHeader(req)
		require.Equal(t, "Bearer "+raw, req.Header.Get("Authorization"))
	})

	t.Run("opaque token is still served", func(t *testing.T) {
		tok, err := client.NewStoreTokenSource(storefakes.NewMemoryStoreWith("opaque", "")).Token()
		require.NoError(t, err)
		require.Equal(t, "opaque", tok.AccessToken)
		require.True(t, tok.Expiry.IsZero())
	})
}
