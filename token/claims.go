package token

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/readcomp/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// ErrMalformedToken is returned when a token cannot be decoded.
var ErrMalformedToken = errors.ErrMalformedToken

// Claims are the fields the client reads out of an access token.
type Claims struct {
	Subject   string    `json:"sub"`
	Username  string    `json:"username,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"exp"`
	TokenType string    `json:"token_type,omitempty"`
}

// Valid reports whether the token is still usable at now. A token exactly
// at its expiry instant is already invalid.
func (c *Claims) Valid(now time.Time) bool {
	return c.ExpiresAt.After(now)
}

// Expired is Valid at NowTimeFunc, negated.
func (c *Claims) Expired() bool {
	return !c.Valid(NowTimeFunc())
}

// Decode extracts claims from a JWT without verifying its signature. The
// server remains the authority on validity; this is only used to decide
// whether a stored session is worth presenting.
func Decode(rawToken string) (*Claims, error) {
	rawToken = strings.TrimSpace(rawToken)
	if strings.Count(rawToken, ".") != 2 {
		return nil, fmt.Errorf("%w: expected three segments", ErrMalformedToken)
	}

	unverified, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	mapClaims, ok := unverified.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrMalformedToken)
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrMalformedToken)
	}

	claims := &Claims{
		ExpiresAt: exp.Time,
		Subject:   subjectOf(mapClaims),
	}
	claims.Username, _ = mapClaims["username"].(string)
	claims.TokenType, _ = mapClaims["token_type"].(string)
	claims.Role, _ = mapClaims["role"].(string)
	if claims.Role == "" {
		claims.Role = firstRole(mapClaims["roles"])
	}
	return claims, nil
}

// firstRole returns the first string in a "roles" array claim.
func firstRole(v any) string {
	roles, _ := v.([]any)
	for _, r := range roles {
		if s, ok := r.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// subjectOf prefers the registered "sub" claim and falls back to "user_id",
// which may be encoded as a number.
func subjectOf(claims jwtlib.MapClaims) string {
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub
	}
	switch v := claims["user_id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}
