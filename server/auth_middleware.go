package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/token"
	"github.com/jrsteele09/readcomp/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated *users.User
	ContextKeyUser ContextKey = "user"
	// ContextKeyClaims stores the verified token claims
	ContextKeyClaims ContextKey = "claims"
)

const (
	detailNotAuthenticated = "Authentication credentials were not provided."
	detailTokenNotValid    = "Given token not valid for any token type"
	detailPermissionDenied = "You do not have permission to perform this action."
)

// RequireAuth is middleware that validates a Bearer access token and loads
// its user into the request context.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeDetail(w, http.StatusUnauthorized, detailNotAuthenticated)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
				writeTokenNotValid(w)
				return
			}

			claims, err := token.Verify(s.signer, parts[1])
			if err != nil {
				writeTokenNotValid(w)
				return
			}
			if tokenType, _ := claims["token_type"].(string); tokenType != tokenTypeAccess {
				writeTokenNotValid(w)
				return
			}

			user, err := s.userFromClaims(claims)
			if err != nil || !user.Verified {
				writeTokenNotValid(w)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = context.WithValue(ctx, ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireStaff is middleware that only lets teachers and admins through.
// Should be chained after RequireAuth to ensure the user is present.
func (s *Server) RequireStaff() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := currentUser(r)
			if user == nil || (user.Role != apimodel.RoleTeacher && user.Role != apimodel.RoleAdmin) {
				writeDetail(w, http.StatusForbidden, detailPermissionDenied)
				return
			}
			next(w, r)
		}
	}
}

func (s *Server) userFromClaims(claims map[string]any) (*users.User, error) {
	var id int
	switch v := claims["user_id"].(type) {
	case float64:
		id = int(v)
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		id = parsed
	}
	return s.repos.Users.GetByID(id)
}

// currentUser is the user RequireAuth stored on the request.
func currentUser(r *http.Request) *users.User {
	user, _ := r.Context().Value(ContextKeyUser).(*users.User)
	return user
}

func writeTokenNotValid(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"detail": detailTokenNotValid,
		"code":   "token_not_valid",
	})
}
