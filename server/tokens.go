package server

import (
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/readcomp/token"
	"github.com/jrsteele09/readcomp/users"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// issueAccessToken signs a short lived access token for user.
func (s *Server) issueAccessToken(user *users.User) (string, error) {
	now := token.NowTimeFunc()
	claims := jwtlib.MapClaims{
		"token_type": tokenTypeAccess,
		"exp":        now.Add(s.config.GetAccessTokenExpiry()).Unix(),
		"iat":        now.Unix(),
		"jti":        uuid.NewString(),
		"user_id":    user.ID,
		"username":   user.Username,
		"role":       string(user.Role),
	}
	signed, err := s.signer.Sign(claims)
	if err != nil {
		return "", err
	}
	s.metrics.IncrementTokensIssued(tokenTypeAccess)
	return signed, nil
}

// issueTokens returns a new access token and a new refresh grant for user.
func (s *Server) issueTokens(user *users.User) (access, refreshToken string, err error) {
	access, err = s.issueAccessToken(user)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = s.refresh.Issue(user.ID)
	if err != nil {
		return "", "", err
	}
	s.metrics.IncrementTokensIssued(tokenTypeRefresh)
	return access, refreshToken, nil
}
