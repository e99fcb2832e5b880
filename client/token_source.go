package client

import (
	"github.com/jrsteele09/readcomp/internal/errors"
	"github.com/jrsteele09/readcomp/sessions"
	"github.com/jrsteele09/readcomp/token"
	"golang.org/x/oauth2"
)

const tokenTypeBearer = "Bearer"

var _ oauth2.TokenSource = (*StoreTokenSource)(nil)

// StoreTokenSource serves the access token currently held in a session
// store. It never refreshes; the client owns the refresh protocol.
type StoreTokenSource struct {
	store sessions.Store
}

func NewStoreTokenSource(store sessions.Store) *StoreTokenSource {
	return &StoreTokenSource{store: store}
}

// Token returns errors.ErrNoSession when the store holds no access token.
func (s *StoreTokenSource) Token() (*oauth2.Token, error) {
	sess, ok, err := s.store.Read()
	if err != nil {
		return nil, err
	}
	if !ok || sess.AccessToken == "" {
		return nil, errors.ErrNoSession
	}
	return bearerToken(sess), nil
}

func bearerToken(sess sessions.Session) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		TokenType:    tokenTypeBearer,
	}
	// Expiry is informational; an undecodable token is still presented
	// and the server decides.
	if claims, err := token.Decode(sess.AccessToken); err == nil {
		tok.Expiry = claims.ExpiresAt
	}
	return tok
}
