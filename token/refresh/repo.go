package refresh

import (
	"time"
)

// Grant is the server-side record behind an opaque refresh token. Clients
// only ever see Token.
type Grant struct {
	Token     string
	UserID    int
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Repo stores grants keyed by their token. A user may hold several grants,
// one per signed-in client.
type Repo interface {
	Save(grant *Grant) error
	Get(token string) (*Grant, error)
	Delete(token string) error
	DeleteForUser(userID int) (int, error)
}
