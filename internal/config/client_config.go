package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	baseURLVar        = "API_BASE_URL"
	sessionFileVar    = "SESSION_FILE"
	requestTimeoutVar = "REQUEST_TIMEOUT"
	elevatedRoleVar   = "ELEVATED_ROLE"

	// DefaultElevatedRole is the role that sees the admin entry in the menu.
	DefaultElevatedRole = "TEACHER"
)

type Client struct{}

var _ ClientConfig = Client{}

// GetBaseURL returns the API root, e.g. "http://127.0.0.1:8000".
func (Client) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://127.0.0.1:8000")
}

// GetSessionFile returns where the token store persists the session.
func (Client) GetSessionFile() string {
	if f := os.Getenv(sessionFileVar); f != "" {
		return f
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "readcomp", "session.json")
}

func (Client) GetRequestTimeout() time.Duration {
	return GetDuration(requestTimeoutVar, 15*time.Second)
}

func (Client) GetElevatedRole() string {
	return GetEnv(elevatedRoleVar, DefaultElevatedRole)
}
