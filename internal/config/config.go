package config

import "time"

type Config interface {
	EnvConfig
	ClientConfig
	DevServerConfig
	CorsConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetPort() string
}

// ClientConfig is read by the CLI when it builds the API client and the guard.
type ClientConfig interface {
	GetBaseURL() string
	GetSessionFile() string
	GetRequestTimeout() time.Duration
	GetElevatedRole() string
}

// DevServerConfig holds the token settings of the local development API.
type DevServerConfig interface {
	GetJWTSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetSeedTeacherPassword() string
	GetOTPExpiry() time.Duration
}

type CorsConfig interface {
	GetAllowedOrigins() []string
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type mainConfig struct {
	EnvVars
	Client
	DevServer
	Cors
}

// New loads an optional .env file and returns the environment backed config.
func New() Config {
	LoadDotEnv()
	return mainConfig{}
}
