package config

import "time"

type DevServer struct{}

var _ DevServerConfig = DevServer{}

func (DevServer) GetJWTSecret() string {
	return GetEnv("JWT_SECRET", "dev-secret-change-me")
}

func (DevServer) GetAccessTokenExpiry() time.Duration {
	return GetDuration("ACCESS_TOKEN_EXPIRY", 5*time.Minute)
}

func (DevServer) GetRefreshTokenExpiry() time.Duration {
	return GetDuration("REFRESH_TOKEN_EXPIRY", 24*time.Hour)
}

func (DevServer) GetRefreshTokenLength() int {
	return GetInt("REFRESH_TOKEN_LENGTH", 32) // 32 bytes = 256 bits
}

// GetSeedTeacherPassword is the password of the seeded teacher account.
// Empty means one is generated and printed at startup.
func (DevServer) GetSeedTeacherPassword() string {
	return GetEnv("SEED_TEACHER_PASSWORD", "")
}

func (DevServer) GetOTPExpiry() time.Duration {
	return GetDuration("OTP_EXPIRY", 10*time.Minute)
}
