package config

import "time"

const (
	secretKeyVar         = "SECRET_KEY"
	accessTokenExpiryVar = "ACCESS_TOKEN_EXPIRE_MINUTES"
	sweepIntervalVar     = "SWEEP_INTERVAL"
	seedAdminEmailVar    = "SEED_ADMIN_EMAIL"
	seedAdminPasswordVar = "SEED_ADMIN_PASSWORD"

	devSecretKey = "your-secret-key-here-change-in-production"
)

type Session struct{}

var _ SessionConfig = Session{}

// GetSecretKey returns the HMAC signing secret. Changing it invalidates every
// outstanding credential, so rotation is an administrative action.
func (Session) GetSecretKey() string {
	return GetEnv(secretKeyVar, devSecretKey)
}

func (Session) GetAccessTokenExpiry() time.Duration {
	return time.Duration(getEnvInt(accessTokenExpiryVar, 30)) * time.Minute
}

func (Session) GetSweepInterval() time.Duration {
	return getEnvDuration(sweepIntervalVar, time.Hour)
}

func (Session) GetSeedAdminEmail() string {
	return GetEnv(seedAdminEmailVar, "")
}

func (Session) GetSeedAdminPassword() string {
	return GetEnv(seedAdminPasswordVar, "")
}
