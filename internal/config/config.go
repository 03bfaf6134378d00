package config

import (
	"fmt"
	"time"
)

type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	IsDev() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type SessionConfig interface {
	GetSecretKey() string
	GetAccessTokenExpiry() time.Duration
	GetSweepInterval() time.Duration
	GetSeedAdminEmail() string
	GetSeedAdminPassword() string
}

type StorageConfig interface {
	GetStorageDriver() string
	GetPrincipalDriver() string
	GetMongoURL() string
	GetDBName() string
	GetRedisAddr() string
	GetRedisDB() int
	GetRedisPrefix() string
	GetPostgresDSN() string
}

type mainConfig struct {
	EnvVars
	Cors
	Session
	Storage
}

func New() Config {
	return mainConfig{}
}

// Validate rejects configurations the service must not start with.
func Validate(c Config) error {
	if !c.IsDev() && c.GetSecretKey() == devSecretKey {
		return fmt.Errorf("%s must be set outside the DEV environment", secretKeyVar)
	}
	switch c.GetStorageDriver() {
	case DriverMemory:
		if !c.IsDev() {
			return fmt.Errorf("storage driver %q is only allowed in DEV", DriverMemory)
		}
	case DriverMongo, DriverRedis, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.GetStorageDriver())
	}
	switch c.GetPrincipalDriver() {
	case DriverMemory:
		if !c.IsDev() {
			return fmt.Errorf("principal driver %q is only allowed in DEV", DriverMemory)
		}
	case DriverMongo:
	default:
		return fmt.Errorf("unknown principal driver %q", c.GetPrincipalDriver())
	}
	if c.GetAccessTokenExpiry() < time.Second {
		return fmt.Errorf("%s must be positive", accessTokenExpiryVar)
	}
	return nil
}
