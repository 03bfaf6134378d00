package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	portEnvVar  = "PORT"
	appNameVar  = "APP_NAME"
	envVar      = "ENV"
	logLevelVar = "LOG_LEVEL"
)

var (
	fileValues     = map[string]string{}
	fileValuesLock sync.RWMutex
)

// Load reads an optional .env file into the process environment and an optional flat
// YAML file whose keys act as defaults beneath real environment variables. A missing
// file is not an error; a missing config file clears previously loaded values.
func Load(envFile, configFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if configFile == "" {
		setFileValues(nil)
		return nil
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			setFileValues(nil)
			return nil
		}
		return fmt.Errorf("read %s: %w", configFile, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse %s: %w", configFile, err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		values[strings.ToUpper(k)] = fmt.Sprint(v)
	}

	setFileValues(values)
	return nil
}

func setFileValues(values map[string]string) {
	if values == nil {
		values = map[string]string{}
	}
	fileValuesLock.Lock()
	fileValues = values
	fileValuesLock.Unlock()
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8000")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Storefront Sessions")
}

func (EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(envVar, "DEV"))
}

func (e EnvVars) IsDev() bool {
	return e.GetEnv() == "DEV"
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetEnv returns the environment variable, then the config file value, then defaultValue
func GetEnv(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}

	fileValuesLock.RLock()
	value, ok := fileValues[envVar]
	fileValuesLock.RUnlock()
	if ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(envVar string, defaultValue int) int {
	value, err := strconv.Atoi(GetEnv(envVar, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(GetEnv(envVar, ""))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
