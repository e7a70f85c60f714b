package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var gitSHA string
var buildDate string

// Load reads KEY=VALUE pairs from .env in the working directory, if present.
// Variables already set in the environment win.
func Load() error {
	return LoadFile(".env")
}

func LoadFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func GetBackendURL() string {
	value, exists := os.LookupEnv("CATALOG_SITE_BACKEND_URL")
	if exists {
		return strings.TrimSuffix(value, "/")
	}
	return "http://localhost:3000"
}

func GetListenAddr() string {
	value, exists := os.LookupEnv("CATALOG_SITE_LISTEN_ADDR")
	if exists {
		return value
	}
	return ":8080"
}

func GetDataDir() string {
	value, exists := os.LookupEnv("CATALOG_SITE_DATA_DIR")
	if exists {
		return value
	}
	return "data"
}

// defaults to GetDataDir() / config
func GetConfigDir() string {
	value, exists := os.LookupEnv("CATALOG_SITE_CONFIG_DIR")
	if exists {
		return value
	}
	return filepath.Join(GetDataDir(), "config")
}

func GetAdminInitialPassword() (string, error) {
	key := "CATALOG_SITE_ADMIN_INITIAL_PASSWORD"
	value, exists := os.LookupEnv(key)
	if exists {
		return value, nil
	}
	return "", fmt.Errorf("please set %s", key)
}

func GetSessionAuthKey() ([]byte, error) {
	key := "CATALOG_SITE_SESSION_AUTH_KEY"
	value, exists := os.LookupEnv(key)
	if exists {
		return []byte(value), nil
	}
	return []byte{}, fmt.Errorf("please set %s", key)
}

func GetSecure() bool {
	key := "CATALOG_SITE_SECURE"
	if value, exists := os.LookupEnv(key); exists {
		lower := strings.ToLower(value)
		if lower == "on" || lower == "1" || lower == "true" || lower == "yes" {
			return true
		}
	}
	return false
}

// timeout applied to each request against the catalog backend
func GetRequestTimeout() time.Duration {
	return getDuration("CATALOG_SITE_REQUEST_TIMEOUT", 10*time.Second)
}

// 0 disables the periodic refresh
func GetRefreshInterval() time.Duration {
	return getDuration("CATALOG_SITE_REFRESH_INTERVAL", 0)
}

// how long failed backend writes are kept in the database
func GetFailureRetention() time.Duration {
	return getDuration("CATALOG_SITE_FAILURE_RETENTION", 30*24*time.Hour)
}

// requests per second against the catalog backend, 0 means unlimited
func GetBackendRateLimit() float64 {
	key := "CATALOG_SITE_BACKEND_RPS"
	if value, exists := os.LookupEnv(key); exists {
		rps, err := strconv.ParseFloat(value, 64)
		if err == nil && rps >= 0 {
			return rps
		}
	}
	return 10
}

// defaults to debug
func GetLogLevel() logrus.Level {
	if value, exists := os.LookupEnv("CATALOG_SITE_LOG_LEVEL"); exists {
		level, err := logrus.ParseLevel(value)
		if err == nil {
			return level
		}
	}
	return logrus.DebugLevel
}

func getDuration(key string, def time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil && d >= 0 {
			return d
		}
	}
	return def
}

func GetGitSHA() string {
	if gitSHA == "" {
		return "<not provided>"
	} else {
		return gitSHA
	}
}

func GetBuildDate() string {
	if buildDate == "" {
		return "<not provided>"
	} else {
		return buildDate
	}
}
