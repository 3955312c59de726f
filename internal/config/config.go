package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DeploymentPlaceholder is substituted with the deployment id in DR_API_URL.
const DeploymentPlaceholder = "{deployment_id}"

var ErrMissingValue = errors.New("required configuration value not set")

type Config struct {
	AppName  string
	LogLevel string
	AppEnv   string
	Port     string

	APIURL       string
	APIKey       string
	DataRobotKey string
	DeploymentID string
	Timeout      time.Duration

	UploadDir      string
	MaxUploadBytes int64
	ThumbnailSize  uint

	StatsDAddr string
}

// Load reads the process configuration from v. Callers normally pass a viper
// instance with AutomaticEnv enabled; see FromEnv.
func Load(v *viper.Viper) (Config, error) {
	v.SetDefault("APP_NAME", "breed-api")
	v.SetDefault("APP_LOG_LEVEL", "INFO")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DR_TIMEOUT_SECONDS", 30)
	v.SetDefault("UPLOAD_DIR", "static/uploads")
	v.SetDefault("MAX_UPLOAD_BYTES", 16*1024*1024)
	v.SetDefault("THUMBNAIL_SIZE", 512)

	for _, key := range []string{"DR_API_URL", "DR_API_KEY", "DR_DATAROBOT_KEY", "DR_DEPLOYMENT_ID"} {
		if strings.TrimSpace(v.GetString(key)) == "" {
			return Config{}, fmt.Errorf("%w: %s", ErrMissingValue, key)
		}
	}

	apiURL := strings.TrimSpace(v.GetString("DR_API_URL"))
	if !strings.Contains(apiURL, DeploymentPlaceholder) {
		return Config{}, fmt.Errorf("invalid DR_API_URL: %q has no %s placeholder", apiURL, DeploymentPlaceholder)
	}

	timeout := v.GetInt("DR_TIMEOUT_SECONDS")
	if timeout <= 0 {
		return Config{}, fmt.Errorf("invalid DR_TIMEOUT_SECONDS: %d", timeout)
	}
	maxUpload := v.GetInt64("MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		return Config{}, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %d", maxUpload)
	}
	thumb := v.GetInt("THUMBNAIL_SIZE")
	if thumb <= 0 {
		return Config{}, fmt.Errorf("invalid THUMBNAIL_SIZE: %d", thumb)
	}

	return Config{
		AppName:        v.GetString("APP_NAME"),
		LogLevel:       strings.ToUpper(v.GetString("APP_LOG_LEVEL")),
		AppEnv:         v.GetString("APP_ENV"),
		Port:           v.GetString("PORT"),
		APIURL:         apiURL,
		APIKey:         strings.TrimSpace(v.GetString("DR_API_KEY")),
		DataRobotKey:   strings.TrimSpace(v.GetString("DR_DATAROBOT_KEY")),
		DeploymentID:   strings.TrimSpace(v.GetString("DR_DEPLOYMENT_ID")),
		Timeout:        time.Duration(timeout) * time.Second,
		UploadDir:      v.GetString("UPLOAD_DIR"),
		MaxUploadBytes: maxUpload,
		ThumbnailSize:  uint(thumb),
		StatsDAddr:     v.GetString("STATSD_ADDR"),
	}, nil
}

// FromEnv loads the configuration from environment variables.
func FromEnv() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	return Load(v)
}
