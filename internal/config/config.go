// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of environment variables overriding single config keys.
	EnvPrefix = "GOADCONSOLE"

	// EnvConfigJSON holds a complete JSON document merged over the file config.
	EnvConfigJSON = "GOADCONSOLE_CONFIG_JSON"

	defaultShutDownTime     = 5
	defaultBackendTimeout   = 30 * time.Second
	defaultPingPath         = "/api/activedirectory/health"
	defaultSearchMaxResults = 100
	defaultWorkspaceIdle    = 30 * time.Minute
	defaultSessionExpiry    = 8 * time.Hour
	defaultMaxAttempts      = 5
	defaultInitialDelay     = time.Second
	defaultMaxDelay         = 30 * time.Second
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, "main.toml"))
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config json from env")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the daemon can not start without and fills defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case "":
		c.DB.GormEngine = EngineSQLite
	case EngineSQLite, EngineMySQL, EnginePostgres:
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.Session.ExpiryTime == 0 {
		c.Webserver.Session.ExpiryTime = defaultSessionExpiry
	}

	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = defaultBackendTimeout
	}

	if c.Backend.PingPath == "" {
		c.Backend.PingPath = defaultPingPath
	}

	if c.Directory.SearchMaxResults <= 0 {
		c.Directory.SearchMaxResults = defaultSearchMaxResults
	}

	if c.Directory.WorkspaceIdleTimeout == 0 {
		c.Directory.WorkspaceIdleTimeout = defaultWorkspaceIdle
	}

	if c.Realtime.MaxAttempts <= 0 {
		c.Realtime.MaxAttempts = defaultMaxAttempts
	}

	if c.Realtime.InitialDelay == 0 {
		c.Realtime.InitialDelay = defaultInitialDelay
	}

	if c.Realtime.MaxDelay == 0 {
		c.Realtime.MaxDelay = defaultMaxDelay
	}

	return nil
}
