package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from a file and environment variables.
func Load(logger *slog.Logger, fileName string) (*Config, error) {
	v := viper.New()

	// 1. Set default values
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.auth.jwtSecret", "default-secret-key-change-me")
	v.SetDefault("transport.readTimeout", "75s")
	v.SetDefault("presence.inactivityTimeout", "2m")
	v.SetDefault("presence.reapInterval", "15s")
	v.SetDefault("notify.offlineThreshold", "5m")
	v.SetDefault("notify.cooldownWindow", "1h")
	v.SetDefault("notify.retention", "24h")
	v.SetDefault("notify.cleanupInterval", "6h")
	v.SetDefault("notify.subjectPrefix", "[EngageSphere]")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("storage.path", "engagesphere.db")
	v.SetDefault("log.level", "info")

	// 2. Set config file details
	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".") // look for config in the working directory

	// 3. Set up environment variable handling
	v.SetEnvPrefix("ENGAGESPHERE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Read the configuration file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
		logger.Warn("Config file not found. ignoring error and relying on defaults/env vars")
	}

	// 5. Unmarshal the configuration into our struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Presence.InactivityTimeout <= 0 {
		return fmt.Errorf("presence.inactivityTimeout must be positive, got %s", c.Presence.InactivityTimeout)
	}
	if c.Presence.ReapInterval <= 0 {
		return fmt.Errorf("presence.reapInterval must be positive, got %s", c.Presence.ReapInterval)
	}
	// Retention must outlive the cooldown window, otherwise a purged record
	// would re-enable notifications inside an active cooldown.
	if c.Notify.Retention <= c.Notify.CooldownWindow {
		return fmt.Errorf("notify.retention (%s) must be longer than notify.cooldownWindow (%s)",
			c.Notify.Retention, c.Notify.CooldownWindow)
	}
	return nil
}
