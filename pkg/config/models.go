package config

import "time"

type Config struct {
	Server    ServerConfig
	Transport TransportConfig
	Presence  PresenceConfig
	Notify    NotifyConfig
	SMTP      SMTPConfig `mapstructure:"smtp"`
	Storage   StorageConfig
	Log       LogConfig
}

type ServerConfig struct {
	Address string
	Auth    AuthConfig
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwtSecret"`
}

type TransportConfig struct {
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
}

// PresenceConfig controls the in-memory registry and its reaper.
type PresenceConfig struct {
	// InactivityTimeout is how long a connection may stay silent before the
	// reaper evicts it.
	InactivityTimeout time.Duration `mapstructure:"inactivityTimeout"`
	ReapInterval      time.Duration `mapstructure:"reapInterval"`
}

// NotifyConfig controls the offline-email decision. OfflineThreshold is kept
// separate from Presence.InactivityTimeout: eviction tunes registry
// cleanliness, the threshold tunes how aggressively users get emailed.
type NotifyConfig struct {
	OfflineThreshold time.Duration `mapstructure:"offlineThreshold"`
	CooldownWindow   time.Duration `mapstructure:"cooldownWindow"`
	Retention        time.Duration `mapstructure:"retention"`
	CleanupInterval  time.Duration `mapstructure:"cleanupInterval"`
	SubjectPrefix    string        `mapstructure:"subjectPrefix"`
}

// SMTPConfig configures the outbound mailer. An empty Host leaves the
// service running without email notifications.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

type StorageConfig struct {
	// Path is the sqlite database file. ":memory:" is accepted for dev runs.
	Path string
}

type LogConfig struct {
	Level string
}
