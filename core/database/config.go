package database

// Config holds store connection settings.
type Config struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`

	// RetryDelayMS is the fixed pause between supervisor connection
	// attempts. Zero selects the 2000ms default.
	RetryDelayMS int `yaml:"retry_delay_ms" envconfig:"DB_RETRY_DELAY_MS"`
	// PingIntervalSeconds sets the keepalive probe period. Zero selects
	// the 30s default; a negative value disables the probe.
	PingIntervalSeconds int `yaml:"ping_interval_seconds" envconfig:"DB_PING_INTERVAL_SECONDS"`
	// ConnectTimeoutSeconds bounds the wait for the first successful
	// connection at startup. Zero waits forever.
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds" envconfig:"DB_CONNECT_TIMEOUT_SECONDS"`
}
