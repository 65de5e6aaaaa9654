package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

type DatabaseDriver string

const (
	DatabaseDriverSQLite DatabaseDriver = "sqlite"
	DatabaseDriverMySQL  DatabaseDriver = "mysql"
)

type EmailMode string

const (
	EmailModeRelay EmailMode = "relay"
	EmailModeSMTP  EmailMode = "smtp"
)

// Config holds the configuration for the NeuroFit server and its dependencies.
type Config struct {
	// Listen is the address the NeuroFit server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the base URL of the NeuroFit server.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// SessionKey is the key used to sign session cookies.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the maximum age of a session in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// SecureCookies marks the session cookie as HTTPS only.
	SecureCookies bool `yaml:"secure_cookies" mapstructure:"secure_cookies"`
	// APIKey grants access to administrative endpoints via the X-API-Key header.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// AdminUsers lists usernames allowed to run administrative actions from a browser session.
	AdminUsers []string `yaml:"admin_users" mapstructure:"admin_users"`
	// StaticDir is the directory static assets (meditation audio) are served from.
	StaticDir string `yaml:"static_dir" mapstructure:"static_dir"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Cache holds the cache configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Alert holds the emergency alert configuration.
	Alert *AlertConfig `yaml:"alert" mapstructure:"alert"`
	// Gravatar holds the avatar configuration of the navigation bar.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar profile pictures should be shown.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to show if the user has no Gravatar (e.g. "mp", "identicon").
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating of the image (g, pg, r, x).
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Driver selects the gorm dialector ("sqlite" or "mysql").
	Driver DatabaseDriver `yaml:"driver" mapstructure:"driver"`
	// Path is the path to the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
	// DSN is the mysql data source name.
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// CacheConfig holds the configuration for the user cache.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the address of the redis server if using redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// TTL is how long a resolved user stays cached.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// AlertConfig holds the configuration of the emergency alert channels.
type AlertConfig struct {
	// Timeout bounds every single channel delivery.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Email holds the email channel configuration.
	Email *EmailConfig `yaml:"email" mapstructure:"email"`
	// SMS holds the SMS gateway configuration.
	SMS *SMSConfig `yaml:"sms" mapstructure:"sms"`
}

// EmailConfig holds the email channel configuration.
type EmailConfig struct {
	// Mode selects the transport, either "relay" (HTTPS JSON relay) or "smtp".
	Mode EmailMode `yaml:"mode" mapstructure:"mode"`
	// RelayURL is the endpoint of the HTTPS email relay.
	RelayURL string `yaml:"relay_url" mapstructure:"relay_url"`
	// SMTPHost is the SMTP server host.
	SMTPHost string `yaml:"smtp_host" mapstructure:"smtp_host"`
	// SMTPPort is the SMTP server port.
	SMTPPort int `yaml:"smtp_port" mapstructure:"smtp_port"`
	// Username is the SMTP username.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the SMTP password.
	Password string `yaml:"password" mapstructure:"password"`
	// FromEmail is the email address from which alerts are sent.
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	// FromName is the name from which alerts are sent.
	FromName string `yaml:"from_name" mapstructure:"from_name"`
	// UseTLS indicates whether to use STARTTLS for the SMTP connection.
	UseTLS bool `yaml:"use_tls" mapstructure:"use_tls"`
	// UseSSL indicates whether to use SSL for the SMTP connection.
	UseSSL bool `yaml:"use_ssl" mapstructure:"use_ssl"`
	// InsecureSkipVerify indicates whether to skip TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// SMSConfig holds the SMS gateway configuration.
type SMSConfig struct {
	// URL is the endpoint of the SMS gateway.
	URL string `yaml:"url" mapstructure:"url"`
	// APIKey is the static key sent with every request.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// APIKeyHeader is the header carrying the API key.
	APIKeyHeader string `yaml:"api_key_header" mapstructure:"api_key_header"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	v := viper.New()

	bindNestedEnv(v)
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("NEUROFIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.neurofit")
		v.AddConfigPath("/etc/neurofit")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with the NEUROFIT_ prefix override config file values")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:5000")
	v.SetDefault("server_url", "http://localhost:5000")
	v.SetDefault("session_key", "")
	v.SetDefault("session_max_age", 172800) // 48 hours
	v.SetDefault("secure_cookies", false)
	v.SetDefault("api_key", "")
	v.SetDefault("admin_users", []string{})
	v.SetDefault("static_dir", "./static")

	// Database defaults
	v.SetDefault("database.driver", DatabaseDriverSQLite)
	v.SetDefault("database.path", "./data/neurofit.db")
	v.SetDefault("database.dsn", "")

	// Cache defaults
	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 10*time.Minute)

	// Alert defaults
	v.SetDefault("alert.timeout", 10*time.Second)
	v.SetDefault("alert.email.mode", EmailModeRelay)
	v.SetDefault("alert.email.relay_url", "")
	v.SetDefault("alert.email.smtp_host", "")
	v.SetDefault("alert.email.smtp_port", 587)
	v.SetDefault("alert.email.username", "")
	v.SetDefault("alert.email.password", "")
	v.SetDefault("alert.email.from_email", "")
	v.SetDefault("alert.email.from_name", "NeuroFit")
	v.SetDefault("alert.email.use_tls", true)
	v.SetDefault("alert.email.use_ssl", false)
	v.SetDefault("alert.email.insecure_skip_verify", false)
	v.SetDefault("alert.sms.api_key_header", "authorization")

	// Gravatar defaults
	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "mp")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 40)
}

// the auto env function from viper only binds keys it already knows about.
// The sms url and key have no default on purpose, so they are bound explicitly.
func bindNestedEnv(v *viper.Viper) {
	v.MustBindEnv("alert.sms.url", "NEUROFIT_ALERT_SMS_URL")
	v.MustBindEnv("alert.sms.api_key", "NEUROFIT_ALERT_SMS_API_KEY")
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing neurofit config")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}

	if c.SessionMaxAge < 0 {
		return fmt.Errorf("session max age must not be negative")
	}

	if c.Database == nil {
		return fmt.Errorf("missing database config")
	}
	switch c.Database.Driver {
	case DatabaseDriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required when using sqlite")
		}
	case DatabaseDriverMySQL:
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required when using mysql")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is configured")
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
	} else {
		c.Cache = &CacheConfig{
			Type: CacheTypeMemory,
		}
	}

	if c.Alert == nil {
		c.Alert = &AlertConfig{}
	}
	if c.Alert.Timeout <= 0 {
		return fmt.Errorf("alert timeout must be greater than 0")
	}

	if e := c.Alert.Email; e != nil {
		switch e.Mode {
		case EmailModeRelay:
			// an empty relay URL disables the channel
		case EmailModeSMTP:
			if e.SMTPHost == "" {
				return fmt.Errorf("SMTP host is required when email mode is smtp")
			}
			if e.FromEmail == "" {
				return fmt.Errorf("from email is required when email mode is smtp")
			}
		default:
			return fmt.Errorf("unsupported email mode %q", e.Mode)
		}
	}

	if s := c.Alert.SMS; s != nil && s.URL != "" {
		if s.APIKey == "" {
			return fmt.Errorf("sms API key is required when the sms gateway is configured")
		}
		if s.APIKeyHeader == "" {
			return fmt.Errorf("sms API key header is required when the sms gateway is configured")
		}
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = urlSanitize(c.Listen)

	if c.ServerURL != "" {
		c.ServerURL = urlSanitize(c.ServerURL)
	}

	for i, u := range c.AdminUsers {
		c.AdminUsers[i] = strings.TrimSpace(u)
	}

	if c.Alert != nil {
		if c.Alert.Email != nil {
			c.Alert.Email.RelayURL = strings.TrimSpace(c.Alert.Email.RelayURL)
		}
		if c.Alert.SMS != nil {
			c.Alert.SMS.URL = strings.TrimSpace(c.Alert.SMS.URL)
		}
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}

// IsAdmin reports whether the given username is listed in admin_users.
// Usernames are unique case-sensitively, so is the match.
func (c *Config) IsAdmin(username string) bool {
	if c == nil || username == "" {
		return false
	}
	for _, admin := range c.AdminUsers {
		if admin == username {
			return true
		}
	}
	return false
}

// EmailEnabled reports whether an email transport is configured.
func (c *AlertConfig) EmailEnabled() bool {
	if c == nil || c.Email == nil {
		return false
	}
	switch c.Email.Mode {
	case EmailModeRelay:
		return c.Email.RelayURL != ""
	case EmailModeSMTP:
		return c.Email.SMTPHost != ""
	}
	return false
}

// SMSEnabled reports whether the SMS gateway is configured.
func (c *AlertConfig) SMSEnabled() bool {
	return c != nil && c.SMS != nil && c.SMS.URL != ""
}
