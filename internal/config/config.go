package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ZALOGA"

type Config struct {
	Addr       string      `mapstructure:"addr"`
	Port       string      `mapstructure:"port"`
	DB         string      `mapstructure:"db"`
	UploadsDir string      `mapstructure:"uploads_dir"`
	Log        LogConfig   `mapstructure:"log"`
	Auth       AuthConfig  `mapstructure:"auth"`
	HTTP       HTTPConfig  `mapstructure:"http"`
	Admin      AdminConfig `mapstructure:"admin"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type AuthConfig struct {
	JWTSecret           string        `mapstructure:"jwt_secret"`
	TokenTTL            time.Duration `mapstructure:"token_ttl"`
	BcryptCost          int           `mapstructure:"bcrypt_cost"`
	AdminRegisterSecret string        `mapstructure:"admin_register_secret"`
}

type HTTPConfig struct {
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// AdminConfig describes the administrator bootstrapped on first start.
type AdminConfig struct {
	Email string `mapstructure:"email"`
	Name  string `mapstructure:"name"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db", "zaloga.sqlite3")
	v.SetDefault("uploads_dir", "uploads")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("http.read_timeout", 30*time.Second)
	v.SetDefault("http.write_timeout", 60*time.Second)
	v.SetDefault("http.max_upload_bytes", 5<<20)
	v.SetDefault("admin.email", "admin@zaloga.local")
	v.SetDefault("admin.name", "Admin")
}

// Load reads configuration from defaults, an optional config file, and the
// environment, then validates it. Flags should already be bound to v.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without a default are invisible to Unmarshal unless bound
	// explicitly. Unprefixed names are kept for existing deployments.
	bindings := map[string][]string{
		"addr":                       {EnvPrefix + "_ADDR"},
		"log.file":                   {EnvPrefix + "_LOG_FILE"},
		"port":                       {EnvPrefix + "_PORT", "PORT"},
		"auth.jwt_secret":            {EnvPrefix + "_AUTH_JWT_SECRET", "JWT_SECRET"},
		"auth.admin_register_secret": {EnvPrefix + "_AUTH_ADMIN_REGISTER_SECRET", "ADMIN_REGISTER_SECRET"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Addr == "" {
		if cfg.Port != "" {
			cfg.Addr = ":" + cfg.Port
		} else {
			cfg.Addr = ":8080"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.DB == "" {
		errs = append(errs, "db path is required")
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("log config: %v", err))
	}
	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("auth config: %v", err))
	}
	if err := c.HTTP.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("http config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %q", c.Level)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	return nil
}

func (c *AuthConfig) Validate() error {
	if c.TokenTTL < time.Minute {
		return errors.New("token_ttl must be at least 1m")
	}
	// bcrypt accepts 4..31; anything above 15 makes logins unusably slow.
	if c.BcryptCost < 4 || c.BcryptCost > 15 {
		return fmt.Errorf("bcrypt_cost %d out of range 4..15", c.BcryptCost)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		return errors.New("jwt_secret must be at least 16 characters")
	}
	return nil
}

func (c *HTTPConfig) Validate() error {
	for _, origin := range c.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid allowed origin %q", origin)
		}
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}
	return nil
}
