package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int    `yaml:"port" env:"PORT"`
	FrontendURL string `yaml:"frontend_url" env:"FRONTEND_URL"`
	BackendURL  string `yaml:"backend_url" env:"BACKEND_URL"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL"`       // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"LOG_FORMAT"`     // json|console
	Sampling bool   `yaml:"sampling" env:"LOG_SAMPLING"` // enable sampling in prod
}

type AdminConfig struct {
	Password      string        `yaml:"password" env:"ADMIN_PASSWORD"`
	SessionSecret string        `yaml:"session_secret" env:"ADMIN_SESSION_SECRET"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

type DatabaseConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type PaymentConfig struct {
	APIKey      string        `yaml:"api_key" env:"PAYMENT_API_KEY"`
	AuthToken   string        `yaml:"auth_token" env:"PAYMENT_AUTH_TOKEN"`
	PrivateSalt string        `yaml:"private_salt" env:"PAYMENT_PRIVATE_SALT"`
	BaseURL     string        `yaml:"base_url" env:"PAYMENT_BASE_URL"`
	Timeout     time.Duration `yaml:"timeout"`
}

type MailConfig struct {
	Host     string `yaml:"host" env:"EMAIL_HOST"`
	Port     int    `yaml:"port" env:"EMAIL_PORT"`
	User     string `yaml:"user" env:"EMAIL_USER"`
	Password string `yaml:"password" env:"EMAIL_PASS"`
	From     string `yaml:"from" env:"EMAIL_FROM"`
	Retries  int    `yaml:"retries"`
}

type PushConfig struct {
	CredentialsJSON string `yaml:"credentials_json" env:"FIREBASE_SERVICE_ACCOUNT_JSON"`
	CredentialsPath string `yaml:"credentials_path" env:"FIREBASE_SERVICE_ACCOUNT_PATH"`
}

type IdentityConfig struct {
	UserinfoURL string        `yaml:"userinfo_url" env:"IDENTITY_USERINFO_URL"`
	Timeout     time.Duration `yaml:"timeout"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

type SweepConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Payment  PaymentConfig  `yaml:"payment"`
	Mail     MailConfig     `yaml:"mail"`
	Push     PushConfig     `yaml:"push"`
	Identity IdentityConfig `yaml:"identity"`
	Sweep    SweepConfig    `yaml:"sweep"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, then applies environment variable
// overrides. The admin credential is a fatal omission in production; missing
// payment or mail credentials only degrade those features.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Payment.BaseURL == "" {
		cfg.Payment.BaseURL = "https://www.instamojo.com/api/1.1"
	}
	if cfg.Payment.Timeout <= 0 {
		cfg.Payment.Timeout = 15 * time.Second
	}
	if cfg.Mail.Port <= 0 {
		cfg.Mail.Port = 465
	}
	if cfg.Mail.Retries <= 0 {
		cfg.Mail.Retries = 3
	}
	if cfg.Identity.UserinfoURL == "" {
		cfg.Identity.UserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	}
	if cfg.Identity.Timeout <= 0 {
		cfg.Identity.Timeout = 10 * time.Second
	}
	if cfg.Identity.CacheTTL <= 0 {
		cfg.Identity.CacheTTL = 10 * time.Minute
	}
	if cfg.Sweep.Interval <= 0 {
		cfg.Sweep.Interval = 15 * time.Minute
	}
	if cfg.Sweep.StaleAfter <= 0 {
		cfg.Sweep.StaleAfter = 30 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Admin.Password == "" {
		if !dev {
			return nil, errors.New("admin.password is required in production")
		}
		cfg.Admin.Password = "dev-only-change-me"
	}
	if cfg.Admin.SessionSecret == "" {
		cfg.Admin.SessionSecret = cfg.Admin.Password
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
