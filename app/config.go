package main

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
	"github.com/sushihentaime/bloglist/internal/blogservice"
	"github.com/sushihentaime/bloglist/internal/userservice"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Environment    string   `mapstructure:"ENVIRONMENT"`
	Version        string   `mapstructure:"VERSION"`
	TrustedOrigins []string `mapstructure:"TRUSTED_ORIGINS"`

	DBHost     string `mapstructure:"POSTGRES_HOST"`
	DBPort     string `mapstructure:"POSTGRES_PORT"`
	DBUser     string `mapstructure:"POSTGRES_USER"`
	DBPassword string `mapstructure:"POSTGRES_PASSWORD"`
	DBName     string `mapstructure:"POSTGRES_DB"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	MQHost     string `mapstructure:"RABBITMQ_HOST"`
	MQPort     string `mapstructure:"RABBITMQ_PORT"`
	MQUser     string `mapstructure:"RABBITMQ_USER"`
	MQPassword string `mapstructure:"RABBITMQ_PASSWORD"`

	MailHost     string `mapstructure:"MAIL_HOST"`
	MailPort     int    `mapstructure:"MAIL_PORT"`
	MailUser     string `mapstructure:"MAIL_USER"`
	MailPassword string `mapstructure:"MAIL_PASSWORD"`
	MailSender   string `mapstructure:"MAIL_SENDER"`

	RateLimitRPS     float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int     `mapstructure:"RATE_LIMIT_BURST"`
	RateLimitEnabled bool    `mapstructure:"RATE_LIMIT_ENABLED"`

	AnonymousLikes       bool `mapstructure:"ANONYMOUS_LIKES"`
	AnonymousComments    bool `mapstructure:"ANONYMOUS_COMMENTS"`
	ReplaceRequiresOwner bool `mapstructure:"REPLACE_REQUIRES_OWNER"`
}

var defaults = map[string]any{
	"PORT":                   "3003",
	"ENVIRONMENT":            "development",
	"VERSION":                "1.0.0",
	"TRUSTED_ORIGINS":        "",
	"POSTGRES_HOST":          "localhost",
	"POSTGRES_PORT":          "5432",
	"POSTGRES_USER":          "postgres",
	"POSTGRES_PASSWORD":      "",
	"POSTGRES_DB":            "bloglist",
	"JWT_SECRET":             "",
	"JWT_TTL":                userservice.DefaultTokenTTL,
	"RABBITMQ_HOST":          "",
	"RABBITMQ_PORT":          "5672",
	"RABBITMQ_USER":          "guest",
	"RABBITMQ_PASSWORD":      "guest",
	"MAIL_HOST":              "",
	"MAIL_PORT":              587,
	"MAIL_USER":              "",
	"MAIL_PASSWORD":          "",
	"MAIL_SENDER":            "Bloglist <no-reply@bloglist.local>",
	"RATE_LIMIT_RPS":         2.0,
	"RATE_LIMIT_BURST":       4,
	"RATE_LIMIT_ENABLED":     true,
	"ANONYMOUS_LIKES":        true,
	"ANONYMOUS_COMMENTS":     true,
	"REPLACE_REQUIRES_OWNER": false,
}

// loadConfig reads the env file at path, if present, and lets environment
// variables override it. A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	return &config, nil
}

func (c *Config) policy() blogservice.Policy {
	return blogservice.Policy{
		AnonymousLikes:       c.AnonymousLikes,
		AnonymousComments:    c.AnonymousComments,
		ReplaceRequiresOwner: c.ReplaceRequiresOwner,
	}
}
