package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

var ErrMissingPostgresConfig = errors.New("postgres configuration is incomplete (host, user and db_name are required)")

type AppConfig struct {
	API      *APIConfig      `mapstructure:"api"`
	Gin      *GinConfig      `mapstructure:"gin"`
	Postgres *PostgresConfig `mapstructure:"postgres"`
	Raffle   *RaffleConfig   `mapstructure:"raffle"`
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	Port               string   `mapstructure:"port"`
	BaseURL            string   `mapstructure:"base_url"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
	JWTSigningKey      string   `mapstructure:"jwt_signing_key"`
	SessionTTLHours    int      `mapstructure:"session_ttl_hours"`
	AdminUsername      string   `mapstructure:"admin_username"`
	AdminPassword      string   `mapstructure:"admin_password"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"db_name"`
}

type RaffleConfig struct {
	ID              string `mapstructure:"id"`
	TotalTickets    int    `mapstructure:"total_tickets"`
	InsertBatchSize int    `mapstructure:"insert_batch_size"`
}

func Load(configFile string) (*AppConfig, error) {
	viper.SetConfigFile(configFile)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("viper.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := viper.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("viper.Unmarshal -> %w", err)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

// validate rejects configurations the server cannot start with. A missing
// store endpoint is fatal; everything else has a usable default.
func (c *AppConfig) validate() error {
	if c.Postgres == nil || c.Postgres.Host == "" || c.Postgres.User == "" || c.Postgres.DBName == "" {
		return ErrMissingPostgresConfig
	}

	if c.API == nil {
		c.API = &APIConfig{}
	}
	if c.Gin == nil {
		c.Gin = &GinConfig{}
	}

	if c.Raffle == nil {
		c.Raffle = &RaffleConfig{}
	}
	if c.Raffle.ID == "" {
		c.Raffle.ID = "default"
	}
	if c.Raffle.TotalTickets <= 0 {
		c.Raffle.TotalTickets = 1000
	}
	if c.Raffle.InsertBatchSize <= 0 {
		c.Raffle.InsertBatchSize = 100
	}
	if c.API.SessionTTLHours <= 0 {
		c.API.SessionTTLHours = 24
	}

	return nil
}
