// Package config loads the service configuration from an optional YAML file
// plus GAMEHUB_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP       HTTP       `mapstructure:"http"`
	Postgres   Postgres   `mapstructure:"postgres"`
	Redis      Redis      `mapstructure:"redis"`
	Cache      Cache      `mapstructure:"cache"`
	Search     Search     `mapstructure:"search"`
	IGDB       IGDB       `mapstructure:"igdb"`
	Embeddings Embeddings `mapstructure:"embeddings"`
	Log        Log        `mapstructure:"log"`
}

type HTTP struct {
	Addr string `mapstructure:"addr"`
}

type Postgres struct {
	DSN string `mapstructure:"dsn"`
}

type Redis struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Cache struct {
	GamesTTL time.Duration `mapstructure:"games_ttl"`
	ForumTTL time.Duration `mapstructure:"forum_ttl"`
}

type Search struct {
	// ScopedFallback keeps forum scopes applied when full-text misses and
	// trigram search takes over.
	ScopedFallback bool `mapstructure:"scoped_fallback"`
}

type IGDB struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type Embeddings struct {
	Enabled    bool   `mapstructure:"enabled"`
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads path (optional; empty means env and defaults only) and unmarshals
// the result. Every key can be overridden via GAMEHUB_SECTION_KEY variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("postgres.dsn", "postgres://localhost:5432/gamehub")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.games_ttl", time.Hour)
	v.SetDefault("cache.forum_ttl", 5*time.Minute)
	v.SetDefault("search.scoped_fallback", false)
	v.SetDefault("embeddings.enabled", false)
	v.SetDefault("embeddings.model", "text-embedding-3-small")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetEnvPrefix("GAMEHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
