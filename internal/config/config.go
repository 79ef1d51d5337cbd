package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port             int                `json:"port"`
	LogConfig        logger.LogConfig   `json:"log_config"`
	Database         DatabaseConfig     `json:"database"`
	Redis            RedisConfig        `json:"redis"`
	Search           SearchConfig       `json:"search"`
	AI               []AIProviderConfig `json:"ai"`
	Cache            CacheConfig        `json:"cache"`
	AdminJWTSecret   string             `json:"admin_jwt_secret"`
	RateLimitSeconds int                `json:"rate_limit_seconds"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type SearchConfig struct {
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	CandidateCount int    `json:"candidate_count"`
	DefaultTopK    int    `json:"default_top_k"`
}

type AIProviderConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type CacheConfig struct {
	BaseTTLMinutes  int  `json:"base_ttl_minutes"`
	LocalSize       int  `json:"local_size"`
	LocalTTLMinutes int  `json:"local_ttl_minutes"`
	CoalesceMisses  bool `json:"coalesce_misses"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis.addr is required")
	}
	if cfg.Search.BaseURL == "" {
		return nil, fmt.Errorf("search.base_url is required")
	}
	if len(cfg.AI) == 0 {
		return nil, fmt.Errorf("at least one ai provider is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 8200
	}
	return &cfg, nil
}
