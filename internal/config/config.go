package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"coursemart/internal/logger"
	"coursemart/internal/utils"
)

type Config struct {
	Port    string `yaml:"port"`
	LogMode string `yaml:"log_mode"`

	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresName     string `yaml:"postgres_name"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	JWTSecretKey    string `yaml:"jwt_secret_key"`
	AccessTokenTTL  int    `yaml:"access_token_ttl"`
	RefreshTokenTTL int    `yaml:"refresh_token_ttl"`
}

func defaults() Config {
	return Config{
		Port:            "8080",
		LogMode:         "development",
		PostgresHost:    "localhost",
		PostgresPort:    "5432",
		PostgresUser:    "postgres",
		PostgresName:    "coursemart",
		RedisAddr:       "localhost:6379",
		JWTSecretKey:    "defaultsecret",
		AccessTokenTTL:  3600,
		RefreshTokenTTL: 86400,
	}
}

// Load reads config.yaml when present, then lets environment variables win.
func Load(path string, log *logger.Logger) Config {
	cfg := defaults()
	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil && log != nil {
				log.Warn("config file unreadable, using defaults", "path", path, "error", err)
			}
		}
	}
	cfg.Port = utils.GetEnv("PORT", cfg.Port, log)
	cfg.LogMode = utils.GetEnv("LOG_MODE", cfg.LogMode, log)
	cfg.PostgresHost = utils.GetEnv("POSTGRES_HOST", cfg.PostgresHost, log)
	cfg.PostgresPort = utils.GetEnv("POSTGRES_PORT", cfg.PostgresPort, log)
	cfg.PostgresUser = utils.GetEnv("POSTGRES_USER", cfg.PostgresUser, log)
	cfg.PostgresPassword = utils.GetEnv("POSTGRES_PASSWORD", cfg.PostgresPassword, log)
	cfg.PostgresName = utils.GetEnv("POSTGRES_NAME", cfg.PostgresName, log)
	cfg.RedisAddr = utils.GetEnv("REDIS_ADDR", cfg.RedisAddr, log)
	cfg.RedisPassword = utils.GetEnv("REDIS_PASSWORD", cfg.RedisPassword, log)
	cfg.JWTSecretKey = utils.GetEnv("JWT_SECRET_KEY", cfg.JWTSecretKey, log)
	cfg.AccessTokenTTL = utils.GetEnvAsInt("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL, log)
	cfg.RefreshTokenTTL = utils.GetEnvAsInt("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL, log)
	return cfg
}
