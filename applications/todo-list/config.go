package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

const (
	envLocal         = "LOCAL"
	defaultTableName = "todoList"
	defaultPort      = "8080"
	defaultLogLevel  = "info"
)

// Config は環境変数から読み込む設定
type Config struct {
	Env              string
	TableName        string
	DynamoDBEndpoint string
	Port             string
	LogLevel         zapcore.Level
}

// IsLocal はWebサーバーとして起動するかどうか
func (c Config) IsLocal() bool {
	return c.Env == envLocal
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadConfig() (Config, error) {
	cfg := Config{
		Env:              os.Getenv("ENV"),
		TableName:        getenv("TABLE_NAME", defaultTableName),
		DynamoDBEndpoint: os.Getenv("DYNAMODB_ENDPOINT"),
		Port:             getenv("PORT", defaultPort),
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT %q", cfg.Port)
	}

	level, err := zapcore.ParseLevel(getenv("LOG_LEVEL", defaultLogLevel))
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	return cfg, nil
}

// loadDotEnv はローカル実行用の.envを読み込む。ファイルがなければ何もしない
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
