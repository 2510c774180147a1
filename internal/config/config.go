package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	QueueBackendSqlite = "sqlite"
	QueueBackendRedis  = "redis"
)

type Server struct {
	Debug    bool   `toml:"debug_mode"`
	LogLevel string `toml:"log_level"`
}

type Storage struct {
	SqliteFile string `toml:"sqlite_file"`
}

type Queue struct {
	Backend       string `toml:"backend"`
	RedisAddress  string `toml:"redis_address"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	KeyPrefix     string `toml:"key_prefix"`
}

type Rescore struct {
	// FlushConcurrency bounds parallel rating writes at the end of a cascade.
	FlushConcurrency int `toml:"flush_concurrency"`
}

type Config struct {
	Server  Server
	Storage Storage
	Queue   Queue
	Rescore Rescore
}

func Default() Config {
	return Config{
		Server:  Server{LogLevel: "info"},
		Storage: Storage{SqliteFile: "rankings.sqlite"},
		Queue:   Queue{Backend: QueueBackendSqlite, RedisAddress: "localhost:6379", KeyPrefix: "rankings"},
		Rescore: Rescore{FlushConcurrency: 4},
	}
}

// New reads the toml file at path over the defaults, then applies .env and
// environment overrides. A missing file or .env is not an error.
func New(path string) (Config, error) {
	cfg := Default()

	_, err := toml.DecodeFile(path, &cfg)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	err = godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("RANKINGS_SQLITE_FILE"); v != "" {
		cfg.Storage.SqliteFile = v
	}
	if v := os.Getenv("RANKINGS_QUEUE_BACKEND"); v != "" {
		cfg.Queue.Backend = v
	}
	if v := os.Getenv("RANKINGS_REDIS_ADDRESS"); v != "" {
		cfg.Queue.RedisAddress = v
	}
	if v := os.Getenv("RANKINGS_REDIS_PASSWORD"); v != "" {
		cfg.Queue.RedisPassword = v
	}
	if v := os.Getenv("RANKINGS_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RANKINGS_REDIS_DB: %w", err)
		}
		cfg.Queue.RedisDB = db
	}
	if v := os.Getenv("RANKINGS_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RANKINGS_DEBUG: %w", err)
		}
		cfg.Server.Debug = debug
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Queue.Backend {
	case QueueBackendSqlite, QueueBackendRedis:
	default:
		return fmt.Errorf("unknown queue backend %q", c.Queue.Backend)
	}
	if c.Storage.SqliteFile == "" {
		return errors.New("storage.sqlite_file is empty")
	}
	if c.Rescore.FlushConcurrency < 1 {
		return fmt.Errorf("rescore.flush_concurrency must be positive, got %d", c.Rescore.FlushConcurrency)
	}
	return nil
}
