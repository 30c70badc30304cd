package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"routeshadow/internal/difficulty"
	"routeshadow/internal/problem"
)

// Config is the full runtime configuration of vrpsim.
type Config struct {
	Problem problem.Params `yaml:"problem"`
	Run     Run            `yaml:"run"`
	Server  Server         `yaml:"server"`
	Storage Storage        `yaml:"storage"`
	Broker  Broker         `yaml:"broker"`
	Log     Log            `yaml:"log"`
	Webhook Webhook        `yaml:"webhook"`
}

type Run struct {
	Strategy    string `yaml:"strategy"`
	VerifyMoves int    `yaml:"verify_moves"`
	VerifySeed  int64  `yaml:"verify_seed"`
	// Serve keeps the diagnostics server up after the run.
	Serve bool `yaml:"serve"`
}

type Server struct {
	Addr            string        `yaml:"addr"`
	RPS             float64       `yaml:"rps"`
	Burst           int           `yaml:"burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Storage struct {
	DatabaseURL string `yaml:"database_url"`
}

type Broker struct {
	RedisURL string `yaml:"redis_url"`
	Channel  string `yaml:"channel"`
}

// Webhook forwards run events to HTTP endpoints.
type Webhook struct {
	URLs        []string `yaml:"urls"`
	Secret      string   `yaml:"secret"`
	Events      []string `yaml:"events"`
	MaxAttempts int      `yaml:"max_attempts"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Problem: problem.Defaults(),
		Run:     Run{Strategy: difficulty.PizzaSlice.String(), VerifyMoves: 200, VerifySeed: 1},
		Server:  Server{Addr: ":8080", RPS: 20, Burst: 40, ShutdownTimeout: 5 * time.Second},
		Broker:  Broker{Channel: "vrpsim.events"},
		Log:     Log{Level: "info"},
		Webhook: Webhook{Events: []string{"run.completed"}, MaxAttempts: 5},
	}
}

// Load reads .env (if present), then the YAML file at path (if non-empty),
// then environment overrides.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if _, err := difficulty.ParseStrategy(cfg.Run.Strategy); err != nil {
		return Config{}, fmt.Errorf("config run.strategy: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Storage.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Broker.RedisURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("VRPSIM_STRATEGY"); v != "" {
		c.Run.Strategy = v
	}
	if v := os.Getenv("VRPSIM_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("VRPSIM_SEED: %w", err)
		}
		c.Problem.Seed = n
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		c.Webhook.URLs = strings.Split(v, ",")
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		c.Webhook.Secret = v
	}
	if v := os.Getenv("WEBHOOK_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WEBHOOK_MAX_ATTEMPTS: %w", err)
		}
		c.Webhook.MaxAttempts = n
	}
	if v := os.Getenv("VRPSIM_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("VRPSIM_RPS: %w", err)
		}
		c.Server.RPS = f
	}
	return nil
}
