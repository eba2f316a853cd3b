package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendRedis  = "redis"
	BackendPebble = "pebble"
	BackendMemory = "memory"
)

const DefaultJokeAPIURL = "https://icanhazdadjoke.com"

// Config holds everything the server and the CLI read from the environment.
type Config struct {
	Port string

	StoreBackend  string
	RedisURI      string
	RedisPassword string
	RedisDB       int
	PebblePath    string
	VotesKey      string

	JWTSecret string

	JokeAPIURL     string
	JokeAPITimeout time.Duration
	JokeAPIRPS     float64

	NumJokes            int
	FetchMaxAttempts    int
	FetchInitialBackoff time.Duration
	FetchMaxBackoff     time.Duration
	MaxDuplicates       int

	SessionTTL time.Duration
	LogLevel   string
}

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: No .env file found, using environment variables")
	}
}

func GetEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func GetEnvInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func GetEnvFloat(key string, fallback float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func GetEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// Load reads the configuration from the process environment. Call LoadEnv
// first to pick up a .env file.
func Load() (Config, error) {
	cfg := Config{
		Port:          GetEnv("PORT", "8080"),
		StoreBackend:  GetEnv("STORE_BACKEND", BackendRedis),
		RedisURI:      GetEnv("REDIS_URI", "localhost:6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		PebblePath:    GetEnv("PEBBLE_PATH", "./data/votes"),
		VotesKey:      GetEnv("VOTES_KEY", "jokeVotes"),
		JWTSecret:     GetEnv("JWT_SECRET", ""),
		JokeAPIURL:    GetEnv("JOKE_API_URL", DefaultJokeAPIURL),
		LogLevel:      GetEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.RedisDB, err = GetEnvInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.JokeAPITimeout, err = GetEnvDuration("JOKE_API_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.JokeAPIRPS, err = GetEnvFloat("JOKE_API_RPS", 5); err != nil {
		return Config{}, err
	}
	if cfg.NumJokes, err = GetEnvInt("NUM_JOKES", 10); err != nil {
		return Config{}, err
	}
	if cfg.FetchMaxAttempts, err = GetEnvInt("FETCH_MAX_ATTEMPTS", 5); err != nil {
		return Config{}, err
	}
	if cfg.FetchInitialBackoff, err = GetEnvDuration("FETCH_INITIAL_BACKOFF", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.FetchMaxBackoff, err = GetEnvDuration("FETCH_MAX_BACKOFF", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.MaxDuplicates, err = GetEnvInt("MAX_DUPLICATES", 50); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = GetEnvDuration("SESSION_TTL", 30*time.Minute); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendRedis, BackendPebble, BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.NumJokes < 0 {
		return fmt.Errorf("NUM_JOKES must be >= 0, got %d", c.NumJokes)
	}
	if c.FetchMaxAttempts < 1 {
		return fmt.Errorf("FETCH_MAX_ATTEMPTS must be >= 1, got %d", c.FetchMaxAttempts)
	}
	if c.MaxDuplicates < 0 {
		return fmt.Errorf("MAX_DUPLICATES must be >= 0, got %d", c.MaxDuplicates)
	}
	if c.JokeAPIRPS <= 0 {
		return fmt.Errorf("JOKE_API_RPS must be > 0, got %v", c.JokeAPIRPS)
	}
	if c.VotesKey == "" {
		return fmt.Errorf("VOTES_KEY must not be empty")
	}
	return nil
}
