// internal/config/config.go
//
// Environment-driven configuration.
// Values come from the process environment (main loads .env first).
// Unset keys fall back to local-development defaults; the result is
// checked with go-playground/validator before anything is wired.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Award configures the outbound award endpoint (a CTFd-style awards API).
type Award struct {
	URL         string        `validate:"required,url"`
	Token       string
	AuthScheme  string        `validate:"required"`
	ChallengeID int           `validate:"gte=0"`
	Name        string        `validate:"required"`
	Description string
	Category    string
	Timeout     time.Duration `validate:"gte=0"`
}

type Config struct {
	Port         string `validate:"required,numeric"`
	LogLevel     string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	LogFormat    string `validate:"oneof=json console"`
	Env          string `validate:"required"`
	ClientOrigin string `validate:"required"`

	JWTSecret      string `validate:"required"`
	JWTExpiresDays int    `validate:"gt=0"`
	CookieName     string `validate:"required"`

	PuzzleFile string

	StateBackend string `validate:"oneof=file sqlite redis"`
	StateFile    string `validate:"required_if=StateBackend file"`
	SQLitePath   string `validate:"required_if=StateBackend sqlite"`
	RedisURL     string `validate:"required_if=StateBackend redis"`
	RedisKey     string

	Award Award
}

// Production reports whether cookies should be Secure/SameSite=None.
func (c *Config) Production() bool { return c.Env == "production" }

// StatePath is the path handed to the selected backend.
func (c *Config) StatePath() string {
	if c.StateBackend == "sqlite" {
		return c.SQLitePath
	}
	return c.StateFile
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "5175"),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:    strings.ToLower(getEnv("LOG_FORMAT", "json")),
		Env:          getEnv("APP_ENV", "development"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),

		JWTSecret:  getEnv("JWT_SECRET", "dev_secret_change_me"),
		CookieName: getEnv("COOKIE_NAME", "crossword_token"),

		PuzzleFile: getEnv("PUZZLE_FILE", ""),

		StateBackend: strings.ToLower(getEnv("STATE_BACKEND", "file")),
		StateFile:    getEnv("STATE_FILE", "./data/user.json"),
		SQLitePath:   getEnv("SQLITE_PATH", "./data/state.db"),
		RedisURL:     getEnv("REDIS_URL", ""),
		RedisKey:     getEnv("REDIS_KEY", "crossword:state"),

		Award: Award{
			URL:         getEnv("AWARD_URL", "http://localhost:8000/api/v1/awards"),
			Token:       getEnv("AWARD_TOKEN", ""),
			AuthScheme:  getEnv("AWARD_AUTH_SCHEME", "Token"),
			Name:        getEnv("AWARD_NAME", "Bonus: Crossword"),
			Description: getEnv("AWARD_DESCRIPTION", "Ugiin suljee onoo"),
			Category:    getEnv("AWARD_CATEGORY", "bonus"),
		},
	}

	var err error
	if cfg.JWTExpiresDays, err = envInt("JWT_EXPIRES_DAYS", 14); err != nil {
		return nil, err
	}
	if cfg.Award.ChallengeID, err = envInt("AWARD_CHALLENGE_ID", 1); err != nil {
		return nil, err
	}
	if cfg.Award.Timeout, err = envDuration("AWARD_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

// envDuration accepts Go durations ("15s") or a bare number of seconds.
func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}
