package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/rs/zerolog"
)

// Config is read from the environment. The kernel takes no flags.
type Config struct {
	// Language selects the evaluator: javascript, typescript or go. ENV: KERNEL_LANGUAGE
	Language string `env:"KERNEL_LANGUAGE,default=javascript"`
	// LogLevel is a zerolog level name. ENV: KERNEL_LOG_LEVEL
	LogLevel string `env:"KERNEL_LOG_LEVEL,default=info"`
	// LogFormat is console or json; logs always go to stderr. ENV: KERNEL_LOG_FORMAT
	LogFormat string `env:"KERNEL_LOG_FORMAT,default=console"`
	// Listen serves WebSocket on this address instead of stdio. ENV: KERNEL_LISTEN
	Listen string `env:"KERNEL_LISTEN"`
	// ExecuteTimeout bounds each execute request, 0 disables. ENV: KERNEL_EXECUTE_TIMEOUT
	ExecuteTimeout time.Duration `env:"KERNEL_EXECUTE_TIMEOUT,default=0s"`
	// ExecuteRate limits executes per second, 0 disables. ENV: KERNEL_EXECUTE_RATE
	ExecuteRate int `env:"KERNEL_EXECUTE_RATE,default=0"`
	// ExecuteBurst is the rate limiter bucket size. ENV: KERNEL_EXECUTE_BURST
	ExecuteBurst int `env:"KERNEL_EXECUTE_BURST,default=1"`
	// GoBinary is the toolchain used by the go evaluator. ENV: KERNEL_GO_BINARY
	GoBinary string `env:"KERNEL_GO_BINARY,default=go"`
}

// Languages accepted in KERNEL_LANGUAGE.
const (
	LanguageJavaScript = "javascript"
	LanguageTypeScript = "typescript"
	LanguageGo         = "go"
)

// LoadConfig decodes the environment and validates the result.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return cfg, fmt.Errorf("decode environment: %w", err)
	}
	cfg.Language = normalizeLanguage(cfg.Language)
	return cfg, cfg.Validate()
}

func normalizeLanguage(lang string) string {
	switch l := strings.ToLower(strings.TrimSpace(lang)); l {
	case "js":
		return LanguageJavaScript
	case "ts":
		return LanguageTypeScript
	case "golang":
		return LanguageGo
	default:
		return l
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Language {
	case LanguageJavaScript, LanguageTypeScript, LanguageGo:
	default:
		return fmt.Errorf("KERNEL_LANGUAGE: unsupported language %q", c.Language)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("KERNEL_LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("KERNEL_LOG_FORMAT: unsupported format %q", c.LogFormat)
	}
	if c.ExecuteTimeout < 0 {
		return fmt.Errorf("KERNEL_EXECUTE_TIMEOUT: must not be negative")
	}
	if c.ExecuteRate < 0 {
		return fmt.Errorf("KERNEL_EXECUTE_RATE: must not be negative")
	}
	if c.ExecuteRate > 0 && c.ExecuteBurst < 1 {
		return fmt.Errorf("KERNEL_EXECUTE_BURST: must be at least 1")
	}
	if c.Language == LanguageGo && c.GoBinary == "" {
		return fmt.Errorf("KERNEL_GO_BINARY: must not be empty")
	}
	return nil
}
