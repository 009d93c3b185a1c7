package config

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                      int    `env:"PORT" envDefault:"8080"`
	OverseerrBaseURL          string `env:"OVERSEERR_BASE_URL" envDefault:"http://localhost:5055/api/v1"`
	OverseerrAPIKey           string `env:"OVERSEERR_API_KEY,required"`
	BotToken                  string `env:"BOT_TOKEN,required"`
	VerificationExpiryMinutes int    `env:"VERIFICATION_EXPIRY_MINUTES" envDefault:"15"`
	AllowGuildCommands        bool   `env:"ALLOW_GUILD_COMMANDS" envDefault:"false"`
	CommandPrefix             string `env:"COMMAND_PREFIX" envDefault:"!"`
	CommandRateLimitPerMin    int    `env:"COMMAND_RATE_LIMIT_PER_MIN" envDefault:"10"`
	RedisURL                  string `env:"REDIS_URL"`
	DatabaseURL               string `env:"DATABASE_URL"`
	LogLevel                  string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) VerificationExpiry() time.Duration {
	return time.Duration(c.VerificationExpiryMinutes) * time.Minute
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.OverseerrBaseURL) == "" {
		return fmt.Errorf("OVERSEERR_BASE_URL environment variable is required")
	}
	parsed, err := url.Parse(c.OverseerrBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("OVERSEERR_BASE_URL must be an absolute URL (e.g. http://localhost:5055/api/v1)")
	}
	if strings.TrimSpace(c.OverseerrAPIKey) == "" {
		return fmt.Errorf("OVERSEERR_API_KEY environment variable is required")
	}
	if strings.TrimSpace(c.BotToken) == "" {
		return fmt.Errorf("BOT_TOKEN environment variable is required")
	}
	if c.VerificationExpiryMinutes <= 0 {
		return fmt.Errorf("VERIFICATION_EXPIRY_MINUTES must be positive, got %d", c.VerificationExpiryMinutes)
	}
	if c.CommandPrefix == "" {
		return fmt.Errorf("COMMAND_PREFIX must not be empty")
	}

	if c.AllowGuildCommands {
		log.Warn().Msg("ALLOW_GUILD_COMMANDS is enabled: identifiers and codes may be posted in shared channels")
	}
	if c.CommandRateLimitPerMin <= 0 {
		log.Warn().Msg("COMMAND_RATE_LIMIT_PER_MIN is not positive: command rate limiting disabled")
	}

	return nil
}

// Load reads an optional .env file and then parses the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}

	var cfg Config
	opts := env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(false): parseFlag,
		},
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.OverseerrBaseURL = strings.TrimRight(cfg.OverseerrBaseURL, "/")
	return &cfg, nil
}

// parseFlag accepts true, 1 or yes in any case. Anything else is false, so a
// .env written for the original bot keeps working.
func parseFlag(v string) (interface{}, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true, nil
	default:
		return false, nil
	}
}
