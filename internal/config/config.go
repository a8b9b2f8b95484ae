// Package config loads service configuration from the environment and an optional campaign file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider identifies the text-generation backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
	ProviderBedrock   Provider = "bedrock"
)

// Sink kinds.
const (
	SinkCSV    = "csv"
	SinkSheets = "sheets"
)

// Config holds all configuration values.
type Config struct {
	// Text generation
	LLMProvider     Provider
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string
	AWSRegion       string
	SummaryModel    string
	ResolverModel   string

	// Time zone every date/time is anchored to
	AnchorZone string

	// Row sink
	Sink                  string
	CSVDir                string
	GoogleSheetsID        string
	GoogleCredentialsFile string

	// HTTP server
	Host string
	Port string

	// HTTP client (CLI)
	ServerURL     string
	ClientTimeout time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Campaign holds the per-business settings.
	Campaign Campaign
}

// Load reads .env (if present) and then configuration from environment variables.
// Defaults match the Salon Ibargo deployment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg := Config{
		LLMProvider:     Provider(strings.ToLower(getEnv("LLM_PROVIDER", string(ProviderOpenAI)))),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		AWSRegion:       getEnv("AWS_REGION", "us-west-2"),
		SummaryModel:    getEnv("SUMMARY_MODEL", "gpt-5-nano"),
		ResolverModel:   getEnv("RESOLVER_MODEL", "gpt-5-mini"),

		AnchorZone: getEnv("ANCHOR_ZONE", "America/Los_Angeles"),

		Sink:                  strings.ToLower(getEnv("SINK", SinkCSV)),
		CSVDir:                getEnv("CSV_DIR", "./data"),
		GoogleSheetsID:        getEnv("GOOGLE_SHEETS_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),

		Host: getEnv("HOST", "0.0.0.0"),
		Port: getEnv("PORT", "5000"),

		ServerURL:     getEnv("CLOSEOUT_SERVER_URL", "http://localhost:5000"),
		ClientTimeout: parseDuration(getEnv("CLOSEOUT_CLIENT_TIMEOUT", "2m"), 2*time.Minute),

		LogFile:  getEnv("LOG_FILE", "/tmp/closeout.log"),
		LogLevel: parseLogLevel(getEnv("LOG_LEVEL", "INFO")),

		Campaign: DefaultCampaign(),
	}

	if path := getEnv("CLOSEOUT_CAMPAIGN_FILE", ""); path != "" {
		campaign, err := LoadCampaign(path)
		if err != nil {
			slog.Warn("failed to load campaign file, using defaults", "file", path, "error", err)
		} else {
			cfg.Campaign = campaign
		}
	}
	if cfg.Campaign.AnchorZone != "" {
		cfg.AnchorZone = cfg.Campaign.AnchorZone
	}

	return cfg
}

// Validate checks that the selected provider, sink and zone are usable.
func (c Config) Validate() error {
	var errs []error

	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for the anthropic provider"))
		}
	case ProviderOllama, ProviderBedrock:
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider))
	}

	switch c.Sink {
	case SinkCSV:
	case SinkSheets:
		if c.GoogleSheetsID == "" {
			errs = append(errs, errors.New("GOOGLE_SHEETS_ID is required for the sheets sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported sink: %s", c.Sink))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Location returns the anchor time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.AnchorZone)
	if err != nil {
		return nil, fmt.Errorf("load anchor zone %q: %w", c.AnchorZone, err)
	}
	return loc, nil
}

// Addr returns the listen address of the HTTP server.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
