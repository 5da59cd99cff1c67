// Package config loads and validates all environment variables at startup.
// Every other package receives typed values — nothing reads os.Getenv directly.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider names accepted in LLM_PROVIDER.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Geocoder names accepted in GEOCODER.
const (
	GeocoderNominatim = "nominatim"
	GeocoderMapbox    = "mapbox"
)

// Config is the fully-parsed application configuration.
type Config struct {
	// ── Server ────────────────────────────────────────────────────────────────
	Port            string        // default "8080"
	Env             string        // "development" | "staging" | "production"
	ShutdownTimeout time.Duration // default 20s

	// ── Logging ───────────────────────────────────────────────────────────────
	LogLevel  string // debug | info | warn | error; empty picks by Env
	LogFormat string // json | text; empty picks by Env

	// ── Chat model ────────────────────────────────────────────────────────────
	LLMProvider     string // "openai" (default) | "anthropic"
	OpenAIAPIKey    string
	OpenAIModel     string // default "gpt-3.5-turbo"
	OpenAIBaseURL   string // any OpenAI-compatible API root
	AnthropicAPIKey string
	AnthropicModel  string // default "claude-3-5-haiku-latest"
	LLMTimeout      time.Duration

	// ── Geocoding ─────────────────────────────────────────────────────────────
	Geocoder           string // "nominatim" (default) | "mapbox"
	NominatimURL       string
	NominatimUserAgent string // default "geo_mapper"
	MapboxToken        string
	GeocodeCacheSize   int // 0 disables the cache
	GeocodeTimeout     time.Duration

	// ── Map data (Overpass) ───────────────────────────────────────────────────
	OverpassURL     string
	OverpassTimeout time.Duration

	// ── Basemap ───────────────────────────────────────────────────────────────
	BasemapURL         string
	BasemapAttribution string

	// ── Reference data ────────────────────────────────────────────────────────
	// Any path may be empty; the features that need it then report the data
	// as unavailable.
	EventsPath     string // CSV or Parquet
	RoadPointsPath string
	TripPointsPath string
	WaySummaryPath string // default "wayid_outputs/wayid_summary.csv"
	RiskResolution int    // default 9
	RoadResolution int    // default 10

	// ── Kafka ─────────────────────────────────────────────────────────────────
	// Optional. When KAFKA_BROKERS is empty, labelled claims are not published.
	KafkaBrokers     []string
	KafkaClaimsTopic string // default "labelled-claims"
}

// Load reads all environment variables and returns a validated Config.
// It automatically loads a .env file from the working directory when present,
// so plain `go run ./cmd/api` works in development without any wrapper.
// Real environment variables always take precedence over .env values.
func Load() (*Config, error) {
	loadDotEnv(".env")

	c := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 20*time.Second),

		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: os.Getenv("LOG_FORMAT"),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		LLMTimeout:      getEnvAsDuration("LLM_TIMEOUT", 90*time.Second),

		Geocoder:           strings.ToLower(getEnv("GEOCODER", GeocoderNominatim)),
		NominatimURL:       getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: getEnv("NOMINATIM_USER_AGENT", "geo_mapper"),
		MapboxToken:        os.Getenv("MAPBOX_TOKEN"),
		GeocodeCacheSize:   getEnvAsInt("GEOCODE_CACHE_SIZE", 1000),
		GeocodeTimeout:     getEnvAsDuration("GEOCODE_TIMEOUT", 10*time.Second),

		OverpassURL:     getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		OverpassTimeout: getEnvAsDuration("OVERPASS_TIMEOUT", 30*time.Second),

		BasemapURL:         getEnv("BASEMAP_URL", "https://tile.openstreetmap.org/{z}/{x}/{y}.png"),
		BasemapAttribution: getEnv("BASEMAP_ATTRIBUTION", "&copy; OpenStreetMap contributors"),

		EventsPath:     os.Getenv("EVENTS_PATH"),
		RoadPointsPath: os.Getenv("ROAD_POINTS_PATH"),
		TripPointsPath: os.Getenv("TRIP_POINTS_PATH"),
		WaySummaryPath: getEnv("WAY_SUMMARY_PATH", "wayid_outputs/wayid_summary.csv"),
		RiskResolution: getEnvAsInt("RISK_RESOLUTION", 9),
		RoadResolution: getEnvAsInt("ROAD_RESOLUTION", 10),

		KafkaBrokers:     getEnvAsList("KAFKA_BROKERS"),
		KafkaClaimsTopic: getEnv("KAFKA_CLAIMS_TOPIC", "labelled-claims"),
	}

	return c, c.validate()
}

func (c *Config) validate() error {
	var errs []error

	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, fmt.Errorf("missing required env var: OPENAI_API_KEY"))
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			errs = append(errs, fmt.Errorf("missing required env var: ANTHROPIC_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderAnthropic, c.LLMProvider))
	}

	switch c.Geocoder {
	case GeocoderNominatim:
		if c.NominatimUserAgent == "" {
			errs = append(errs, fmt.Errorf("NOMINATIM_USER_AGENT must not be empty"))
		}
	case GeocoderMapbox:
		if c.MapboxToken == "" {
			errs = append(errs, fmt.Errorf("missing required env var: MAPBOX_TOKEN"))
		}
	default:
		errs = append(errs, fmt.Errorf("GEOCODER must be %q or %q, got %q", GeocoderNominatim, GeocoderMapbox, c.Geocoder))
	}

	resolutions := map[string]int{
		"RISK_RESOLUTION": c.RiskResolution,
		"ROAD_RESOLUTION": c.RoadResolution,
	}
	for name, res := range resolutions {
		if res < 0 || res > 15 {
			errs = append(errs, fmt.Errorf("%s must be between 0 and 15, got %d", name, res))
		}
	}

	if c.GeocodeCacheSize < 0 {
		errs = append(errs, fmt.Errorf("GEOCODE_CACHE_SIZE must not be negative"))
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaClaimsTopic == "" {
		errs = append(errs, fmt.Errorf("KAFKA_CLAIMS_TOPIC must be set when KAFKA_BROKERS is"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// ─── DOT-ENV LOADER ──────────────────────────────────────────────────────────

// loadDotEnv reads key=value pairs from path and sets them in the environment,
// but only for keys that are not already set. This means real env vars
// always win over the file.
// Missing file, blank lines, and #-comments are all silently ignored.
func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		// Strip optional surrounding quotes: KEY="value" or KEY='value'
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		if _, set := os.LookupEnv(key); !set {
			_ = os.Setenv(key, value)
		}
	}
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration syntax ("30s", "2m") or a plain
// integer number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(value) * time.Second
	}
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
