// Package config loads runtime configuration from an optional YAML file,
// a .env file, and environment variables, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the CLI needs to run.
type Config struct {
	SerperAPIKey  string
	SerperBaseURL string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	Countries        []string
	CitiesPerCountry int
	MaxTotalQueries  int
	ResultsPerQuery  int
	NativeLanguage   bool
	IncludeB2B       bool
	CaptureAds       bool
	Autocomplete     bool
	MapsSupplement   bool

	RateRPS    float64
	RateJitter float64

	HTTPTimeout time.Duration
	MaxAttempts int
	RetryDelay  time.Duration

	StorageBackend     string // csv, sqlite, postgres or empty for none
	StoragePath        string // file path for csv/sqlite
	PostgresDSN        string
	CheckpointInterval int

	ResultsDir string
	PlansPath  string

	MetricsPort int // 0 disables the metrics server
	LogLevel    string
	LogFile     string
}

// Load reads config.yaml (if present at path, which may be empty), overlays
// .env, and finally environment variables prefixed PROSPECT_. Secrets also
// resolve from their conventional unprefixed names.
func Load(path string) (*Config, error) {
	// .env values become plain environment variables so both viper and the
	// conventional key lookups below see them.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PROSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{
		SerperAPIKey:  firstNonEmpty(v.GetString("serper.api_key"), os.Getenv("SERPER_API_KEY")),
		SerperBaseURL: v.GetString("serper.base_url"),

		OpenAIAPIKey:  firstNonEmpty(v.GetString("openai.api_key"), os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: v.GetString("openai.base_url"),
		OpenAIModel:   v.GetString("openai.model"),

		Countries:        v.GetStringSlice("plan.countries"),
		CitiesPerCountry: v.GetInt("plan.cities_per_country"),
		MaxTotalQueries:  v.GetInt("plan.max_total_queries"),
		ResultsPerQuery:  v.GetInt("plan.results_per_query"),
		NativeLanguage:   v.GetBool("plan.native_language"),
		IncludeB2B:       v.GetBool("search.exclude_b2b_directories"),
		CaptureAds:       v.GetBool("search.capture_ads"),
		Autocomplete:     v.GetBool("search.autocomplete"),
		MapsSupplement:   v.GetBool("search.maps_supplement"),

		RateRPS:    v.GetFloat64("rate.rps"),
		RateJitter: v.GetFloat64("rate.jitter"),

		HTTPTimeout: v.GetDuration("http.timeout"),
		MaxAttempts: v.GetInt("retry.max_attempts"),
		RetryDelay:  v.GetDuration("retry.base_delay"),

		StorageBackend:     v.GetString("storage.backend"),
		StoragePath:        v.GetString("storage.path"),
		PostgresDSN:        firstNonEmpty(v.GetString("storage.postgres_dsn"), os.Getenv("DATABASE_URL")),
		CheckpointInterval: v.GetInt("storage.checkpoint_interval"),

		ResultsDir: v.GetString("export.results_dir"),
		PlansPath:  v.GetString("plans.path"),

		MetricsPort: v.GetInt("metrics.port"),
		LogLevel:    v.GetString("log.level"),
		LogFile:     v.GetString("log.file"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openai.model", "gpt-4o")

	v.SetDefault("plan.countries", []string{"US"})
	v.SetDefault("plan.cities_per_country", 5)
	v.SetDefault("plan.max_total_queries", 100)
	v.SetDefault("plan.results_per_query", 20)
	v.SetDefault("search.exclude_b2b_directories", false)
	v.SetDefault("search.capture_ads", true)
	v.SetDefault("search.autocomplete", false)
	v.SetDefault("search.maps_supplement", true)

	v.SetDefault("rate.rps", 2.0)
	v.SetDefault("rate.jitter", 0.2)

	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", 2*time.Second)

	v.SetDefault("storage.backend", "")
	v.SetDefault("storage.checkpoint_interval", 50)

	v.SetDefault("export.results_dir", "results")
	v.SetDefault("plans.path", "plans.ndjson")

	v.SetDefault("metrics.port", 0)
	v.SetDefault("log.level", "info")
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s != "" {
			return s
		}
	}
	return ""
}
