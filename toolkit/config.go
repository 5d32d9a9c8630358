package toolkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// RunConfig carries the runtime knobs for a suite run, resolved from
// environment variables and an optional .env file.
type RunConfig struct {
	Environment string
	BaseURL     string // overrides the profile base URL when set
	Scope       string // "personal" or "team", tags the report filename

	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int

	ReportsDir  string
	HistoryPath string

	LogRequests  bool
	LogResponses bool

	// StressEnabled gates the opt-in concurrent stress pass. Off by
	// default: the runner is sequential.
	StressEnabled bool
	StressWorkers int
}

// LoadRunConfig reads configuration from the process environment, loading a
// .env file first when one is present nearby.
func LoadRunConfig() (*RunConfig, error) {
	loadEnvFile()

	cfg := &RunConfig{
		Environment:    getWithDefault("INFERCHECK_ENV", "staging"),
		BaseURL:        os.Getenv("INFERCHECK_BASE_URL"),
		Scope:          getWithDefault("INFERCHECK_SCOPE", "personal"),
		RequestTimeout: getDurationWithDefault("INFERCHECK_REQUEST_TIMEOUT", 20*time.Second),
		RateLimitRPS:   getFloatWithDefault("INFERCHECK_RATE_LIMIT_RPS", 10),
		RateLimitBurst: getIntWithDefault("INFERCHECK_RATE_LIMIT_BURST", 20),
		ReportsDir:     getWithDefault("INFERCHECK_REPORTS_DIR", "reports"),
		HistoryPath:    getWithDefault("INFERCHECK_HISTORY_PATH", filepath.Join("reports", "history.db")),
		LogRequests:    getBoolWithDefault("INFERCHECK_LOG_REQUESTS", false),
		LogResponses:   getBoolWithDefault("INFERCHECK_LOG_RESPONSES", false),
		StressEnabled:  getBoolWithDefault("INFERCHECK_STRESS", false),
		StressWorkers:  getIntWithDefault("INFERCHECK_STRESS_WORKERS", 8),
	}

	if !ValidScope(cfg.Scope) {
		return nil, fmt.Errorf("INFERCHECK_SCOPE must be \"personal\" or \"team\", got %q", cfg.Scope)
	}

	return cfg, nil
}

// ValidScope reports whether s is a recognized report scope. Report
// pruning and indexing only track these two.
func ValidScope(s string) bool {
	return s == "personal" || s == "team"
}

func loadEnvFile() {
	for _, path := range []string{".env", filepath.Join("..", ".env"), filepath.Join("..", "..", ".env")} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
			return
		}
	}
	// no .env is fine; CI sets variables directly
}

func getWithDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationWithDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getBoolWithDefault(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getIntWithDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getFloatWithDefault(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
