package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed flow.yaml
var flowYAML []byte

type Config struct {
	Analysis AnalysisConfig
	Web      WebConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Log      LogConfig
	Flow     FlowConfig
}

type AnalysisConfig struct {
	URL          string        // Phase Two endpoint, required by serve and analyze
	Timeout      time.Duration // per request, defaults to 60s
	MaxImageSize int           // downscale uploads to this edge length; 0 keeps the original bytes
}

type WebConfig struct {
	AllowedOrigins        []string // extra CORS origins, localhost is always allowed
	AnalysisRatePerMinute int      // analysis submissions per client IP (default 10)
}

type StorageConfig struct {
	Backend    string // memory (default), postgres, redis, sqlite
	RedisURL   string // redis://host:6379/0
	SQLitePath string // file path for the sqlite backend (default skinstric.db)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// FlowConfig lists the onboarding steps as declared in flow.yaml.
type FlowConfig struct {
	Steps []Step `yaml:"steps"`
}

type Step struct {
	ID    string `yaml:"id"`
	Path  string `yaml:"path"`
	Title string `yaml:"title"`
	Back  string `yaml:"back"`
	Next  string `yaml:"next"`
}

// Step returns the step with the given id.
func (f *FlowConfig) Step(id string) (Step, bool) {
	for _, s := range f.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}

// BackPath returns the path of the step before id, or "/" when there is none.
func (f *FlowConfig) BackPath(id string) string {
	s, ok := f.Step(id)
	if !ok || s.Back == "" {
		return "/"
	}
	if prev, ok := f.Step(s.Back); ok {
		return prev.Path
	}
	return "/"
}

// NextPath returns the path of the step after id, or "/" when there is none.
func (f *FlowConfig) NextPath(id string) string {
	s, ok := f.Step(id)
	if !ok || s.Next == "" {
		return "/"
	}
	if next, ok := f.Step(s.Next); ok {
		return next.Path
	}
	return "/"
}

// validate checks that every back/next reference names a declared step.
func (f *FlowConfig) validate() error {
	for _, s := range f.Steps {
		for _, ref := range []string{s.Back, s.Next} {
			if ref == "" {
				continue
			}
			if _, ok := f.Step(ref); !ok {
				return fmt.Errorf("step %q references unknown step %q", s.ID, ref)
			}
		}
	}
	return nil
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDuration reads a Go duration ("30s", "2m"). Invalid or non-positive values fall back to the default.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func loadFlow() FlowConfig {
	var flow FlowConfig
	if err := yaml.Unmarshal(flowYAML, &flow); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded flow.yaml: " + err.Error())
	}
	if err := flow.validate(); err != nil {
		panic("invalid embedded flow.yaml: " + err.Error())
	}
	return flow
}

func Load() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			URL:          os.Getenv("ANALYSIS_URL"),
			Timeout:      envDuration("ANALYSIS_TIMEOUT", 60*time.Second),
			MaxImageSize: envInt("ANALYSIS_MAX_IMAGE_SIZE", 0),
		},
		Web: WebConfig{
			AllowedOrigins:        splitList(os.Getenv("WEB_ALLOWED_ORIGINS")),
			AnalysisRatePerMinute: envInt("WEB_ANALYSIS_RATE_PER_MINUTE", 10),
		},
		Storage: StorageConfig{
			Backend:    strings.ToLower(envString("STORAGE_BACKEND", "memory")),
			RedisURL:   os.Getenv("REDIS_URL"),
			SQLitePath: envString("SQLITE_PATH", "skinstric.db"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "console"),
		},
		Flow: loadFlow(),
	}
}
