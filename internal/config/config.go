package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/helrabelo/job-search/internal/hn"
)

type AppConfig struct {
	Port     int    `yaml:"port" json:"port"`
	DataDir  string `yaml:"data_dir" json:"data_dir"`
	LogLevel string `yaml:"log_level" json:"log_level"`
	LogJSON  bool   `yaml:"log_json" json:"log_json"`
}

type IngestConfig struct {
	SearchURL             string  `yaml:"search_url" json:"search_url"`
	ItemURL               string  `yaml:"item_url" json:"item_url"`
	ThreadLimit           int     `yaml:"thread_limit" json:"thread_limit"`
	BatchSize             int     `yaml:"batch_size" json:"batch_size"`
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds" json:"request_timeout_seconds"`
	RequestsPerSecond     float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst                 int     `yaml:"burst" json:"burst"`
	UserAgent             string  `yaml:"user_agent" json:"user_agent"`
}

type PollingConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Schedule   string `yaml:"schedule" json:"schedule"` // cron spec, e.g. "@every 6h"
	RunOnStart bool   `yaml:"run_on_start" json:"run_on_start"`
}

type StatsConfig struct {
	TechKeywords []string `yaml:"tech_keywords" json:"tech_keywords"`
	TopN         int      `yaml:"top_n" json:"top_n"`
}

type Config struct {
	App     AppConfig     `yaml:"app" json:"app"`
	Ingest  IngestConfig  `yaml:"ingest" json:"ingest"`
	Polling PollingConfig `yaml:"polling" json:"polling"`
	Stats   StatsConfig   `yaml:"stats" json:"stats"`
}

var defaultTechKeywords = []string{
	"Go", "Golang", "Rust", "Python", "TypeScript", "JavaScript", "Java", "Kotlin",
	"Scala", "Ruby", "Elixir", "C++", "C#", "Swift", "PHP", "Haskell",
	"React", "Vue", "Angular", "Next.js", "Node", "Rails", "Django", "FastAPI",
	"PostgreSQL", "MySQL", "SQLite", "Redis", "Kafka", "Elasticsearch",
	"AWS", "GCP", "Azure", "Kubernetes", "Docker", "Terraform",
	"GraphQL", "gRPC", "LLM", "Machine Learning",
}

func Default() Config {
	return Config{
		App: AppConfig{
			Port:     38471,
			DataDir:  ".",
			LogLevel: "info",
		},
		Ingest: IngestConfig{
			SearchURL:             hn.DefaultSearchURL,
			ItemURL:               hn.DefaultItemURL,
			ThreadLimit:           2,
			BatchSize:             hn.DefaultBatchSize,
			RequestTimeoutSeconds: int(hn.DefaultTimeout.Seconds()),
			RequestsPerSecond:     50,
			Burst:                 hn.DefaultBatchSize,
			UserAgent:             hn.DefaultUserAgent,
		},
		Polling: PollingConfig{
			Enabled:  false,
			Schedule: "@every 6h",
		},
		Stats: StatsConfig{
			TechKeywords: append([]string(nil), defaultTechKeywords...),
			TopN:         20,
		},
	}
}

// Load reads the YAML file at path over Default() and applies environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)
	return cfg, nil
}
