package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file locations.
type Paths struct {
	Input     string `toml:"input"`
	Output    string `toml:"output"`
	Cache     string `toml:"cache"`
	LogDir    string `toml:"log_dir"`
	HistoryDB string `toml:"history_db"`
}

// Enrichment contains run-shaping limits.
type Enrichment struct {
	OverwriteInput          bool `toml:"overwrite_input"`
	BackupInput             bool `toml:"backup_input"`
	MaxRecordsPerRun        int  `toml:"max_records_per_run"`
	MaxConcurrentLookups    int  `toml:"max_concurrent_lookups"`
	ClassificationBatchSize int  `toml:"classification_batch_size"`
}

// Lookup contains configuration for the duration lookup service.
type Lookup struct {
	BaseURL             string   `toml:"base_url"`
	SimilarityThreshold float64  `toml:"similarity_threshold"`
	ExcludedPlatforms   []string `toml:"excluded_platforms"`
	TimeoutSeconds      int      `toml:"timeout_seconds"`
	UserAgent           string   `toml:"user_agent"`
}

// LLM contains the classification service connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Genres contains the label vocabulary the classifier may assign.
type Genres struct {
	Allowed []string `toml:"allowed"`
}

// Pricing holds per-million-token prices used for the run cost estimate.
type Pricing struct {
	InputPerMillion  float64 `toml:"input_per_million"`
	OutputPerMillion float64 `toml:"output_per_million"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for backlog.
//
// Configuration sections by subsystem:
//   - Paths: catalog input/output, lookup cache, logs, run history
//   - Enrichment: overwrite policy, per-run cap, lookup width, batch size
//   - Lookup: duration search endpoint and acceptance threshold
//   - LLM: genre classification endpoint
//   - Genres: allowed genre labels
//   - Pricing: token prices for the cost summary
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Enrichment Enrichment `toml:"enrichment"`
	Lookup     Lookup     `toml:"lookup"`
	LLM        LLM        `toml:"llm"`
	Genres     Genres     `toml:"genres"`
	Pricing    Pricing    `toml:"pricing"`
	Logging    Logging    `toml:"logging"`
}

// Load reads the config at path, or the first of the user config file and
// ./backlog.toml when path is empty. It returns the normalized config, the
// path that was consulted and whether that file existed. A missing file
// yields defaults.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", filepath.Base(path), err)
	}
	return nil
}

// CreateSample writes the commented sample config to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// OutputPath returns where the enriched catalog is written: the input itself
// when overwrite_input is set, the configured output, or an empty string to
// let the catalog package derive "<input>_enriched.csv".
func (c *Config) OutputPath() string {
	if c.Enrichment.OverwriteInput {
		return c.Paths.Input
	}
	return c.Paths.Output
}

// LookupTimeout returns the duration lookup HTTP timeout.
func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.Lookup.TimeoutSeconds) * time.Second
}

// GetLLM returns the classification connection settings.
func (c *Config) GetLLM() LLM {
	return c.LLM
}
