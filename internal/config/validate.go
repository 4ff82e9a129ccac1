package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Credentials are not required
// here so cache and history commands work without them; see ValidateForRun.
func (c *Config) Validate() error {
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	if err := c.validateLookup(); err != nil {
		return err
	}
	if err := c.validateGenres(); err != nil {
		return err
	}
	if err := c.validatePricing(); err != nil {
		return err
	}
	return nil
}

// ValidateForRun checks the settings an enrichment run needs on top of Validate.
func (c *Config) ValidateForRun() error {
	if strings.TrimSpace(c.Paths.Input) == "" {
		return errors.New("paths.input is required (set it in the config or pass --input)")
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("llm.api_key is required. Set OPENROUTER_API_KEY env var or edit %s (create with 'backlog config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	if err := ensurePositiveMap(map[string]int{
		"enrichment.max_concurrent_lookups":    c.Enrichment.MaxConcurrentLookups,
		"enrichment.classification_batch_size": c.Enrichment.ClassificationBatchSize,
	}); err != nil {
		return err
	}
	if c.Enrichment.MaxRecordsPerRun < 0 {
		return errors.New("enrichment.max_records_per_run must be >= 0")
	}
	if c.Enrichment.OverwriteInput && strings.TrimSpace(c.Paths.Output) != "" && c.Paths.Output != c.Paths.Input {
		return errors.New("paths.output must be empty when enrichment.overwrite_input is true")
	}
	return nil
}

func (c *Config) validateLookup() error {
	if c.Lookup.SimilarityThreshold < 0 || c.Lookup.SimilarityThreshold > 1 {
		return errors.New("lookup.similarity_threshold must be between 0 and 1")
	}
	if strings.TrimSpace(c.Lookup.BaseURL) == "" {
		return errors.New("lookup.base_url must be set")
	}
	return nil
}

func (c *Config) validateGenres() error {
	if len(c.Genres.Allowed) == 0 {
		return errors.New("genres.allowed must include at least one label")
	}
	return nil
}

func (c *Config) validatePricing() error {
	if c.Pricing.InputPerMillion < 0 {
		return errors.New("pricing.input_per_million must be >= 0")
	}
	if c.Pricing.OutputPerMillion < 0 {
		return errors.New("pricing.output_per_million must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
