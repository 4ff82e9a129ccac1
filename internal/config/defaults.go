package config

const (
	defaultConfigPath              = "~/.config/backlog/config.toml"
	defaultLogDir                  = ""
	defaultHistoryDB               = "~/.local/share/backlog/history.db"
	defaultMaxConcurrentLookups    = 5
	defaultClassificationBatchSize = 20
	defaultLookupBaseURL           = "https://howlongtobeat.com"
	defaultSimilarityThreshold     = 0.85
	defaultLookupTimeoutSeconds    = 30
	defaultLookupUserAgent         = "backlog/dev"
	defaultLLMBaseURL              = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel                = "google/gemini-3-flash-preview"
	defaultLLMReferer              = "https://github.com/backlog/backlog"
	defaultLLMTitle                = "Backlog Genre Classifier"
	defaultLLMTimeoutSeconds       = 60
	defaultInputPerMillion         = 0.50
	defaultOutputPerMillion        = 3.00
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

var (
	defaultExcludedPlatforms = []string{"mobile"}
	defaultGenres            = []string{
		"Action",
		"Action RPG",
		"Adventure",
		"Beat 'em up",
		"Fighting",
		"Platform",
		"Puzzle",
		"Racing",
		"RPG",
		"Shooter",
		"Simulation",
		"Sports",
		"Strategy",
		"Survival Horror",
	}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Cache:     defaultCachePath(),
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Enrichment: Enrichment{
			BackupInput:             true,
			MaxConcurrentLookups:    defaultMaxConcurrentLookups,
			ClassificationBatchSize: defaultClassificationBatchSize,
		},
		Lookup: Lookup{
			BaseURL:             defaultLookupBaseURL,
			SimilarityThreshold: defaultSimilarityThreshold,
			ExcludedPlatforms:   append([]string(nil), defaultExcludedPlatforms...),
			TimeoutSeconds:      defaultLookupTimeoutSeconds,
			UserAgent:           defaultLookupUserAgent,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Genres: Genres{
			Allowed: append([]string(nil), defaultGenres...),
		},
		Pricing: Pricing{
			InputPerMillion:  defaultInputPerMillion,
			OutputPerMillion: defaultOutputPerMillion,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
