package callsight

// Config holds all configuration for the extraction pipeline.
type Config struct {
	// Extraction configures the external extraction service endpoint.
	Extraction LLMConfig `json:"extraction" yaml:"extraction"`

	// RateIntervalSeconds is the minimum number of seconds between
	// consecutive outbound requests to the extraction service, measured
	// from the end of the previous request. Enforced process-wide.
	RateIntervalSeconds int `json:"rate_interval_seconds" yaml:"rate_interval_seconds"`

	// MaxAttempts is the total number of attempts per call, including the
	// first. Transient failures are retried with exponential backoff.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// BackoffBaseSeconds is the delay before the first retry; it doubles
	// on each subsequent retry.
	BackoffBaseSeconds int `json:"backoff_base_seconds" yaml:"backoff_base_seconds"`

	// Generation parameters. Temperature is kept low for determinism.
	Temperature     float64 `json:"temperature" yaml:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens" yaml:"max_output_tokens"`

	// ExtraCarModels extends the built-in car model dictionary used by
	// the pattern extractor.
	ExtraCarModels []string `json:"extra_car_models,omitempty" yaml:"extra_car_models,omitempty"`

	// DBPath is the path to the SQLite run database backing the dashboard.
	// Empty disables persistence; the CSV output is unaffected.
	DBPath string `json:"db_path" yaml:"db_path"`
}

// LLMConfig configures the extraction service provider endpoint.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"` // gemini, openai, groq, ollama, custom
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// DefaultConfig returns a Config with the defaults the pipeline was tuned
// for: Gemini flash, 15 requests/minute, 3 attempts per call.
func DefaultConfig() Config {
	return Config{
		Extraction: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
		},
		RateIntervalSeconds: 4,
		MaxAttempts:         3,
		BackoffBaseSeconds:  1,
		Temperature:         0.1,
		MaxOutputTokens:     2048,
	}
}
