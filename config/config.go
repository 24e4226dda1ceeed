// Package config loads and validates the generation pipeline
// configuration from a YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// AI configures the model endpoint.
type AI struct {
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	MaxTokens         int           `yaml:"max_tokens"`
	Temperature       float64       `yaml:"temperature"`
	TopP              float64       `yaml:"top_p"`
}

// Pipeline configures the retry state machine and quality gate.
type Pipeline struct {
	AcceptanceThreshold  float64       `yaml:"acceptance_threshold"`
	MaxRetries           int           `yaml:"max_retries"`
	TransientFailLimit   int           `yaml:"transient_failure_limit"`
	BackoffBase          time.Duration `yaml:"backoff_base"`
	BackoffCap           time.Duration `yaml:"backoff_cap"`
	TemperatureStep      float64       `yaml:"temperature_step"`
	EnabledProcessors    []string      `yaml:"enabled_processors"`
	ScoreWeightLength    float64       `yaml:"score_weight_length"`
	ScoreWeightKeywords  float64       `yaml:"score_weight_keywords"`
	ScoreWeightStructure float64       `yaml:"score_weight_structure"`
	ScoreWeightRead      float64       `yaml:"score_weight_readability"`
}

// Config is the full configuration surface. It is passed explicitly into
// the orchestrator entry point; nothing reads ambient process state after
// Load returns.
type Config struct {
	AI           AI       `yaml:"ai"`
	Pipeline     Pipeline `yaml:"pipeline"`
	OutputDir    string   `yaml:"output_dir"`
	TemplatesDir string   `yaml:"templates_dir"`
	LogLevel     string   `yaml:"log_level"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		AI: AI{
			Model:          "mistralai/mistral-small-3.2-24b-instruct:free",
			BaseURL:        "https://openrouter.ai/api/v1",
			RequestTimeout: 60 * time.Second,
			MaxTokens:      2000,
			Temperature:    0.7,
			TopP:           0.9,
		},
		Pipeline: Pipeline{
			AcceptanceThreshold:  0.6,
			MaxRetries:           3,
			TransientFailLimit:   3,
			BackoffBase:          500 * time.Millisecond,
			BackoffCap:           30 * time.Second,
			TemperatureStep:      0.1,
			ScoreWeightLength:    1,
			ScoreWeightKeywords:  1,
			ScoreWeightStructure: 1,
			ScoreWeightRead:      1,
		},
		OutputDir: "./output",
		LogLevel:  "info",
	}
}

// Load reads the config file at path (optional), applies environment
// overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges the pipeline depends on.
func (c Config) Validate() error {
	if c.Pipeline.AcceptanceThreshold < 0 || c.Pipeline.AcceptanceThreshold > 1 {
		return fmt.Errorf("acceptance_threshold %v out of range [0, 1]", c.Pipeline.AcceptanceThreshold)
	}
	if c.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0")
	}
	if c.Pipeline.TransientFailLimit < 0 {
		return fmt.Errorf("transient_failure_limit must be >= 0")
	}
	if c.Pipeline.BackoffBase <= 0 {
		return fmt.Errorf("backoff_base must be positive")
	}
	if c.Pipeline.BackoffCap < c.Pipeline.BackoffBase {
		return fmt.Errorf("backoff_cap must be >= backoff_base")
	}
	if c.AI.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai.temperature %v out of range [0, 2]", c.AI.Temperature)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.AI.APIKey = getEnv("INKFORGE_API_KEY", cfg.AI.APIKey)
	cfg.AI.BaseURL = getEnv("INKFORGE_BASE_URL", cfg.AI.BaseURL)
	cfg.AI.Model = getEnv("INKFORGE_MODEL", cfg.AI.Model)
	cfg.OutputDir = getEnv("INKFORGE_OUTPUT_DIR", cfg.OutputDir)
	cfg.TemplatesDir = getEnv("INKFORGE_TEMPLATES_DIR", cfg.TemplatesDir)
	cfg.LogLevel = getEnv("INKFORGE_LOG_LEVEL", cfg.LogLevel)
	cfg.Pipeline.AcceptanceThreshold = getEnvFloat("INKFORGE_ACCEPTANCE_THRESHOLD", cfg.Pipeline.AcceptanceThreshold)
	cfg.Pipeline.MaxRetries = getEnvInt("INKFORGE_MAX_RETRIES", cfg.Pipeline.MaxRetries)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
