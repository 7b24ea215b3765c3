package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig   `yaml:"server"`
	Pipeline    PipelineConfig `yaml:"pipeline"`
	LLM         LLMConfig      `yaml:"llm"`
	StoragePath string         `yaml:"storage_path"`
	LogLevel    string         `yaml:"log_level"`
	Env         string         `yaml:"env"`
}

type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type PipelineConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	// Summaries scoring below AcceptScore get one refinement attempt.
	AcceptScore int `yaml:"accept_score"`
	// SegmentConcurrency of 1 processes segments strictly in order.
	SegmentConcurrency int `yaml:"segment_concurrency"`

	SegmentationWorkers int           `yaml:"segmentation_workers"`
	SummaryWorkers      int           `yaml:"summary_workers"`
	CompositionWorkers  int           `yaml:"composition_workers"`
	StorageWorkers      int           `yaml:"storage_workers"`
	QueueSize           int           `yaml:"queue_size"`
	ProcessingTimeout   time.Duration `yaml:"processing_timeout"`
}

// LLMConfig holds the generative service credential and per-call limits.
type LLMConfig struct {
	APIKey  string `yaml:"-"`
	BaseURL string `yaml:"base_url"`

	AttributionModel string `yaml:"attribution_model"`
	SummaryModel     string `yaml:"summary_model"`
	EvaluationModel  string `yaml:"evaluation_model"`
	AggregateModel   string `yaml:"aggregate_model"`
	MergeModel       string `yaml:"merge_model"`

	LabelMaxTokens     int `yaml:"label_max_tokens"`
	RelabelMaxTokens   int `yaml:"relabel_max_tokens"`
	SummaryMaxTokens   int `yaml:"summary_max_tokens"`
	RefineMaxTokens    int `yaml:"refine_max_tokens"`
	EvaluateMaxTokens  int `yaml:"evaluate_max_tokens"`
	AggregateMaxTokens int `yaml:"aggregate_max_tokens"`
	MergeMaxTokens     int `yaml:"merge_max_tokens"`

	RequestTimeout time.Duration `yaml:"request_timeout"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Pipeline: PipelineConfig{
			ChunkSize:           1500,
			ChunkOverlap:        120,
			AcceptScore:         85,
			SegmentConcurrency:  1,
			SegmentationWorkers: 2,
			SummaryWorkers:      4,
			CompositionWorkers:  2,
			StorageWorkers:      2,
			QueueSize:           100,
			ProcessingTimeout:   30 * time.Minute,
		},
		LLM: LLMConfig{
			AttributionModel:   "gpt-3.5-turbo",
			SummaryModel:       "gpt-3.5-turbo",
			EvaluationModel:    "gpt-4",
			AggregateModel:     "gpt-3.5-turbo",
			MergeModel:         "gpt-4",
			LabelMaxTokens:     1000,
			RelabelMaxTokens:   1500,
			SummaryMaxTokens:   600,
			RefineMaxTokens:    700,
			EvaluateMaxTokens:  800,
			AggregateMaxTokens: 1300,
			MergeMaxTokens:     1500,
			RequestTimeout:     2 * time.Minute,
		},
		StoragePath: "./data",
		LogLevel:    "info",
		Env:         "development",
	}
}

// Load builds the configuration from defaults, the YAML file named by
// NOTES_CONFIG (if any), and finally the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("NOTES_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Address = getEnv("NOTES_ADDRESS", c.Server.Address)
	c.StoragePath = getEnv("NOTES_STORAGE_PATH", c.StoragePath)
	c.LogLevel = getEnv("NOTES_LOG_LEVEL", c.LogLevel)
	c.Env = getEnv("NOTES_ENV", c.Env)

	c.Pipeline.ChunkSize = getEnvInt("NOTES_CHUNK_SIZE", c.Pipeline.ChunkSize)
	c.Pipeline.ChunkOverlap = getEnvInt("NOTES_CHUNK_OVERLAP", c.Pipeline.ChunkOverlap)
	c.Pipeline.AcceptScore = getEnvInt("NOTES_ACCEPT_SCORE", c.Pipeline.AcceptScore)
	c.Pipeline.SegmentConcurrency = getEnvInt("NOTES_SEGMENT_CONCURRENCY", c.Pipeline.SegmentConcurrency)

	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		c.LLM.AttributionModel = model
		c.LLM.SummaryModel = model
		c.LLM.EvaluationModel = model
		c.LLM.AggregateModel = model
		c.LLM.MergeModel = model
	}
}

func (c *Config) Validate() error {
	p := c.Pipeline
	if p.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", p.ChunkSize)
	}
	if p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be in [0, %d)", p.ChunkOverlap, p.ChunkSize)
	}
	if p.SegmentConcurrency < 1 {
		return fmt.Errorf("segment concurrency must be at least 1, got %d", p.SegmentConcurrency)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY not set")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
