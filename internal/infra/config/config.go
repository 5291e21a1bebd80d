package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Cache    CacheConfig    `yaml:"cache"`
	Postgres PostgresConfig `yaml:"postgres"`
	Telegram TelegramConfig `yaml:"telegram"`
	Video    VideoConfig    `yaml:"video"`
	Backfill BackfillConfig `yaml:"backfill"`
	Internal InternalConfig `yaml:"internal"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig bounds per-client request rates.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// LLMConfig contains OpenAI-compatible API settings.
type LLMConfig struct {
	APIKey         string        `yaml:"apiKey"`
	BaseURL        string        `yaml:"baseUrl"`
	Model          string        `yaml:"model"`
	EmbeddingModel string        `yaml:"embeddingModel"`
	Temperature    float32       `yaml:"temperature"`
	Timeout        time.Duration `yaml:"timeout"`
}

// PipelineConfig drives the retrieval-and-decision pipeline.
type PipelineConfig struct {
	SimilarityThresholdLow    float64 `yaml:"similarityThresholdLow"`
	SimilarityThresholdMedium float64 `yaml:"similarityThresholdMedium"`
	SimilarityThresholdHigh   float64 `yaml:"similarityThresholdHigh"`
	CloseMatchRatio           float64 `yaml:"closeMatchRatio"`
	VectorWeaknessThreshold   float64 `yaml:"vectorWeaknessThreshold"`
	KeywordDiscount           float64 `yaml:"keywordDiscount"`
	SearchLimit               int     `yaml:"searchLimit"`
	VagueSearchLimit          int     `yaml:"vagueSearchLimit"`
	RerankTopK                int     `yaml:"rerankTopK"`
	RerankBlendWeight         float64 `yaml:"rerankBlendWeight"`
	EmbedMaxTokens            int     `yaml:"embedMaxTokens"`
	ContextBudget             int     `yaml:"contextBudget"`
	SynthesizeMedium          bool    `yaml:"synthesizeMedium"`
}

// CacheConfig controls the result cache layer.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"maxEntries"`
	ValkeyAddr string        `yaml:"valkeyAddr"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// TelegramConfig controls the bot transport.
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// VideoConfig points at the S3-compatible store holding answer videos.
type VideoConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSsl"`
}

// BackfillConfig drives the embedding backfill worker.
type BackfillConfig struct {
	Enabled   bool          `yaml:"enabled"`
	BatchSize int           `yaml:"batchSize"`
	Interval  time.Duration `yaml:"interval"`
}

// InternalConfig protects the content-webhook endpoints.
type InternalConfig struct {
	WebhookSecret string `yaml:"webhookSecret"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("SIMILARITY_THRESHOLD_LOW"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Pipeline.SimilarityThresholdLow = parsed
		}
	}
	if v := os.Getenv("SIMILARITY_THRESHOLD_MEDIUM"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Pipeline.SimilarityThresholdMedium = parsed
		}
	}
	if v := os.Getenv("SIMILARITY_THRESHOLD_HIGH"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Pipeline.SimilarityThresholdHigh = parsed
		}
	}
	if v := os.Getenv("CLOSE_MATCH_RATIO"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Pipeline.CloseMatchRatio = parsed
		}
	}
	if v := os.Getenv("VECTOR_WEAKNESS_THRESHOLD"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Pipeline.VectorWeaknessThreshold = parsed
		}
	}
	if v := os.Getenv("RERANK_TOP_K"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.RerankTopK = parsed
		}
	}
	if v := os.Getenv("RERANK_BLEND_WEIGHT"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Pipeline.RerankBlendWeight = parsed
		}
	}
	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = parsed
		}
	}
	if v := os.Getenv("CACHE_VALKEY_ADDR"); v != "" {
		cfg.Cache.ValkeyAddr = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("TELEGRAM_ENABLED"); v != "" {
		cfg.Telegram.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("VIDEO_ENDPOINT"); v != "" {
		cfg.Video.Endpoint = v
	}
	if v := os.Getenv("VIDEO_ACCESS_KEY"); v != "" {
		cfg.Video.AccessKey = v
	}
	if v := os.Getenv("VIDEO_SECRET_KEY"); v != "" {
		cfg.Video.SecretKey = v
	}
	if v := os.Getenv("VIDEO_BUCKET"); v != "" {
		cfg.Video.Bucket = v
	}
	if v := os.Getenv("BACKFILL_ENABLED"); v != "" {
		cfg.Backfill.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("INTERNAL_WEBHOOK_SECRET"); v != "" {
		cfg.Internal.WebhookSecret = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             10,
			},
		},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			Temperature:    0.3,
			Timeout:        30 * time.Second,
		},
		Pipeline: PipelineConfig{
			SimilarityThresholdLow:    0.20,
			SimilarityThresholdMedium: 0.35,
			SimilarityThresholdHigh:   0.55,
			CloseMatchRatio:           0.85,
			VectorWeaknessThreshold:   0.5,
			KeywordDiscount:           0.8,
			SearchLimit:               10,
			VagueSearchLimit:          3,
			RerankTopK:                5,
			RerankBlendWeight:         0.6,
			EmbedMaxTokens:            8000,
			ContextBudget:             3000,
			SynthesizeMedium:          true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        6 * time.Hour,
			MaxEntries: 10000,
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
		Backfill: BackfillConfig{
			Enabled:   true,
			BatchSize: 20,
			Interval:  5 * time.Minute,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.LLM.EmbeddingModel) == "" {
		return errors.New("llm.embeddingModel cannot be empty")
	}
	p := c.Pipeline
	if p.SimilarityThresholdLow < 0 || p.SimilarityThresholdLow > 1 {
		return errors.New("pipeline.similarityThresholdLow must be in [0,1]")
	}
	if p.SimilarityThresholdLow >= p.SimilarityThresholdMedium ||
		p.SimilarityThresholdMedium >= p.SimilarityThresholdHigh {
		return errors.New("pipeline similarity thresholds must be strictly ascending")
	}
	if p.SimilarityThresholdHigh > 1 {
		return errors.New("pipeline.similarityThresholdHigh must be at most 1")
	}
	if p.CloseMatchRatio <= 0 || p.CloseMatchRatio > 1 {
		return errors.New("pipeline.closeMatchRatio must be in (0,1]")
	}
	if p.KeywordDiscount <= 0 || p.KeywordDiscount > 1 {
		return errors.New("pipeline.keywordDiscount must be in (0,1]")
	}
	if p.SearchLimit <= 0 {
		return errors.New("pipeline.searchLimit must be positive")
	}
	if p.RerankTopK <= 0 {
		return errors.New("pipeline.rerankTopK must be positive")
	}
	if p.RerankBlendWeight <= 0 || p.RerankBlendWeight > 1 {
		return errors.New("pipeline.rerankBlendWeight must be in (0,1]")
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl cannot be negative")
	}
	if c.Telegram.Enabled && strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token cannot be empty when the bot is enabled")
	}
	if c.Backfill.Enabled && c.Backfill.BatchSize <= 0 {
		return errors.New("backfill.batchSize must be positive")
	}
	return nil
}
