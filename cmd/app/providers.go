package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/qazinvest/faq-assist/internal/domain/qa"
	"github.com/qazinvest/faq-assist/internal/infra/config"
	"github.com/qazinvest/faq-assist/internal/infra/faqrepo"
	"github.com/qazinvest/faq-assist/internal/infra/llm/chatgpt"
	"github.com/qazinvest/faq-assist/internal/infra/resultcache"
	"github.com/qazinvest/faq-assist/internal/infra/videostore"
	"github.com/qazinvest/faq-assist/internal/interface/telegram"
)

func provideQAConfig(cfg *config.Config) qa.Config {
	return qa.Config{
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Temperature:    cfg.LLM.Temperature,
		Thresholds: qa.Thresholds{
			Low:             cfg.Pipeline.SimilarityThresholdLow,
			Medium:          cfg.Pipeline.SimilarityThresholdMedium,
			High:            cfg.Pipeline.SimilarityThresholdHigh,
			CloseMatchRatio: cfg.Pipeline.CloseMatchRatio,
		},
		VectorWeaknessThreshold: cfg.Pipeline.VectorWeaknessThreshold,
		KeywordDiscount:         cfg.Pipeline.KeywordDiscount,
		SearchLimit:             cfg.Pipeline.SearchLimit,
		VagueSearchLimit:        cfg.Pipeline.VagueSearchLimit,
		RerankTopK:              cfg.Pipeline.RerankTopK,
		RerankBlend:             cfg.Pipeline.RerankBlendWeight,
		CacheEnabled:            cfg.Cache.Enabled,
		CacheTTL:                cfg.Cache.TTL,
		EmbedMaxTokens:          cfg.Pipeline.EmbedMaxTokens,
		ContextBudget:           cfg.Pipeline.ContextBudget,
		SynthesizeMedium:        cfg.Pipeline.SynthesizeMedium,
	}
}

func provideChatGPTClient(cfg *config.Config) (*chatgpt.Client, error) {
	return chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
}

func provideRepository(cfg *config.Config, logger *slog.Logger) qa.Repository {
	fallback := faqrepo.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("postgres repository enabled")
	return faqrepo.NewPostgresRepository(pool)
}

func provideResultCache(cfg *config.Config, logger *slog.Logger) qa.ResultCache {
	if cfg.Cache.Enabled && cfg.Cache.ValkeyAddr != "" {
		opt, err := buildValkeyOptions(cfg.Cache.ValkeyAddr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return resultcache.NewMemoryCache(cfg.Cache.MaxEntries)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return resultcache.NewMemoryCache(cfg.Cache.MaxEntries)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
			client.Close()
		} else {
			logger.Info("valkey result cache enabled", "addr", cfg.Cache.ValkeyAddr)
			return resultcache.NewValkeyCache(client, "qa")
		}
	}
	return resultcache.NewMemoryCache(cfg.Cache.MaxEntries)
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideVideoStore(cfg *config.Config, logger *slog.Logger) videostore.Store {
	if cfg.Video.Endpoint == "" || cfg.Video.Bucket == "" {
		logger.Info("video store not configured, answers are text only")
		return videostore.NopStore{}
	}
	store, err := videostore.NewMinioStore(cfg.Video.Endpoint, cfg.Video.AccessKey, cfg.Video.SecretKey, cfg.Video.Bucket, cfg.Video.UseSSL)
	if err != nil {
		logger.Error("video store init failed, answers are text only", "error", err)
		return videostore.NopStore{}
	}
	logger.Info("video store enabled", "bucket", cfg.Video.Bucket)
	return store
}

func provideBackfiller(cfg *config.Config, repo qa.Repository, client *chatgpt.Client, logger *slog.Logger) *qa.Backfiller {
	embedder := qa.NewEmbedder(client, cfg.LLM.EmbeddingModel, cfg.Pipeline.EmbedMaxTokens, logger)
	return qa.NewBackfiller(repo, embedder, cfg.Backfill.BatchSize, cfg.Backfill.Interval, logger)
}

func provideBot(cfg *config.Config, svc qa.Service, videos videostore.Store, logger *slog.Logger) (*telegram.Bot, error) {
	if !cfg.Telegram.Enabled {
		logger.Info("telegram bot disabled")
		return nil, nil
	}
	return telegram.NewBot(cfg.Telegram.Token, svc, videos, logger)
}
