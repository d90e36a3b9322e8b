package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/collab-matcher/internal/ai"
	"github.com/spigell/collab-matcher/internal/ai/gemini"
	"github.com/spigell/collab-matcher/internal/ai/openai"
	"github.com/spigell/collab-matcher/internal/auth"
	"github.com/spigell/collab-matcher/internal/secrets"
	"github.com/spigell/collab-matcher/internal/snapshot"
	"github.com/spigell/collab-matcher/internal/store"
)

const (
	driverMemory   = "memory"
	driverPostgres = "postgres"
)

// newGenerator returns a nil Generator and an error when the provider has no key.
func newGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Generator, error) {
	if cfg == nil {
		return nil, errors.New("ai configuration is missing")
	}

	switch provider := strings.TrimSpace(strings.ToLower(cfg.Provider)); provider {
	case "", ai.ProviderGemini:
		if cfg.Gemini == nil {
			cfg.Gemini = &GeminiConfig{}
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, err
		}
		g, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ai.ProviderOpenAI:
		if cfg.OpenAI == nil {
			cfg.OpenAI = &OpenAIConfig{}
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: cfg.OpenAI.APIKey,
			File:  cfg.OpenAI.APIKeyFile,
			Env:   "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, err
		}
		g, err := openai.NewGenerator(apiKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

func newStore(ctx context.Context, cfg *StoreConfig, logger *zap.Logger) (store.Store, error) {
	if cfg == nil {
		cfg = &StoreConfig{Driver: driverMemory}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", driverMemory:
		mem := store.NewMemory(logger, nil)
		if cfg.SeedFile != "" {
			if err := mem.LoadSeed(cfg.SeedFile); err != nil {
				return nil, err
			}
		}
		return mem, nil
	case driverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("store.database-url is required for the postgres driver")
		}
		return store.NewPostgres(ctx, cfg.DatabaseURL, logger)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

func newVerifier(cfg *AuthConfig) (*auth.Verifier, error) {
	if cfg == nil {
		cfg = &AuthConfig{}
	}

	secret, err := secrets.Load(secrets.Source{
		Name:  "auth secret",
		Value: cfg.Secret,
		File:  cfg.SecretFile,
		Env:   "COLLAB_AUTH_SECRET",
	})
	if err != nil {
		return nil, err
	}

	return auth.NewVerifier(auth.Config{
		Secret:         secret,
		Issuer:         cfg.Issuer,
		Audience:       cfg.Audience,
		AllowedDomains: cfg.AllowedDomains,
		TestEmails:     cfg.TestEmails,
	})
}

// newRedis returns nil when no redis url is configured.
func newRedis(ctx context.Context, cfg *RedisConfig) (*redis.Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.URL) == "" {
		return nil, nil
	}
	return snapshot.NewRedisClient(ctx, cfg.URL)
}
