package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/collab-matcher/internal/alignment"
	"github.com/spigell/collab-matcher/internal/feed"
	"github.com/spigell/collab-matcher/internal/logger"
	"github.com/spigell/collab-matcher/internal/server"
	"github.com/spigell/collab-matcher/internal/snapshot"
	"github.com/spigell/collab-matcher/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().String("seed-file", "", "YAML file with users and projects for the memory store")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("store.seed-file", serveCmd.Flags().Lookup("seed-file"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the collab-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	st, err := newStore(ctx, config.Store, logger)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer st.Close()

	rdb, err := newRedis(ctx, config.Redis)
	if err != nil {
		logger.Fatal("connecting to redis", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}

	snap := snapshot.New(st, logger, snapshot.Options{
		Schedule: config.Snapshot.Schedule,
		Redis:    rdb,
		Key:      config.Redis.Key,
	})
	if err := snap.Start(ctx); err != nil {
		logger.Fatal("starting the snapshot", zap.Error(err))
	}
	defer snap.Stop()

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("alignment requests will fail with a configuration error",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY or OPENAI_API_KEY, or the ai.<provider>.api-key-file key in the configuration file"),
		)
	}

	svc := alignment.NewService(st, generator, logger, alignment.Options{
		Timeout:      config.AI.Timeout,
		MaxLogLength: config.AI.MaxLogLength,
	})

	verifier, err := newVerifier(config.Auth)
	if err != nil {
		logger.Fatal("configuring token verification",
			zap.Error(err),
			zap.String("hint", "set COLLAB_AUTH_SECRET or the 'auth.secret-file' key in the configuration file"),
		)
	}

	srv := server.New(server.Config{
		Addr:        config.Server.Addr,
		CORSOrigins: config.Server.CORSOrigins,
		Debug:       viper.GetBool("debug"),
	}, server.Deps{
		Store:     st,
		Snapshot:  snap,
		Alignment: svc,
		Verifier:  verifier,
		Feed:      feed.New(logger, nil),
		Scorer:    store.HashScorer,
		Logger:    logger,
	})

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "shutdown requested"))
}

// redacted copies config with secrets blanked for debug output.
func redacted(config *Config) *Config {
	c := *config
	if c.Auth != nil {
		a := *c.Auth
		a.Secret = hidden(a.Secret)
		c.Auth = &a
	}
	if c.AI != nil {
		aiCfg := *c.AI
		if aiCfg.Gemini != nil {
			g := *aiCfg.Gemini
			g.APIKey = hidden(g.APIKey)
			aiCfg.Gemini = &g
		}
		if aiCfg.OpenAI != nil {
			o := *aiCfg.OpenAI
			o.APIKey = hidden(o.APIKey)
			aiCfg.OpenAI = &o
		}
		c.AI = &aiCfg
	}
	if c.Store != nil {
		s := *c.Store
		s.DatabaseURL = hidden(s.DatabaseURL)
		c.Store = &s
	}
	return &c
}

func hidden(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
