package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/adjutantlabs/adjutant/internal/api"
	"github.com/adjutantlabs/adjutant/internal/chat"
	"github.com/adjutantlabs/adjutant/internal/chunker"
	"github.com/adjutantlabs/adjutant/internal/config"
	"github.com/adjutantlabs/adjutant/internal/llm"
	"github.com/adjutantlabs/adjutant/internal/log"
	"github.com/adjutantlabs/adjutant/internal/model"
	"github.com/adjutantlabs/adjutant/internal/search"
	"github.com/adjutantlabs/adjutant/internal/session"
	"github.com/adjutantlabs/adjutant/internal/tools"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP chat server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

// runServe wires the application together and serves until SIGINT or
// SIGTERM.
func runServe(parent context.Context, addrOverride string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if addrOverride != "" {
		cfg.Addr = addrOverride
	}

	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
	logger.Info("starting adjutant", "version", Version, "addr", cfg.Addr)

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	catalog := model.Default()

	// Persona, optionally enriched with pre-chunked knowledge excerpts.
	persona := cfg.Persona
	if cfg.ChunksFile != "" {
		excerpts, err := chunker.Load(cfg.ChunksFile)
		if err != nil {
			logger.Warn("loading knowledge chunks, continuing without them",
				"path", cfg.ChunksFile, "error", err)
		} else {
			persona = chat.BuildPersona(persona, excerpts, cfg.MaxExcerpts)
			logger.Info("knowledge chunks loaded", "count", len(excerpts), "used", cfg.MaxExcerpts)
		}
	}

	store := session.NewStore(session.StoreConfig{
		Persona:     persona,
		MaxSessions: cfg.MaxSessions,
		IdleTTL:     cfg.SessionIdleTTL,
	})

	// Pace upstream calls so a request burst cannot trip OpenRouter's
	// own limits. The burst matches one second of sustained traffic.
	var limiter *rate.Limiter
	if cfg.OpenRouterRate > 0 {
		burst := max(int(cfg.OpenRouterRate), 1)
		limiter = rate.NewLimiter(rate.Limit(cfg.OpenRouterRate), burst)
	}

	openRouter := llm.NewOpenRouter(llm.OpenRouterConfig{
		APIKey:   cfg.OpenRouterAPIKey,
		BaseURL:  cfg.OpenRouterBaseURL,
		AppTitle: cfg.AppTitle,
		Limiter:  limiter,
		Logger:   logger,
	})

	var gemini llm.Completer
	if cfg.GeminiAPIKey != "" {
		g, err := llm.NewGemini(ctx, llm.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Logger: logger,
		})
		if err != nil {
			return fmt.Errorf("creating Gemini client: %w", err)
		}
		gemini = g
	} else {
		logger.Warn("GEMINI_API_KEY not set, gemini models will fail")
	}

	router := llm.NewRouter(catalog, openRouter, gemini)

	searcher := search.NewClient(search.ClientConfig{
		BaseURL:    cfg.SearchBaseURL,
		APIKey:     cfg.SearchAPIKey,
		MaxResults: cfg.SearchMaxResults,
	})
	registry := tools.NewRegistry(tools.NewSearchWeb(searcher, logger))

	post := chat.NewPostprocessor(chat.PostprocessorConfig{
		Enabled: cfg.SlangEnabled,
		Words:   cfg.SlangWords,
		Chance:  cfg.SlangChance,
	})

	svc, err := chat.New(chat.Config{
		Store:     store,
		Completer: router,
		Catalog:   catalog,
		Tools:     registry,
		Logger:    logger,
		Post:      post,
	})
	if err != nil {
		return fmt.Errorf("creating chat service: %w", err)
	}

	srv, err := api.NewServer(api.ServerConfig{
		Logger:      logger,
		Chat:        svc,
		Catalog:     catalog,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		RateBurst:   cfg.RateBurst,
		StaticDir:   cfg.StaticDir,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	return srv.Run(ctx, cfg.Addr)
}
