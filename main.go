package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"linebot_assistant/internal/assistant"
	"linebot_assistant/internal/backend"
	"linebot_assistant/internal/channel"
	"linebot_assistant/internal/classifier"
	"linebot_assistant/internal/config"
	"linebot_assistant/internal/dispatcher"
	"linebot_assistant/internal/history"
	"linebot_assistant/internal/logger"
)

func main() {
	// .env is a local-dev convenience; in deployment the env vars are set
	// directly and the file is absent.
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("No .env file found, relying on environment")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}

	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	if cfg.LLM.APIKey == "" {
		logger.Fatal().Msg("CHATGPT_API_KEY is not set")
	}
	if cfg.Line.ChannelAccessToken == "" {
		logger.Fatal().Msg("LINE_CHANNEL_ACCESS_TOKEN is not set")
	}

	ctx := context.Background()

	store, err := newHistoryStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.History.Store).Msg("Failed to initialize history store")
	}

	model, err := classifier.NewChatModel(ctx, cfg.LLM)
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.LLM.Provider).Msg("Failed to initialize chat model")
	}

	backendClient := backend.NewClient(cfg.Backend.BaseURL, cfg.BackendTimeout())
	svc := assistant.NewService(
		classifier.New(model, store, cfg.LLMTimeout()),
		dispatcher.New(backendClient),
		backendClient,
		cfg.Keywords,
	)

	lineClient := channel.NewLineClient(cfg.Line.ReplyURL, cfg.Line.ChannelAccessToken)
	webhook := channel.NewWebhookHandler(svc, lineClient)

	mux := http.NewServeMux()
	mux.Handle("/webhook", webhook)
	mux.HandleFunc("/health", channel.HealthHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info().
		Str("addr", addr).
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.LLM.Model).
		Str("history_store", cfg.History.Store).
		Msg("Assistant listening")

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal().Err(err).Msg("HTTP server stopped")
	}
}

func newHistoryStore(ctx context.Context, cfg *config.Config) (history.Store, error) {
	switch cfg.History.Store {
	case "redis":
		return history.NewRedisStore(ctx, cfg.History.Capacity, cfg.HistoryTTL())
	case "", "memory":
		return history.NewMemoryStore(cfg.History.Capacity), nil
	default:
		return nil, fmt.Errorf("unknown history store: %s", cfg.History.Store)
	}
}
