package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/adventure-engine/internal/config"
	"github.com/jwebster45206/adventure-engine/internal/engine"
	"github.com/jwebster45206/adventure-engine/internal/handlers"
	"github.com/jwebster45206/adventure-engine/internal/logger"
	"github.com/jwebster45206/adventure-engine/internal/middleware"
	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Setup(cfg)
	log.Info("Starting adventure engine API", "port", cfg.Port, "environment", cfg.Environment)

	var textGen services.TextGenerator
	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Error("ANTHROPIC_API_KEY is required for the anthropic provider")
			os.Exit(1)
		}
		textGen = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.TextModel, log)
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Error("OPENAI_API_KEY is required for the openai provider")
			os.Exit(1)
		}
		textGen = services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.TextModel, cfg.SpeechModel, cfg.SpeechVoice, cfg.ImageModel, log)
	default:
		log.Error("Unknown LLM provider", "provider", cfg.LLMProvider)
		os.Exit(1)
	}

	// Speech and imagery ride on OpenAI. When the key is absent the
	// enricher runs with nil generators and scenes stay text-only.
	var speechGen services.SpeechGenerator
	var imageGen services.ImageGenerator
	if cfg.OpenAIAPIKey != "" {
		openAI := services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.TextModel, cfg.SpeechModel, cfg.SpeechVoice, cfg.ImageModel, log)
		speechGen = openAI
		imageGen = openAI
	} else {
		log.Warn("OPENAI_API_KEY not set, narration audio and scene images disabled")
	}

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	if err := store.WaitForConnection(context.Background()); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close storage", "error", err)
		}
	}()

	media, err := storage.NewMediaStore(cfg.MediaDir)
	if err != nil {
		log.Error("Failed to initialize media store", "error", err)
		os.Exit(1)
	}

	enricher := engine.NewEnricher(speechGen, imageGen, media, log)
	eng := engine.New(store, textGen, enricher, cfg.MaxPlayers, log)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, log))
	adventureHandler := handlers.NewAdventureHandler(eng, log, cfg.ShowDMNotes)
	mux.Handle("/v1/adventures", adventureHandler)
	mux.Handle("/v1/adventures/", adventureHandler)
	mux.Handle("/media/", http.StripPrefix("/media/", http.FileServer(http.Dir(media.Dir()))))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.Logger(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
	enricher.Wait()
	log.Info("Shutdown complete")
}
