package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultMaxPlayers bounds the party size a session may be created with.
	DefaultMaxPlayers = 6
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// Text provider selection: "anthropic" or "openai".
	LLMProvider     string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	TextModel       string

	// Speech and image generation (OpenAI). Optional: when the key is
	// absent, scenes are produced without narration audio or imagery.
	SpeechModel string
	SpeechVoice string
	ImageModel  string

	RedisURL string
	MediaDir string

	MaxPlayers  int
	ShowDMNotes bool
}

func Load() (*Config, error) {
	maxPlayers, err := strconv.Atoi(getEnv("MAX_PLAYERS", strconv.Itoa(DefaultMaxPlayers)))
	if err != nil || maxPlayers < 1 {
		return nil, fmt.Errorf("invalid MAX_PLAYERS: %q", os.Getenv("MAX_PLAYERS"))
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LLMProvider:     getEnv("LLM_PROVIDER", "anthropic"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		TextModel:       getEnv("TEXT_MODEL", ""),
		SpeechModel:     getEnv("SPEECH_MODEL", "tts-1"),
		SpeechVoice:     getEnv("SPEECH_VOICE", "fable"),
		ImageModel:      getEnv("IMAGE_MODEL", "dall-e-3"),
		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		MediaDir:        getEnv("MEDIA_DIR", "./data/media"),
		MaxPlayers:      maxPlayers,
		ShowDMNotes:     getEnv("SHOW_DM_NOTES", "0") == "1",
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
