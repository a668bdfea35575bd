package services

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jwebster45206/adventure-engine/pkg/chat"
)

const (
	DefaultOpenAITemperature = 0.7
	DefaultOpenAIMaxTokens   = 2048
)

// OpenAIService implements all three gateway capabilities against the
// OpenAI API: chat completion for text, TTS for narration audio, and
// image generation for scene imagery.
type OpenAIService struct {
	client      *openai.Client
	textModel   string
	speechModel string
	speechVoice string
	imageModel  string
	logger      *slog.Logger
}

var (
	_ TextGenerator   = (*OpenAIService)(nil)
	_ SpeechGenerator = (*OpenAIService)(nil)
	_ ImageGenerator  = (*OpenAIService)(nil)
)

func NewOpenAIService(apiKey, textModel, speechModel, speechVoice, imageModel string, logger *slog.Logger) *OpenAIService {
	if textModel == "" {
		textModel = openai.GPT4o
	}
	return &OpenAIService{
		client:      openai.NewClient(apiKey),
		textModel:   textModel,
		speechModel: speechModel,
		speechVoice: speechVoice,
		imageModel:  imageModel,
		logger:      logger,
	}
}

// GenerateText makes a chat completion request.
func (o *OpenAIService) GenerateText(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	oaiMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		oaiMessages[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.textModel,
		Messages:    oaiMessages,
		Temperature: DefaultOpenAITemperature,
		MaxTokens:   DefaultOpenAIMaxTokens,
	})
	if err != nil {
		return "", genError(KindProvider, "chat completion failed", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", genError(KindParse, "empty response content", nil)
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateSpeech converts narration text to mp3 audio bytes.
func (o *OpenAIService) GenerateSpeech(ctx context.Context, text string) ([]byte, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.SpeechModel(o.speechModel),
		Input: text,
		Voice: openai.SpeechVoice(o.speechVoice),
	})
	if err != nil {
		return nil, genError(KindProvider, "speech generation failed", err)
	}
	defer func() { _ = resp.Close() }()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, genError(KindProvider, "failed to read audio stream", err)
	}
	if len(audio) == 0 {
		return nil, genError(KindParse, "empty audio response", nil)
	}

	return audio, nil
}

// GenerateImage renders a scene image and returns its bytes.
func (o *OpenAIService) GenerateImage(ctx context.Context, description string) ([]byte, error) {
	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         description,
		Model:          o.imageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, genError(KindProvider, "image generation failed", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, genError(KindParse, "empty image response", nil)
	}

	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, genError(KindParse, "failed to decode image data", err)
	}

	return img, nil
}
