package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/adventure-engine/pkg/chat"
)

// MockGenerator is a mock implementation of the gateway interfaces for
// testing. Text responses can be queued in call order, or overridden with
// a func field; speech and image calls succeed with small payloads unless
// an override is set.
type MockGenerator struct {
	GenerateTextFunc   func(ctx context.Context, messages []chat.ChatMessage) (string, error)
	GenerateSpeechFunc func(ctx context.Context, text string) ([]byte, error)
	GenerateImageFunc  func(ctx context.Context, description string) ([]byte, error)

	// TextResponses is a FIFO queue consumed by GenerateText when
	// GenerateTextFunc is unset.
	TextResponses []string

	// Track calls for testing
	TextCalls   []GenerateTextCall
	SpeechCalls []string
	ImageCalls  []string

	mu sync.Mutex // protects all fields above
}

type GenerateTextCall struct {
	Messages []chat.ChatMessage
}

var (
	_ TextGenerator   = (*MockGenerator)(nil)
	_ SpeechGenerator = (*MockGenerator)(nil)
	_ ImageGenerator  = (*MockGenerator)(nil)
)

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		TextCalls:   make([]GenerateTextCall, 0),
		SpeechCalls: make([]string, 0),
		ImageCalls:  make([]string, 0),
	}
}

// QueueText appends canned text responses consumed in call order.
func (m *MockGenerator) QueueText(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TextResponses = append(m.TextResponses, responses...)
}

func (m *MockGenerator) GenerateText(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	m.mu.Lock()
	m.TextCalls = append(m.TextCalls, GenerateTextCall{Messages: messages})
	fn := m.GenerateTextFunc
	var queued string
	hasQueued := false
	if fn == nil && len(m.TextResponses) > 0 {
		queued = m.TextResponses[0]
		m.TextResponses = m.TextResponses[1:]
		hasQueued = true
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	if hasQueued {
		return queued, nil
	}
	return "Mock response", nil
}

func (m *MockGenerator) GenerateSpeech(ctx context.Context, text string) ([]byte, error) {
	m.mu.Lock()
	m.SpeechCalls = append(m.SpeechCalls, text)
	fn := m.GenerateSpeechFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return []byte("mock-audio"), nil
}

func (m *MockGenerator) GenerateImage(ctx context.Context, description string) ([]byte, error) {
	m.mu.Lock()
	m.ImageCalls = append(m.ImageCalls, description)
	fn := m.GenerateImageFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, description)
	}
	return []byte("mock-image"), nil
}

// SetGenerateTextError sets up the mock to fail all text generation.
func (m *MockGenerator) SetGenerateTextError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateTextFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		return "", err
	}
}

// SetGenerateSpeechError sets up the mock to fail all speech generation.
func (m *MockGenerator) SetGenerateSpeechError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateSpeechFunc = func(ctx context.Context, text string) ([]byte, error) {
		return nil, err
	}
}

// SetGenerateImageError sets up the mock to fail all image generation.
func (m *MockGenerator) SetGenerateImageError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateImageFunc = func(ctx context.Context, description string) ([]byte, error) {
		return nil, err
	}
}

// Calls returns copies of the call tracking data.
func (m *MockGenerator) Calls() (texts []GenerateTextCall, speeches []string, images []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	texts = make([]GenerateTextCall, len(m.TextCalls))
	copy(texts, m.TextCalls)
	speeches = make([]string, len(m.SpeechCalls))
	copy(speeches, m.SpeechCalls)
	images = make([]string, len(m.ImageCalls))
	copy(images, m.ImageCalls)
	return texts, speeches, images
}
