package prompts

import (
	"fmt"

	"github.com/jwebster45206/adventure-engine/pkg/chat"
	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// DefaultHistoryLimit is the number of past scenes replayed into a scene
// generation prompt. The story summary carries the long-term state, so a
// short window keeps token usage bounded without losing continuity.
const DefaultHistoryLimit = 10

// Builder constructs the message array for a scene generation call using
// a fluent interface. It is the single place the accumulated story
// context is rendered for the model, which is what gives later scenes
// continuity with everything before them.
type Builder struct {
	sess         *session.AdventureSession
	action       string
	actorIndex   int
	historyLimit int
}

// NewScene creates a builder for the session's next scene.
func NewScene(sess *session.AdventureSession) *Builder {
	return &Builder{
		sess:         sess,
		actorIndex:   -1,
		historyLimit: DefaultHistoryLimit,
	}
}

// WithAction sets the acting character and the action that drives the
// next scene. Omit for the opening scene.
func (b *Builder) WithAction(characterIndex int, action string) *Builder {
	b.actorIndex = characterIndex
	b.action = action
	return b
}

// WithHistoryLimit overrides the scene history window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build returns the message array for the generation gateway. The system
// message always includes the full story summary and party roster, plus
// at minimum the immediately preceding scene, so every generation call
// sees the cumulative state.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.sess == nil {
		return nil, fmt.Errorf("session is required")
	}
	if !b.sess.Story.Initialized() {
		return nil, fmt.Errorf("story is not initialized")
	}
	if len(b.sess.Party) == 0 {
		return nil, fmt.Errorf("party is empty")
	}

	messages := []chat.ChatMessage{
		chat.System(SystemPrompt + "\n\n" + b.sess.Story.Summary() + "\n" + PartyRoster(b.sess.Party)),
	}
	messages = append(messages, b.historyMessages()...)

	if b.actorIndex < 0 {
		messages = append(messages, chat.User(
			"Begin the adventure. Narrate the opening scene that brings the party together, "+
				"then pick the first party member to act.\n"+sceneEnvelopeInstruction))
		return messages, nil
	}

	if b.actorIndex >= len(b.sess.Party) {
		return nil, fmt.Errorf("acting character index %d out of party range", b.actorIndex)
	}
	actor := b.sess.Party[b.actorIndex].Spec.Name
	messages = append(messages, chat.User(fmt.Sprintf(
		"%s does the following: %s\nNarrate what happens next.\n%s",
		actor, b.action, sceneEnvelopeInstruction)))
	return messages, nil
}

// historyMessages replays the windowed scene history as an alternating
// narrator/player exchange.
func (b *Builder) historyMessages() []chat.ChatMessage {
	history := b.sess.SceneHistory
	if len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}

	var messages []chat.ChatMessage
	for _, scene := range history {
		if scene.Action != "" {
			actor := ""
			if scene.ActingCharacter >= 0 && scene.ActingCharacter < len(b.sess.Party) {
				actor = b.sess.Party[scene.ActingCharacter].Spec.Name + ": "
			}
			messages = append(messages, chat.User(actor+scene.Action))
		}
		messages = append(messages, chat.ChatMessage{
			Role:    chat.ChatRoleAgent,
			Content: scene.Text,
		})
	}
	return messages
}
