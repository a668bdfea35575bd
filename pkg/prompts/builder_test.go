package prompts

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jwebster45206/adventure-engine/pkg/chat"
	"github.com/jwebster45206/adventure-engine/pkg/session"
)

func builderSession(t *testing.T) *session.AdventureSession {
	t.Helper()
	sess := session.New()
	if err := sess.SetPlayerCount(2, 6); err != nil {
		t.Fatalf("SetPlayerCount failed: %v", err)
	}
	if err := sess.InitializeStory(session.StoryState{
		ScenarioTitle: "The Sunken Vault",
		Setting:       "A drowned coastal city",
		Plot:          "The vault keeper never died",
		MainQuest:     "Recover the tidal crown",
	}); err != nil {
		t.Fatalf("InitializeStory failed: %v", err)
	}
	for _, name := range []string{"Mira", "Thorn"} {
		c, err := session.NewCharacter(&session.CharacterSpec{Name: name, MaxHealth: 20})
		if err != nil {
			t.Fatalf("NewCharacter failed: %v", err)
		}
		if err := sess.AddCharacter(c); err != nil {
			t.Fatalf("AddCharacter failed: %v", err)
		}
	}
	return sess
}

func TestBuilder_OpeningScene(t *testing.T) {
	sess := builderSession(t)

	messages, err := NewScene(sess).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("Expected system + opening instruction, got %d messages", len(messages))
	}

	system := messages[0]
	if system.Role != chat.ChatRoleSystem {
		t.Errorf("Expected system role, got %s", system.Role)
	}
	for _, want := range []string{"Recover the tidal crown", "The party:", "Mira", "Thorn"} {
		if !strings.Contains(system.Content, want) {
			t.Errorf("Expected system message to contain %q", want)
		}
	}

	opening := messages[1]
	if opening.Role != chat.ChatRoleUser {
		t.Errorf("Expected user role, got %s", opening.Role)
	}
	if !strings.Contains(opening.Content, "Begin the adventure") {
		t.Errorf("Expected opening instruction, got %q", opening.Content)
	}
	if !strings.Contains(opening.Content, `"adventure_complete"`) {
		t.Error("Expected envelope instruction in final message")
	}
}

func TestBuilder_ActionScene(t *testing.T) {
	sess := builderSession(t)
	if err := sess.AppendScene(&session.Scene{Text: "The storm breaks.", PromptingCharacter: 0}); err != nil {
		t.Fatalf("AppendScene failed: %v", err)
	}

	messages, err := NewScene(sess).WithAction(0, "dive for the gate").Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// system, prior scene, action instruction
	if len(messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(messages))
	}
	if messages[1].Role != chat.ChatRoleAgent || messages[1].Content != "The storm breaks." {
		t.Errorf("Expected prior scene as assistant message, got %+v", messages[1])
	}
	final := messages[len(messages)-1]
	if !strings.Contains(final.Content, "Mira does the following: dive for the gate") {
		t.Errorf("Expected named action in final message, got %q", final.Content)
	}
}

func TestBuilder_HistoryWindow(t *testing.T) {
	sess := builderSession(t)
	if err := sess.AppendScene(&session.Scene{Text: "scene 0", PromptingCharacter: 0}); err != nil {
		t.Fatalf("AppendScene failed: %v", err)
	}
	for i := 1; i < 8; i++ {
		scene := &session.Scene{
			Text:               fmt.Sprintf("scene %d", i),
			Action:             fmt.Sprintf("action %d", i),
			ActingCharacter:    sess.PromptedCharacter,
			PromptingCharacter: (sess.PromptedCharacter + 1) % 2,
		}
		if err := sess.AppendScene(scene); err != nil {
			t.Fatalf("AppendScene %d failed: %v", i, err)
		}
	}

	messages, err := NewScene(sess).WithAction(sess.PromptedCharacter, "press on").WithHistoryLimit(3).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	var joined strings.Builder
	for _, m := range messages {
		joined.WriteString(m.Content + "\n")
	}
	text := joined.String()

	if strings.Contains(text, "scene 0") || strings.Contains(text, "scene 4") {
		t.Error("Scenes outside the window must not be replayed")
	}
	for _, want := range []string{"scene 5", "scene 6", "scene 7", "action 7"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected windowed history to contain %q", want)
		}
	}
	// The story summary still carries the long-term context.
	if !strings.Contains(messages[0].Content, "Recover the tidal crown") {
		t.Error("Expected story summary regardless of window")
	}
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("nil session", func(t *testing.T) {
		if _, err := NewScene(nil).Build(); err == nil {
			t.Error("Expected error for nil session")
		}
	})

	t.Run("uninitialized story", func(t *testing.T) {
		sess := session.New()
		if _, err := NewScene(sess).Build(); err == nil {
			t.Error("Expected error for uninitialized story")
		}
	})

	t.Run("actor index out of range", func(t *testing.T) {
		sess := builderSession(t)
		if _, err := NewScene(sess).WithAction(9, "x").Build(); err == nil {
			t.Error("Expected error for out-of-range actor")
		}
	})
}
