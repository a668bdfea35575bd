package prompts

import (
	"strings"
	"testing"

	"github.com/jwebster45206/adventure-engine/pkg/chat"
	"github.com/jwebster45206/adventure-engine/pkg/session"
)

func TestScenarioOptions(t *testing.T) {
	messages := ScenarioOptions(3)
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != chat.ChatRoleSystem {
		t.Errorf("Expected system message first, got %s", messages[0].Role)
	}
	if !strings.Contains(messages[1].Content, "Generate 3 distinct adventure scenario premises") {
		t.Errorf("Expected count in instruction, got %q", messages[1].Content)
	}
	if !strings.Contains(messages[1].Content, `"scenarios"`) {
		t.Error("Expected instruction to pin the response JSON shape")
	}
}

func TestStoryDetails(t *testing.T) {
	c := session.ScenarioCandidate{Title: "The Sunken Vault", Hook: "A drowned city hides a vault."}
	messages := StoryDetails(c)
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	content := messages[1].Content
	if !strings.Contains(content, "The Sunken Vault") || !strings.Contains(content, "A drowned city hides a vault.") {
		t.Errorf("Expected chosen candidate in instruction, got %q", content)
	}
	if !strings.Contains(content, `"main_quest"`) {
		t.Error("Expected instruction to pin the response JSON shape")
	}
}

func TestCharacterOptions(t *testing.T) {
	story := &session.StoryState{
		ScenarioTitle: "The Sunken Vault",
		Setting:       "A drowned coastal city",
		Plot:          "The vault keeper never died",
		MainQuest:     "Recover the tidal crown",
	}

	t.Run("first player", func(t *testing.T) {
		messages := CharacterOptions(story, 6, nil)
		if len(messages) != 2 {
			t.Fatalf("Expected 2 messages, got %d", len(messages))
		}
		if !strings.Contains(messages[0].Content, "Recover the tidal crown") {
			t.Error("Expected story summary in system message")
		}
		if strings.Contains(messages[1].Content, "Do not reuse") {
			t.Error("No taken names expected for the first player")
		}
	})

	t.Run("later player excludes taken names", func(t *testing.T) {
		messages := CharacterOptions(story, 6, []string{"Mira", "Thorn"})
		if !strings.Contains(messages[1].Content, "Do not reuse these names: Mira, Thorn") {
			t.Errorf("Expected taken names excluded, got %q", messages[1].Content)
		}
	})
}

func TestPartyRoster(t *testing.T) {
	if PartyRoster(nil) != "" {
		t.Error("Expected empty roster for empty party")
	}

	mira, err := session.NewCharacter(&session.CharacterSpec{
		Name: "Mira", Description: "A scout",
		Strength: 11, Intelligence: 15, Agility: 13, MaxHealth: 18,
	})
	if err != nil {
		t.Fatalf("NewCharacter failed: %v", err)
	}
	thorn, err := session.NewCharacter(&session.CharacterSpec{
		Name: "Thorn", Strength: 16, Intelligence: 8, Agility: 10, MaxHealth: 26,
	})
	if err != nil {
		t.Fatalf("NewCharacter failed: %v", err)
	}
	if err := thorn.SetHealth(20); err != nil {
		t.Fatalf("SetHealth failed: %v", err)
	}

	roster := PartyRoster([]*session.Character{mira, thorn})
	for _, want := range []string{
		"- Mira (STR 11, INT 15, AGI 13, health 18/18): A scout",
		"- Thorn (STR 16, INT 8, AGI 10, health 20/26)",
	} {
		if !strings.Contains(roster, want) {
			t.Errorf("Expected roster to contain %q:\n%s", want, roster)
		}
	}
}
