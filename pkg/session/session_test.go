package session

import (
	"errors"
	"testing"
)

func testStory() StoryState {
	return StoryState{
		ScenarioTitle: "The Sunken Vault",
		Setting:       "A drowned coastal city",
		Plot:          "The vault keeper never died",
		MainQuest:     "Recover the tidal crown",
	}
}

func testCharacter(t *testing.T, name string) *Character {
	t.Helper()
	c, err := NewCharacter(&CharacterSpec{
		Name:         name,
		Strength:     12,
		Intelligence: 10,
		Agility:      14,
		MaxHealth:    20,
	})
	if err != nil {
		t.Fatalf("Failed to build character %s: %v", name, err)
	}
	return c
}

// assembledSession returns a session with a full two-member party,
// ready for its opening scene.
func assembledSession(t *testing.T) *AdventureSession {
	t.Helper()
	sess := New()
	if err := sess.SetPlayerCount(2, 6); err != nil {
		t.Fatalf("SetPlayerCount failed: %v", err)
	}
	if err := sess.InitializeStory(testStory()); err != nil {
		t.Fatalf("InitializeStory failed: %v", err)
	}
	if err := sess.AddCharacter(testCharacter(t, "Mira")); err != nil {
		t.Fatalf("AddCharacter failed: %v", err)
	}
	if err := sess.AddCharacter(testCharacter(t, "Thorn")); err != nil {
		t.Fatalf("AddCharacter failed: %v", err)
	}
	return sess
}

func TestSetPlayerCount(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{"one player", 1, false},
		{"max players", 6, false},
		{"zero", 0, true},
		{"negative", -1, true},
		{"above max", 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := New()
			err := sess.SetPlayerCount(tt.count, 6)
			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("Expected ValidationError, got %v", err)
				}
				if sess.Phase != PhaseAwaitingPlayerCount {
					t.Errorf("Failed count must not advance phase, got %s", sess.Phase)
				}
				if sess.PlayerCount != 0 {
					t.Errorf("Failed count must not be recorded, got %d", sess.PlayerCount)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if sess.Phase != PhaseAwaitingScenarioChoice {
				t.Errorf("Expected phase %s, got %s", PhaseAwaitingScenarioChoice, sess.Phase)
			}
		})
	}
}

func TestSetPlayerCount_WrongPhase(t *testing.T) {
	sess := New()
	if err := sess.SetPlayerCount(2, 6); err != nil {
		t.Fatalf("First SetPlayerCount failed: %v", err)
	}
	if err := sess.SetPlayerCount(3, 6); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("Expected ErrInvalidStateTransition, got %v", err)
	}
	if sess.PlayerCount != 2 {
		t.Errorf("Player count must be write-once, got %d", sess.PlayerCount)
	}
}

func TestInitializeStory(t *testing.T) {
	sess := New()
	if err := sess.InitializeStory(testStory()); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("Expected ErrInvalidStateTransition before player count, got %v", err)
	}

	if err := sess.SetPlayerCount(1, 6); err != nil {
		t.Fatalf("SetPlayerCount failed: %v", err)
	}
	if err := sess.InitializeStory(testStory()); err != nil {
		t.Fatalf("InitializeStory failed: %v", err)
	}
	if sess.Phase != PhaseAwaitingCharacterChoice {
		t.Errorf("Expected phase %s, got %s", PhaseAwaitingCharacterChoice, sess.Phase)
	}
	if sess.CurrentPlayer != 0 {
		t.Errorf("Expected player 0 choosing first, got %d", sess.CurrentPlayer)
	}

	if err := sess.InitializeStory(testStory()); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("Story must be write-once, got %v", err)
	}
}

func TestAddCharacter(t *testing.T) {
	sess := New()
	if err := sess.SetPlayerCount(2, 6); err != nil {
		t.Fatalf("SetPlayerCount failed: %v", err)
	}
	if err := sess.InitializeStory(testStory()); err != nil {
		t.Fatalf("InitializeStory failed: %v", err)
	}

	if err := sess.AddCharacter(testCharacter(t, "Mira")); err != nil {
		t.Fatalf("AddCharacter failed: %v", err)
	}
	if sess.Phase != PhaseAwaitingCharacterChoice {
		t.Errorf("Party not full yet, expected phase %s, got %s", PhaseAwaitingCharacterChoice, sess.Phase)
	}
	if sess.CurrentPlayer != 1 {
		t.Errorf("Expected player 1 choosing next, got %d", sess.CurrentPlayer)
	}

	if err := sess.AddCharacter(testCharacter(t, "Thorn")); err != nil {
		t.Fatalf("AddCharacter failed: %v", err)
	}
	if sess.Phase != PhasePartyAssembled {
		t.Errorf("Expected phase %s, got %s", PhasePartyAssembled, sess.Phase)
	}
	if len(sess.Party) != 2 {
		t.Errorf("Expected party of 2, got %d", len(sess.Party))
	}

	// The party is immutable once assembled.
	if err := sess.AddCharacter(testCharacter(t, "Extra")); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("Expected ErrInvalidStateTransition, got %v", err)
	}
	if len(sess.Party) != 2 {
		t.Errorf("Failed add must not grow the party, got %d", len(sess.Party))
	}
}

func TestValidateAction(t *testing.T) {
	sess := assembledSession(t)

	if err := sess.ValidateAction(0); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("Expected ErrInvalidStateTransition before opening scene, got %v", err)
	}

	if err := sess.AppendScene(&Scene{Text: "Opening.", PromptingCharacter: 0}); err != nil {
		t.Fatalf("AppendScene failed: %v", err)
	}

	if err := sess.ValidateAction(0); err != nil {
		t.Errorf("Prompted character's action should validate: %v", err)
	}

	err := sess.ValidateAction(1)
	var wrongTurn *WrongTurnError
	if !errors.As(err, &wrongTurn) {
		t.Fatalf("Expected WrongTurnError, got %v", err)
	}
	if wrongTurn.Prompted != 0 || wrongTurn.Submitted != 1 {
		t.Errorf("Expected prompted=0 submitted=1, got prompted=%d submitted=%d",
			wrongTurn.Prompted, wrongTurn.Submitted)
	}
	if sess.Phase != PhaseAwaitingAction || sess.PromptedCharacter != 0 {
		t.Error("Wrong-turn rejection must not change session state")
	}
}

func TestAppendScene(t *testing.T) {
	t.Run("opening scene must have no action", func(t *testing.T) {
		sess := assembledSession(t)
		err := sess.AppendScene(&Scene{Text: "x", Action: "sneak in", PromptingCharacter: 0})
		if !errors.Is(err, ErrInvalidStateTransition) {
			t.Fatalf("Expected ErrInvalidStateTransition, got %v", err)
		}
		if len(sess.SceneHistory) != 0 {
			t.Error("Rejected scene must not be appended")
		}
	})

	t.Run("prompting index must be in party range", func(t *testing.T) {
		sess := assembledSession(t)
		err := sess.AppendScene(&Scene{Text: "x", PromptingCharacter: 5})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
	})

	t.Run("normal scene advances to awaiting action", func(t *testing.T) {
		sess := assembledSession(t)
		if err := sess.AppendScene(&Scene{Text: "Opening.", PromptingCharacter: 1}); err != nil {
			t.Fatalf("AppendScene failed: %v", err)
		}
		if sess.Phase != PhaseAwaitingAction {
			t.Errorf("Expected phase %s, got %s", PhaseAwaitingAction, sess.Phase)
		}
		if sess.PromptedCharacter != 1 {
			t.Errorf("Expected prompted character 1, got %d", sess.PromptedCharacter)
		}
		if sess.CurrentScene().CreatedAt.IsZero() {
			t.Error("Expected CreatedAt to be stamped")
		}
	})

	t.Run("terminal scene completes the adventure", func(t *testing.T) {
		sess := assembledSession(t)
		if err := sess.AppendScene(&Scene{Text: "Opening.", PromptingCharacter: 0}); err != nil {
			t.Fatalf("AppendScene failed: %v", err)
		}
		final := &Scene{Text: "And so it ends.", Action: "open the vault", ActingCharacter: 0, PromptingCharacter: NoPromptedCharacter}
		if err := sess.AppendScene(final); err != nil {
			t.Fatalf("AppendScene failed: %v", err)
		}
		if sess.Phase != PhaseCompleted {
			t.Errorf("Expected phase %s, got %s", PhaseCompleted, sess.Phase)
		}

		// Completed sessions reject further scenes and actions.
		if err := sess.AppendScene(&Scene{Text: "more", PromptingCharacter: 0}); !errors.Is(err, ErrInvalidStateTransition) {
			t.Errorf("Expected ErrInvalidStateTransition after completion, got %v", err)
		}
		if err := sess.ValidateAction(0); !errors.Is(err, ErrInvalidStateTransition) {
			t.Errorf("Expected ErrInvalidStateTransition after completion, got %v", err)
		}
	})
}

func TestFail(t *testing.T) {
	sess := assembledSession(t)
	sess.Fail()
	if sess.Phase != PhaseFailed {
		t.Fatalf("Expected phase %s, got %s", PhaseFailed, sess.Phase)
	}

	// Failing is sticky: a failed session never becomes completed.
	sess.Fail()
	if sess.Phase != PhaseFailed {
		t.Errorf("Expected phase to stay %s, got %s", PhaseFailed, sess.Phase)
	}

	done := assembledSession(t)
	if err := done.AppendScene(&Scene{Text: "end", PromptingCharacter: NoPromptedCharacter}); err != nil {
		t.Fatalf("AppendScene failed: %v", err)
	}
	done.Fail()
	if done.Phase != PhaseCompleted {
		t.Errorf("Fail must not overwrite a completed session, got %s", done.Phase)
	}
}

func TestNextRoundRobin(t *testing.T) {
	sess := assembledSession(t)
	if got := sess.NextRoundRobin(); got != 0 {
		t.Errorf("Opening rotation should start at 0, got %d", got)
	}

	if err := sess.AppendScene(&Scene{Text: "s1", PromptingCharacter: 0}); err != nil {
		t.Fatalf("AppendScene failed: %v", err)
	}
	if got := sess.NextRoundRobin(); got != 1 {
		t.Errorf("Expected rotation to 1, got %d", got)
	}

	if err := sess.AppendScene(&Scene{Text: "s2", Action: "a", PromptingCharacter: 1}); err != nil {
		t.Fatalf("AppendScene failed: %v", err)
	}
	if got := sess.NextRoundRobin(); got != 0 {
		t.Errorf("Expected rotation to wrap to 0, got %d", got)
	}
}

func TestCharacterIndex(t *testing.T) {
	sess := assembledSession(t)

	tests := []struct {
		name string
		want int
	}{
		{"Mira", 0},
		{"mira", 0},
		{"MIRA", 0},
		{"  thorn ", 1},
		{"THORN", 1},
		{"Nobody", NoPromptedCharacter},
		{"", NoPromptedCharacter},
	}
	for _, tt := range tests {
		if got := sess.CharacterIndex(tt.name); got != tt.want {
			t.Errorf("CharacterIndex(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}
