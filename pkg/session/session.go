// Package session defines the adventure session aggregate: the phase
// machine state, story state, party, and scene history for one adventure.
package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/selection"
)

// Phase identifies where a session is in the adventure flow.
type Phase string

const (
	PhaseAwaitingPlayerCount     Phase = "awaiting_player_count"
	PhaseAwaitingScenarioChoice  Phase = "awaiting_scenario_choice"
	PhaseAwaitingCharacterChoice Phase = "awaiting_character_choice"
	PhasePartyAssembled          Phase = "party_assembled"
	PhaseAwaitingAction          Phase = "awaiting_action"
	PhaseCompleted               Phase = "completed"
	PhaseFailed                  Phase = "failed"
)

// Terminal reports whether no further operations are legal in this phase.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// ScenarioCandidate is one generated adventure premise offered for
// selection.
type ScenarioCandidate struct {
	Title string `json:"title"`
	Hook  string `json:"hook"`
}

// AdventureSession is the root aggregate for one adventure. Each session
// is exclusively owned by one orchestrator instance; the orchestrator
// serializes all mutation, so no locking happens here.
type AdventureSession struct {
	ID          uuid.UUID `json:"id"`
	PlayerCount int       `json:"player_count"`
	Phase       Phase     `json:"phase"`

	// CurrentPlayer is the player index choosing a character. Meaningful
	// only in PhaseAwaitingCharacterChoice.
	CurrentPlayer int `json:"current_player,omitempty"`

	// PromptedCharacter is the party index being asked for an action.
	// Meaningful only in PhaseAwaitingAction.
	PromptedCharacter int `json:"prompted_character,omitempty"`

	Story        StoryState   `json:"story"`
	Party        []*Character `json:"party,omitempty"`
	SceneHistory []*Scene     `json:"scene_history,omitempty"`

	// The selection set for the current choice-producing phase, if any.
	ScenarioChoices  *selection.Set[ScenarioCandidate] `json:"scenario_choices,omitempty"`
	CharacterChoices *selection.Set[*CharacterSpec]    `json:"character_choices,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a session awaiting its player count.
func New() *AdventureSession {
	return &AdventureSession{
		ID:        uuid.New(),
		Phase:     PhaseAwaitingPlayerCount,
		CreatedAt: time.Now().UTC(),
	}
}

// SetPlayerCount fixes the party size and advances to scenario choice.
// An out-of-range count leaves the session unchanged.
func (s *AdventureSession) SetPlayerCount(n, maxPlayers int) error {
	if s.Phase != PhaseAwaitingPlayerCount {
		return ErrInvalidStateTransition
	}
	if n < 1 || n > maxPlayers {
		return &ValidationError{
			Field:  "player count",
			Detail: "must be between 1 and " + strconv.Itoa(maxPlayers),
		}
	}
	s.PlayerCount = n
	s.Phase = PhaseAwaitingScenarioChoice
	return nil
}

// InitializeStory sets the story premise from the chosen scenario and
// advances to character selection for player 0. Initializing twice fails.
func (s *AdventureSession) InitializeStory(story StoryState) error {
	if s.Phase != PhaseAwaitingScenarioChoice || s.Story.Initialized() {
		return ErrInvalidStateTransition
	}
	s.Story = story
	s.Phase = PhaseAwaitingCharacterChoice
	s.CurrentPlayer = 0
	return nil
}

// AddCharacter appends the chosen character for the current player. When
// the party reaches the player count, the session becomes PartyAssembled
// and the party is immutable from then on.
func (s *AdventureSession) AddCharacter(c *Character) error {
	if s.Phase != PhaseAwaitingCharacterChoice {
		return ErrInvalidStateTransition
	}
	s.Party = append(s.Party, c)
	if len(s.Party) < s.PlayerCount {
		s.CurrentPlayer++
		return nil
	}
	s.Phase = PhasePartyAssembled
	s.CharacterChoices = nil
	return nil
}

// ValidateAction checks that an action submission is legal for the given
// character index without mutating anything.
func (s *AdventureSession) ValidateAction(characterIndex int) error {
	if s.Phase != PhaseAwaitingAction {
		return ErrInvalidStateTransition
	}
	if characterIndex != s.PromptedCharacter {
		return &WrongTurnError{Prompted: s.PromptedCharacter, Submitted: characterIndex}
	}
	return nil
}

// AppendScene appends a generated scene to the history and advances the
// phase. The opening scene is appended from PhasePartyAssembled; every
// later scene from PhaseAwaitingAction. A terminal scene completes the
// adventure.
func (s *AdventureSession) AppendScene(scene *Scene) error {
	switch s.Phase {
	case PhasePartyAssembled:
		if scene.Action != "" {
			return ErrInvalidStateTransition
		}
	case PhaseAwaitingAction:
	default:
		return ErrInvalidStateTransition
	}
	if !scene.Terminal() && (scene.PromptingCharacter < 0 || scene.PromptingCharacter >= len(s.Party)) {
		return &ValidationError{Field: "prompting character", Detail: "index out of party range"}
	}

	if scene.CreatedAt.IsZero() {
		scene.CreatedAt = time.Now().UTC()
	}
	s.SceneHistory = append(s.SceneHistory, scene)
	if scene.Terminal() {
		s.Phase = PhaseCompleted
		s.PromptedCharacter = 0
		return nil
	}
	s.Phase = PhaseAwaitingAction
	s.PromptedCharacter = scene.PromptingCharacter
	return nil
}

// Fail moves the session to its terminal failed phase. Failing is legal
// from any non-terminal phase; once failed, every operation is rejected.
func (s *AdventureSession) Fail() {
	if s.Phase.Terminal() {
		return
	}
	s.Phase = PhaseFailed
}

// CurrentScene returns the most recent scene, or nil before the opening.
func (s *AdventureSession) CurrentScene() *Scene {
	if len(s.SceneHistory) == 0 {
		return nil
	}
	return s.SceneHistory[len(s.SceneHistory)-1]
}

// NextRoundRobin returns the party index that follows the currently
// prompted character in strict rotation.
func (s *AdventureSession) NextRoundRobin() int {
	if len(s.Party) == 0 {
		return 0
	}
	if len(s.SceneHistory) == 0 {
		// Opening scene: rotation starts at the first party member.
		return 0
	}
	return (s.PromptedCharacter + 1) % len(s.Party)
}

// CharacterIndex finds a party member by name, case-insensitively.
// Returns NoPromptedCharacter if no member matches.
func (s *AdventureSession) CharacterIndex(name string) int {
	if name == "" {
		return NoPromptedCharacter
	}
	want := NormalizeName(name)
	for i, c := range s.Party {
		if strings.EqualFold(c.Spec.Name, want) {
			return i
		}
	}
	return NoPromptedCharacter
}

// PartyNames returns the party's character names in order.
func (s *AdventureSession) PartyNames() []string {
	names := make([]string, len(s.Party))
	for i, c := range s.Party {
		names[i] = c.Spec.Name
	}
	return names
}
