// Package directive parses generated model output into structured signals
// for the turn engine: scenario candidates, story details, character
// specs, and per-scene directives (completion, next actor, DM notes).
// All narrative-driven control flow is extracted here, at the boundary
// between the generation gateway and the engine, so the heuristics can be
// tested in isolation.
package directive

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// ErrMalformedScenario indicates the generated scenario details could not
// be parsed into the required story fields.
var ErrMalformedScenario = errors.New("malformed scenario details")

// CompletionCue is the terminal narrative marker scanned for when a scene
// response cannot be parsed as a structured envelope.
const CompletionCue = "THE END"

// SceneDirective is the structured envelope a scene-generation call is
// instructed to return.
type SceneDirective struct {
	Narration string `json:"narration"`
	DMNotes   string `json:"dm_notes,omitempty"`

	// ImagePrompt is a short visual description of the scene, used as the
	// input to image generation.
	ImagePrompt string `json:"image_prompt,omitempty"`

	// NextCharacter optionally names the party member the narrative wants
	// to act next, overriding rotation for this turn only.
	NextCharacter string `json:"next_character,omitempty"`

	AdventureComplete bool `json:"adventure_complete"`

	Prompt *PromptDirective `json:"prompt,omitempty"`

	CharacterUpdates []CharacterUpdate `json:"character_updates,omitempty"`
	NewNPCs          []NamedEntity     `json:"new_npcs,omitempty"`
	NewLocations     []NamedEntity     `json:"new_locations,omitempty"`
}

// PromptDirective describes the input requested from the prompted
// character.
type PromptDirective struct {
	Type      string `json:"type"` // action, dialogue, dice_check
	Text      string `json:"text"`
	DiceCount int    `json:"dice_count,omitempty"`
	DiceType  string `json:"dice_type,omitempty"`
}

// CharacterUpdate reports a party member's new current health after the
// scene resolves.
type CharacterUpdate struct {
	Name   string `json:"name"`
	Health int    `json:"health"`
}

// NamedEntity is an NPC or location introduced by a scene.
type NamedEntity struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type scenarioList struct {
	Scenarios []session.ScenarioCandidate `json:"scenarios"`
}

type characterList struct {
	Characters []*session.CharacterSpec `json:"characters"`
}

type storyDetails struct {
	Setting   string        `json:"setting"`
	Plot      string        `json:"plot"`
	MainQuest string        `json:"main_quest"`
	NPCs      []NamedEntity `json:"npcs,omitempty"`
	Locations []NamedEntity `json:"locations,omitempty"`
}

// ParseScenarioCandidates parses a scenario-options response.
func ParseScenarioCandidates(raw string) ([]session.ScenarioCandidate, error) {
	var list scenarioList
	if err := unmarshalEnvelope(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse scenario candidates: %w", err)
	}
	return list.Scenarios, nil
}

// ParseCharacterSpecs parses a character-options response.
func ParseCharacterSpecs(raw string) ([]*session.CharacterSpec, error) {
	var list characterList
	if err := unmarshalEnvelope(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse character candidates: %w", err)
	}
	return list.Characters, nil
}

// ParseStoryDetails parses generated scenario details into story state.
// Fails with ErrMalformedScenario when the required premise fields cannot
// be extracted.
func ParseStoryDetails(title, raw string) (*session.StoryState, error) {
	var details storyDetails
	if err := unmarshalEnvelope(raw, &details); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedScenario, err)
	}
	if details.Setting == "" || details.Plot == "" || details.MainQuest == "" {
		return nil, fmt.Errorf("%w: missing setting, plot or main quest", ErrMalformedScenario)
	}

	story := &session.StoryState{
		ScenarioTitle: title,
		Setting:       details.Setting,
		Plot:          details.Plot,
		MainQuest:     details.MainQuest,
	}
	for _, npc := range details.NPCs {
		story.AddNPC(session.NPC{Name: npc.Name, Description: npc.Description})
	}
	for _, loc := range details.Locations {
		story.AddLocation(loc.Name, loc.Description)
	}
	return story, nil
}

// ParseSceneDirective parses a scene-generation response. If the response
// is not a structured envelope, the raw text is used as the narration and
// the completion cue is scanned for directly, so a model that drops the
// envelope degrades to plain narration rather than failing the turn.
func ParseSceneDirective(raw string) (*SceneDirective, error) {
	var d SceneDirective
	if err := unmarshalEnvelope(raw, &d); err != nil || d.Narration == "" {
		text := strings.TrimSpace(raw)
		if text == "" {
			return nil, fmt.Errorf("empty scene response")
		}
		return &SceneDirective{
			Narration:         text,
			AdventureComplete: containsCompletionCue(text),
		}, nil
	}
	return &d, nil
}

// PromptType maps a directive prompt type onto the session's enum,
// defaulting to a free-form action prompt.
func (p *PromptDirective) PromptType() session.PromptType {
	if p == nil {
		return session.PromptAction
	}
	switch strings.ToLower(strings.TrimSpace(p.Type)) {
	case "dialogue":
		return session.PromptDialogue
	case "dice_check", "dice":
		return session.PromptDiceCheck
	default:
		return session.PromptAction
	}
}

func containsCompletionCue(text string) bool {
	return strings.Contains(strings.ToUpper(text), CompletionCue)
}

// unmarshalEnvelope unmarshals a model response that should be a single
// JSON object, tolerating markdown code fences and prose around the JSON.
func unmarshalEnvelope(raw string, v any) error {
	candidate := strings.TrimSpace(raw)

	if strings.Contains(candidate, "```") {
		if inner := betweenFences(candidate); inner != "" {
			candidate = inner
		}
	}

	// Fall back to the outermost braces when the model wraps the JSON in
	// commentary.
	if !strings.HasPrefix(candidate, "{") {
		start := strings.Index(candidate, "{")
		end := strings.LastIndex(candidate, "}")
		if start == -1 || end <= start {
			return fmt.Errorf("no JSON object found in response")
		}
		candidate = candidate[start : end+1]
	}

	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return fmt.Errorf("failed to unmarshal response JSON: %w", err)
	}
	return nil
}

func betweenFences(s string) string {
	start := strings.Index(s, "```")
	if start == -1 {
		return ""
	}
	rest := s[start+3:]
	// Skip a language tag like ```json
	if nl := strings.Index(rest, "\n"); nl != -1 {
		firstLine := strings.TrimSpace(rest[:nl])
		if !strings.HasPrefix(firstLine, "{") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end == -1 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}
