package session

import "time"

// PromptType describes what kind of input the prompted character should
// provide for the next turn.
type PromptType string

const (
	PromptAction    PromptType = "action"
	PromptDialogue  PromptType = "dialogue"
	PromptDiceCheck PromptType = "dice_check"
)

// ScenePrompt is the question posed to the prompted character at the end
// of a scene.
type ScenePrompt struct {
	Type      PromptType `json:"type"`
	Text      string     `json:"text"`
	DiceCount int        `json:"dice_count,omitempty"` // dice_check only
	DiceType  string     `json:"dice_type,omitempty"`  // e.g. "d20"
}

// NoPromptedCharacter marks a scene that prompts nobody (the final scene
// of a completed adventure).
const NoPromptedCharacter = -1

// Scene is one narrative beat. Text is always present; narration audio
// and imagery are attached after the fact when their generation calls
// succeed, and are never removed once set.
type Scene struct {
	Text    string `json:"text"`
	DMNotes string `json:"dm_notes,omitempty"` // internal annotations, gated by SHOW_DM_NOTES

	// Action is the player input that produced this scene from the prior
	// one. Empty for the opening scene.
	Action          string `json:"action,omitempty"`
	ActingCharacter int    `json:"acting_character,omitempty"`

	// PromptingCharacter is the party index being asked to act next.
	// NoPromptedCharacter for the final scene.
	PromptingCharacter int          `json:"prompting_character"`
	Prompt             *ScenePrompt `json:"prompt,omitempty"`

	NarrationAudio string `json:"narration_audio,omitempty"` // media URL, set on TTS success
	Image          string `json:"image,omitempty"`           // media URL, set on image success

	CreatedAt time.Time `json:"created_at"`
}

// Terminal reports whether this scene ends the adventure.
func (s *Scene) Terminal() bool {
	return s.PromptingCharacter == NoPromptedCharacter
}
