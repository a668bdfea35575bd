// Package prompts assembles fully-formed generation inputs from session
// state. The generation gateway performs no prompt construction; every
// prompt a provider sees is built here.
package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/chat"
	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// SystemPrompt is the base narrator instruction for all text generation.
const SystemPrompt = `You are the game master of a cooperative tabletop-style adventure. ` +
	`You narrate vivid, concise scenes in second person, keep strict continuity with everything ` +
	`established so far, and never control the players' characters. Respond only in the JSON ` +
	`format requested by each message.`

const scenarioOptionsInstruction = `Generate %d distinct adventure scenario premises. Respond with JSON only:
{"scenarios":[{"title":"short evocative title","hook":"one-sentence premise and hook"}]}`

const storyDetailsInstruction = `The players chose the scenario %q (%s).
Write the game master's notes for this adventure. Respond with JSON only:
{"setting":"the world and mood","plot":"what is really going on","main_quest":"what the party must accomplish",
"npcs":[{"name":"...","description":"..."}],"locations":[{"name":"...","description":"..."}]}`

const characterOptionsInstruction = `Generate %d distinct playable characters that fit this adventure. ` +
	`Stats range 3-18, max_health 10-30. Respond with JSON only:
{"characters":[{"name":"...","description":"one sentence","traits":["..."],"strength":0,"intelligence":0,"agility":0,"max_health":0}]}`

// sceneEnvelopeInstruction asks for the structured scene envelope parsed
// by pkg/directive.
const sceneEnvelopeInstruction = `Respond with JSON only:
{"narration":"the scene, 2-4 paragraphs, second person",
"dm_notes":"private game-master notes for this scene",
"image_prompt":"one-sentence visual description of the scene",
"next_character":"name of the party member who should act next, or empty to follow turn order",
"adventure_complete":false,
"prompt":{"type":"action|dialogue|dice_check","text":"the question posed to that character","dice_count":0,"dice_type":"d20"},
"character_updates":[{"name":"...","health":0}],
"new_npcs":[{"name":"...","description":"..."}],
"new_locations":[{"name":"...","description":"..."}]}
Set adventure_complete to true only when the main quest is resolved, and then leave next_character and prompt empty.`

// ScenarioOptions builds the request for the scenario selection set.
func ScenarioOptions(count int) []chat.ChatMessage {
	return []chat.ChatMessage{
		chat.System(SystemPrompt),
		chat.User(fmt.Sprintf(scenarioOptionsInstruction, count)),
	}
}

// StoryDetails builds the request that expands a chosen scenario into the
// story premise.
func StoryDetails(c session.ScenarioCandidate) []chat.ChatMessage {
	return []chat.ChatMessage{
		chat.System(SystemPrompt),
		chat.User(fmt.Sprintf(storyDetailsInstruction, c.Title, c.Hook)),
	}
}

// CharacterOptions builds the request for one player's character
// selection set. Names already in the party are excluded so later players
// choose from fresh candidates.
func CharacterOptions(story *session.StoryState, count int, taken []string) []chat.ChatMessage {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(characterOptionsInstruction, count))
	if len(taken) > 0 {
		sb.WriteString("\nDo not reuse these names: " + strings.Join(taken, ", "))
	}
	return []chat.ChatMessage{
		chat.System(SystemPrompt + "\n\n" + story.Summary()),
		chat.User(sb.String()),
	}
}

// PartyRoster renders the party as a deterministic prompt block.
func PartyRoster(party []*session.Character) string {
	if len(party) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("The party:\n")
	for _, c := range party {
		sb.WriteString(fmt.Sprintf("- %s (STR %d, INT %d, AGI %d, health %d/%d)",
			c.Spec.Name, c.Spec.Strength, c.Spec.Intelligence, c.Spec.Agility,
			c.Health(), c.Spec.MaxHealth))
		if c.Spec.Description != "" {
			sb.WriteString(": " + c.Spec.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
