package session

import (
	"fmt"
	"sort"
	"strings"
)

// NPC is a named entity introduced by the story. NPCs are identified by
// name and are never removed or renamed once known.
type NPC struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// StoryState is the accumulated record of the adventure's fixed premise
// (setting, plot, quest) and its growing cast of NPCs and locations. The
// premise fields are written once, when the chosen scenario is expanded
// into story details, and are read-only thereafter.
type StoryState struct {
	ScenarioTitle string `json:"scenario_title,omitempty"`
	Setting       string `json:"setting,omitempty"`
	Plot          string `json:"plot,omitempty"`
	MainQuest     string `json:"main_quest,omitempty"`

	NPCs      map[string]NPC    `json:"npcs,omitempty"`
	Locations map[string]string `json:"locations,omitempty"`
}

// Initialized reports whether the story premise has been set.
func (st *StoryState) Initialized() bool {
	return st.Setting != "" || st.Plot != "" || st.MainQuest != ""
}

// AddNPC records a newly introduced NPC. Existing entries are preserved:
// identity by name is load-bearing for narrative consistency.
func (st *StoryState) AddNPC(npc NPC) {
	if npc.Name == "" {
		return
	}
	if st.NPCs == nil {
		st.NPCs = make(map[string]NPC)
	}
	if _, ok := st.NPCs[npc.Name]; ok {
		return
	}
	st.NPCs[npc.Name] = npc
}

// AddLocation records a newly introduced location, preserving existing
// entries.
func (st *StoryState) AddLocation(name, description string) {
	if name == "" {
		return
	}
	if st.Locations == nil {
		st.Locations = make(map[string]string)
	}
	if _, ok := st.Locations[name]; ok {
		return
	}
	st.Locations[name] = description
}

// Summary renders the story premise and known entities as a deterministic
// text block for generation prompts. Map keys are sorted so the same state
// always renders the same context.
func (st *StoryState) Summary() string {
	var sb strings.Builder
	if st.ScenarioTitle != "" {
		sb.WriteString("Scenario: " + st.ScenarioTitle + "\n")
	}
	if st.Setting != "" {
		sb.WriteString("Setting: " + st.Setting + "\n")
	}
	if st.Plot != "" {
		sb.WriteString("Plot: " + st.Plot + "\n")
	}
	if st.MainQuest != "" {
		sb.WriteString("Main quest: " + st.MainQuest + "\n")
	}

	if len(st.NPCs) > 0 {
		sb.WriteString("Known NPCs:\n")
		names := make([]string, 0, len(st.NPCs))
		for name := range st.NPCs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			npc := st.NPCs[name]
			if npc.Description != "" {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", npc.Name, npc.Description))
			} else {
				sb.WriteString("- " + npc.Name + "\n")
			}
		}
	}

	if len(st.Locations) > 0 {
		sb.WriteString("Known locations:\n")
		names := make([]string, 0, len(st.Locations))
		for name := range st.Locations {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if desc := st.Locations[name]; desc != "" {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", name, desc))
			} else {
				sb.WriteString("- " + name + "\n")
			}
		}
	}

	return sb.String()
}
