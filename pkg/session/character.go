package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwebster45206/d20"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CharacterSpec is the serializable specification for a party member,
// as produced by character generation.
type CharacterSpec struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Traits       []string `json:"traits,omitempty"`
	Strength     int      `json:"strength"`
	Intelligence int      `json:"intelligence"`
	Agility      int      `json:"agility"`
	MaxHealth    int      `json:"max_health"`
	Health       int      `json:"health"`
}

// Character is the runtime representation of a party member. Identity is
// the character's name; specs are immutable once the character joins the
// party, except for current health.
type Character struct {
	Spec  *CharacterSpec
	Actor *d20.Actor // Rebuilt from Spec fields on load
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// NormalizeName tidies a generated character name for display and
// identity matching. Generation output is occasionally lowercased.
func NormalizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return name
	}
	return titleCaser.String(name)
}

// NewCharacter builds a Character from a generated spec. The spec is
// copied; the caller's value (typically a presented option) is never
// mutated.
func NewCharacter(src *CharacterSpec) (*Character, error) {
	if src == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}
	if src.Name == "" {
		return nil, fmt.Errorf("character name is required")
	}
	spec := &CharacterSpec{}
	*spec = *src
	spec.Traits = append([]string(nil), src.Traits...)
	spec.Name = NormalizeName(spec.Name)
	if spec.MaxHealth <= 0 {
		spec.MaxHealth = 10
	}
	if spec.Health <= 0 || spec.Health > spec.MaxHealth {
		spec.Health = spec.MaxHealth
	}

	actor, err := d20.NewActor(actorID(spec.Name)).
		WithHP(spec.MaxHealth).
		WithAC(10).
		WithAttributes(map[string]int{
			"strength":     spec.Strength,
			"intelligence": spec.Intelligence,
			"agility":      spec.Agility,
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	if spec.Health != spec.MaxHealth {
		if err := actor.SetHP(spec.Health); err != nil {
			return nil, fmt.Errorf("failed to set health: %w", err)
		}
	}

	return &Character{Spec: spec, Actor: actor}, nil
}

// SetHealth updates the character's current health. Scene directives may
// report new health values after the narrative resolves an action.
func (c *Character) SetHealth(hp int) error {
	if hp < 0 {
		hp = 0
	}
	if hp > c.Spec.MaxHealth {
		hp = c.Spec.MaxHealth
	}
	if err := c.Actor.SetHP(hp); err != nil {
		return fmt.Errorf("failed to set health: %w", err)
	}
	c.Spec.Health = hp
	return nil
}

// Health reads the character's current health from the actor.
func (c *Character) Health() int {
	if c.Actor == nil {
		return c.Spec.Health
	}
	return c.Actor.HP()
}

// MarshalJSON serializes the character as its spec, with current health
// read from the runtime actor.
func (c *Character) MarshalJSON() ([]byte, error) {
	if c == nil || c.Spec == nil {
		return []byte("null"), nil
	}
	spec := *c.Spec
	if c.Actor != nil {
		spec.Health = c.Actor.HP()
	}
	return json.Marshal(&spec)
}

// UnmarshalJSON reconstructs a character and rebuilds its actor.
func (c *Character) UnmarshalJSON(data []byte) error {
	var spec CharacterSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to unmarshal character spec: %w", err)
	}

	rebuilt, err := NewCharacter(&spec)
	if err != nil {
		return err
	}
	c.Spec = rebuilt.Spec
	c.Actor = rebuilt.Actor
	return nil
}

// actorID converts a display name to a stable lowercase id.
func actorID(name string) string {
	var out strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			out.WriteRune('_')
		}
	}
	return out.String()
}
