// Package engine implements the turn engine: the state machine that
// sequences scenario generation, character selection, party assembly, and
// the scene/action loop for an adventure session. All phase transitions
// for a session are serialized through a per-session lock; generation
// calls are the suspension points.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/directive"
	"github.com/jwebster45206/adventure-engine/pkg/prompts"
	"github.com/jwebster45206/adventure-engine/pkg/selection"
	"github.com/jwebster45206/adventure-engine/pkg/session"
)

const (
	// ScenarioOptionCount is the size of the scenario selection set.
	ScenarioOptionCount = 3
	// CharacterOptionCount is the size of each player's character
	// selection set.
	CharacterOptionCount = 6
)

// ErrSessionNotFound indicates the requested session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Engine drives adventure sessions. One Engine serves many sessions; each
// session's operations are serialized, so phase, party and scene history
// are never mutated concurrently.
type Engine struct {
	store      storage.Storage
	text       services.TextGenerator
	enricher   *Enricher
	maxPlayers int
	logger     *slog.Logger

	lockMu sync.Mutex
	locks  map[uuid.UUID]*sync.Mutex
}

// New creates an engine. enricher may be nil, in which case scenes are
// produced without narration audio or imagery.
func New(store storage.Storage, text services.TextGenerator, enricher *Enricher, maxPlayers int, logger *slog.Logger) *Engine {
	return &Engine{
		store:      store,
		text:       text,
		enricher:   enricher,
		maxPlayers: maxPlayers,
		logger:     logger,
		locks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

// sessionLock returns the mutex serializing operations for one session.
func (e *Engine) sessionLock(id uuid.UUID) *sync.Mutex {
	e.lockMu.Lock()
	defer e.lockMu.Unlock()
	lock, ok := e.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[id] = lock
	}
	return lock
}

func (e *Engine) releaseLock(id uuid.UUID) {
	e.lockMu.Lock()
	defer e.lockMu.Unlock()
	delete(e.locks, id)
}

// CreateAdventure validates the player count, creates a session and
// generates its scenario selection set. An out-of-range count fails with
// a ValidationError and no session is created.
func (e *Engine) CreateAdventure(ctx context.Context, players int) (*session.AdventureSession, error) {
	sess := session.New()
	if err := sess.SetPlayerCount(players, e.maxPlayers); err != nil {
		return nil, err
	}

	set, err := e.buildScenarioSet(ctx)
	if err != nil {
		sess.Fail()
		if saveErr := e.store.SaveSession(ctx, sess); saveErr != nil {
			e.logger.Error("Failed to save failed session", "id", sess.ID, "error", saveErr)
		}
		return sess, err
	}
	sess.ScenarioChoices = set

	if err := e.store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	e.logger.Info("Adventure created", "id", sess.ID, "players", players)
	return sess, nil
}

// GetSession returns the current session snapshot.
func (e *Engine) GetSession(ctx context.Context, id uuid.UUID) (*session.AdventureSession, error) {
	sess, err := e.store.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// AbandonSession discards a session. Abandoning is legal in any phase and
// has no side effects beyond deleting the stored state.
func (e *Engine) AbandonSession(ctx context.Context, id uuid.UUID) error {
	lock := e.sessionLock(id)
	lock.Lock()
	err := e.store.DeleteSession(ctx, id)
	lock.Unlock()
	e.releaseLock(id)
	return err
}

// ChooseScenario resolves the scenario choice, initializes story state
// from the generated scenario details, and produces the first character
// selection set.
func (e *Engine) ChooseScenario(ctx context.Context, id uuid.UUID, index int) (*session.AdventureSession, error) {
	lock := e.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := e.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Phase != session.PhaseAwaitingScenarioChoice || sess.ScenarioChoices == nil {
		return sess, session.ErrInvalidStateTransition
	}

	candidate, err := sess.ScenarioChoices.Choose(index)
	if err != nil {
		return sess, err
	}

	raw, err := e.text.GenerateText(ctx, prompts.StoryDetails(candidate))
	if err != nil {
		return sess, e.failSession(ctx, sess, err)
	}
	story, err := directive.ParseStoryDetails(candidate.Title, raw)
	if err != nil {
		return sess, e.failSession(ctx, sess, err)
	}

	if err := sess.InitializeStory(*story); err != nil {
		return sess, err
	}

	set, err := e.buildCharacterSet(ctx, sess)
	if err != nil {
		return sess, e.failSession(ctx, sess, err)
	}
	sess.CharacterChoices = set

	if err := e.store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return sess, nil
}

// ChooseCharacter resolves one player's character choice. When the party
// is still incomplete a fresh selection set is generated for the next
// player; when the final choice completes the party, the opening scene is
// generated automatically and the first character is prompted.
func (e *Engine) ChooseCharacter(ctx context.Context, id uuid.UUID, playerIndex, index int) (*session.AdventureSession, error) {
	lock := e.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := e.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Phase != session.PhaseAwaitingCharacterChoice || sess.CharacterChoices == nil {
		return sess, session.ErrInvalidStateTransition
	}
	if playerIndex != sess.CurrentPlayer {
		return sess, &session.ValidationError{
			Field:  "player index",
			Detail: fmt.Sprintf("player %d is choosing, got %d", sess.CurrentPlayer, playerIndex),
		}
	}

	spec, err := sess.CharacterChoices.Choose(index)
	if err != nil {
		return sess, err
	}
	character, err := session.NewCharacter(spec)
	if err != nil {
		return sess, fmt.Errorf("failed to build character: %w", err)
	}
	if err := sess.AddCharacter(character); err != nil {
		return sess, err
	}

	if sess.Phase == session.PhaseAwaitingCharacterChoice {
		set, err := e.buildCharacterSet(ctx, sess)
		if err != nil {
			return sess, e.failSession(ctx, sess, err)
		}
		sess.CharacterChoices = set

		if err := e.store.SaveSession(ctx, sess); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
		return sess, nil
	}

	// Party assembled: the opening scene is generated without user input.
	scene, imagePrompt, err := e.advanceScene(ctx, sess, -1, "")
	if err != nil {
		return sess, e.failSession(ctx, sess, err)
	}
	if err := e.store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	e.enrich(sess, scene, imagePrompt)
	return sess, nil
}

// SubmitAction processes the prompted character's action and generates
// the next scene. Actions for any other character are rejected with
// WrongTurnError and leave the session unchanged.
func (e *Engine) SubmitAction(ctx context.Context, id uuid.UUID, characterIndex int, action string) (*session.AdventureSession, error) {
	if action == "" {
		return nil, &session.ValidationError{Field: "action", Detail: "cannot be empty"}
	}

	lock := e.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := e.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.ValidateAction(characterIndex); err != nil {
		return sess, err
	}

	scene, imagePrompt, err := e.advanceScene(ctx, sess, characterIndex, action)
	if err != nil {
		return sess, e.failSession(ctx, sess, err)
	}
	if err := e.store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	e.enrich(sess, scene, imagePrompt)
	return sess, nil
}

// advanceScene generates the next scene from the accumulated story
// context plus the (optional) player action, applies the directive's side
// effects to story and party state, and appends the scene. actorIndex is
// -1 for the opening scene.
func (e *Engine) advanceScene(ctx context.Context, sess *session.AdventureSession, actorIndex int, action string) (*session.Scene, string, error) {
	builder := prompts.NewScene(sess)
	if actorIndex >= 0 {
		builder = builder.WithAction(actorIndex, action)
	}
	messages, err := builder.Build()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build scene prompt: %w", err)
	}

	raw, err := e.text.GenerateText(ctx, messages)
	if err != nil {
		return nil, "", err
	}
	d, err := directive.ParseSceneDirective(raw)
	if err != nil {
		return nil, "", &services.GenerationError{Kind: services.KindParse, Detail: err.Error()}
	}

	e.applyDirective(sess, d)

	prompting := session.NoPromptedCharacter
	var prompt *session.ScenePrompt
	if !d.AdventureComplete {
		prompting = sess.CharacterIndex(d.NextCharacter)
		if prompting == session.NoPromptedCharacter {
			prompting = sess.NextRoundRobin()
		}
		prompt = scenePrompt(d.Prompt)
	}

	scene := &session.Scene{
		Text:               d.Narration,
		DMNotes:            d.DMNotes,
		Action:             action,
		ActingCharacter:    actorIndex,
		PromptingCharacter: prompting,
		Prompt:             prompt,
	}
	if err := sess.AppendScene(scene); err != nil {
		return nil, "", err
	}

	return scene, d.ImagePrompt, nil
}

// applyDirective folds a scene directive's state changes into the session:
// new NPCs and locations accumulate in story state, and party health is
// updated through each character's actor.
func (e *Engine) applyDirective(sess *session.AdventureSession, d *directive.SceneDirective) {
	for _, npc := range d.NewNPCs {
		sess.Story.AddNPC(session.NPC{Name: npc.Name, Description: npc.Description})
	}
	for _, loc := range d.NewLocations {
		sess.Story.AddLocation(loc.Name, loc.Description)
	}
	for _, update := range d.CharacterUpdates {
		idx := sess.CharacterIndex(update.Name)
		if idx == session.NoPromptedCharacter {
			continue
		}
		if err := sess.Party[idx].SetHealth(update.Health); err != nil {
			e.logger.Warn("Failed to apply character health update",
				"session", sess.ID, "character", update.Name, "error", err)
		}
	}
}

// enrich hands the scene to the narration/imagery coordinator. The scene
// text is already persisted; enrichment only ever adds media references.
func (e *Engine) enrich(sess *session.AdventureSession, scene *session.Scene, imagePrompt string) {
	if e.enricher == nil {
		return
	}
	sceneIndex := len(sess.SceneHistory) - 1
	e.enricher.Enrich(sess.ID, sceneIndex, scene.Text, imagePrompt, e.sceneApplier(sess.ID, sceneIndex))
}

// sceneApplier returns the callback enrichment uses to attach media to a
// stored scene. It reloads under the session lock so enrichment never
// clobbers turns that completed while media was generating, and it
// silently no-ops if the session was abandoned.
func (e *Engine) sceneApplier(id uuid.UUID, sceneIndex int) ApplyFunc {
	return func(ctx context.Context, update func(*session.Scene)) {
		lock := e.sessionLock(id)
		lock.Lock()
		defer lock.Unlock()

		sess, err := e.store.LoadSession(ctx, id)
		if err != nil || sess == nil {
			return
		}
		if sceneIndex < 0 || sceneIndex >= len(sess.SceneHistory) {
			return
		}
		update(sess.SceneHistory[sceneIndex])
		if err := e.store.SaveSession(ctx, sess); err != nil {
			e.logger.Error("Failed to save enriched scene", "id", id, "scene", sceneIndex, "error", err)
		}
	}
}

// failSession moves a session to its terminal failed phase after an
// unrecoverable generation failure at a mandatory step.
func (e *Engine) failSession(ctx context.Context, sess *session.AdventureSession, cause error) error {
	sess.Fail()
	if err := e.store.SaveSession(ctx, sess); err != nil {
		e.logger.Error("Failed to persist failed session", "id", sess.ID, "error", err)
	}
	e.logger.Error("Session failed at mandatory generation step", "id", sess.ID, "error", cause)
	return cause
}

// buildScenarioSet requests and parses the scenario selection set.
func (e *Engine) buildScenarioSet(ctx context.Context) (*selection.Set[session.ScenarioCandidate], error) {
	raw, err := e.text.GenerateText(ctx, prompts.ScenarioOptions(ScenarioOptionCount))
	if err != nil {
		return nil, err
	}
	candidates, err := directive.ParseScenarioCandidates(raw)
	if err != nil {
		e.logger.Warn("Unparseable scenario candidates", "error", err)
		return nil, &selection.InsufficientOptionsError{Want: ScenarioOptionCount, Got: 0}
	}
	return selection.New("scenario", candidates, func(c session.ScenarioCandidate) string {
		return c.Title
	}, ScenarioOptionCount)
}

// buildCharacterSet requests and parses a character selection set,
// excluding names already in the party.
func (e *Engine) buildCharacterSet(ctx context.Context, sess *session.AdventureSession) (*selection.Set[*session.CharacterSpec], error) {
	raw, err := e.text.GenerateText(ctx, prompts.CharacterOptions(&sess.Story, CharacterOptionCount, sess.PartyNames()))
	if err != nil {
		return nil, err
	}
	specs, err := directive.ParseCharacterSpecs(raw)
	if err != nil {
		e.logger.Warn("Unparseable character candidates", "error", err)
		return nil, &selection.InsufficientOptionsError{Want: CharacterOptionCount, Got: 0}
	}
	return selection.New("character", specs, func(s *session.CharacterSpec) string {
		return s.Name
	}, CharacterOptionCount)
}

func scenePrompt(d *directive.PromptDirective) *session.ScenePrompt {
	prompt := &session.ScenePrompt{
		Type: d.PromptType(),
		Text: "What do you do?",
	}
	if d != nil && d.Text != "" {
		prompt.Text = d.Text
	}
	if prompt.Type == session.PromptDiceCheck {
		prompt.DiceCount = 1
		prompt.DiceType = "d20"
		if d.DiceCount > 0 {
			prompt.DiceCount = d.DiceCount
		}
		if d.DiceType != "" {
			prompt.DiceType = d.DiceType
		}
	}
	return prompt
}
