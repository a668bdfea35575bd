package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/engine"
	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/pkg/directive"
	"github.com/jwebster45206/adventure-engine/pkg/selection"
	"github.com/jwebster45206/adventure-engine/pkg/session"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateAdventureRequest defines the request body for creating a session.
type CreateAdventureRequest struct {
	Players int `json:"players"`
}

// ChoiceRequest defines the body for scenario selection.
type ChoiceRequest struct {
	Choice int `json:"choice"`
}

// CharacterChoiceRequest defines the body for character selection.
type CharacterChoiceRequest struct {
	Player int `json:"player"`
	Choice int `json:"choice"`
}

// ActionRequest defines the body for submitting a character action.
type ActionRequest struct {
	Character int    `json:"character"`
	Action    string `json:"action"`
}

// AdventureHandler exposes the turn engine over HTTP.
//
// Routes:
//
//	POST   /v1/adventures                  - create session (player count)
//	GET    /v1/adventures/{id}             - read session
//	DELETE /v1/adventures/{id}             - abandon session
//	POST   /v1/adventures/{id}/scenario    - choose scenario
//	POST   /v1/adventures/{id}/characters  - choose character for a player
//	POST   /v1/adventures/{id}/actions     - submit action for a character
type AdventureHandler struct {
	engine      *engine.Engine
	logger      *slog.Logger
	showDMNotes bool
}

func NewAdventureHandler(eng *engine.Engine, logger *slog.Logger, showDMNotes bool) *AdventureHandler {
	return &AdventureHandler{
		engine:      eng,
		logger:      logger,
		showDMNotes: showDMNotes,
	}
}

func (h *AdventureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/adventures"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Use POST to create an adventure.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.SplitN(path, "/", 2)
	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
		return
	}

	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Use POST for adventure operations.")
		return
	}

	switch parts[1] {
	case "scenario":
		h.handleScenarioChoice(w, r, id)
	case "characters":
		h.handleCharacterChoice(w, r, id)
	case "actions":
		h.handleAction(w, r, id)
	default:
		h.writeError(w, http.StatusNotFound, "Unknown adventure operation: "+parts[1])
	}
}

func (h *AdventureHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateAdventureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	sess, err := h.engine.CreateAdventure(r.Context(), req.Players)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.writeSession(w, http.StatusCreated, sess)
}

func (h *AdventureHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	sess, err := h.engine.GetSession(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, sess)
}

func (h *AdventureHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.engine.AbandonSession(r.Context(), id); err != nil {
		h.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdventureHandler) handleScenarioChoice(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	sess, err := h.engine.ChooseScenario(r.Context(), id, req.Choice)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, sess)
}

func (h *AdventureHandler) handleCharacterChoice(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req CharacterChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	sess, err := h.engine.ChooseCharacter(r.Context(), id, req.Player, req.Choice)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, sess)
}

func (h *AdventureHandler) handleAction(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	sess, err := h.engine.SubmitAction(r.Context(), id, req.Character, req.Action)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, sess)
}

// writeSession encodes a session snapshot, stripping internal DM notes
// unless the diagnostics toggle is on.
func (h *AdventureHandler) writeSession(w http.ResponseWriter, status int, sess *session.AdventureSession) {
	out := sess
	if !h.showDMNotes {
		out = sanitizeSession(sess)
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(out); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

// sanitizeSession returns a copy with internal annotations removed: scene
// DM notes and the story's hidden plot are for the game master's eyes.
func sanitizeSession(sess *session.AdventureSession) *session.AdventureSession {
	out := *sess
	out.Story.Plot = ""
	if len(sess.SceneHistory) > 0 {
		out.SceneHistory = make([]*session.Scene, len(sess.SceneHistory))
		for i, scene := range sess.SceneHistory {
			clean := *scene
			clean.DMNotes = ""
			out.SceneHistory[i] = &clean
		}
	}
	return &out
}

// writeEngineError maps the error taxonomy onto HTTP statuses. Validation
// and choice errors are user-recoverable; protocol violations conflict
// with session state; mandatory generation failures surface as bad
// gateway.
func (h *AdventureHandler) writeEngineError(w http.ResponseWriter, err error) {
	var (
		validationErr  *session.ValidationError
		wrongTurn      *session.WrongTurnError
		outOfRange     *selection.OutOfRangeError
		insufficient   *selection.InsufficientOptionsError
		generationFail *services.GenerationError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &outOfRange):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, selection.ErrAlreadyChosen),
		errors.Is(err, session.ErrInvalidStateTransition),
		errors.As(err, &wrongTurn):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrSessionNotFound):
		h.writeError(w, http.StatusNotFound, "Adventure not found")
	case errors.Is(err, directive.ErrMalformedScenario),
		errors.As(err, &insufficient),
		errors.As(err, &generationFail):
		h.logger.Error("Generation failure", "error", err)
		h.writeError(w, http.StatusBadGateway, "Adventure generation failed. Start a new adventure to retry.")
	default:
		h.logger.Error("Unexpected error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *AdventureHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}
