package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/example/realmforge/internal/game"
	"github.com/example/realmforge/internal/genclient"
	"github.com/example/realmforge/internal/models"
)

// Server exposes the game over HTTP for the browser UI.
type Server struct {
	r      *chi.Mux
	engine *game.Engine
	log    zerolog.Logger
}

// New constructs a Server, installs middleware, and registers routes.
func New(engine *game.Engine, log zerolog.Logger) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		engine: engine,
		log:    log.With().Str("component", "api").Logger(),
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(120 * time.Second)) // generation calls are slow

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.r.Route("/games", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/start", s.handleStart)
			r.Post("/turn", s.handleTurn)
			r.Post("/summary", s.handleSummary)
			r.Post("/image", s.handleImage)
			r.Post("/speech", s.handleSpeech)
		})
	})

	return s
}

func (s *Server) Handler() http.Handler { return s.r }

type createRequest struct {
	Character models.Character     `json:"character"`
	Settings  models.StorySettings `json:"settings"`

	// Optional model overrides; empty keeps the server defaults. The choice
	// is pinned for the session's lifetime.
	TextModel  string `json:"textModel,omitempty"`
	ImageModel string `json:"imageModel,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Character.Name == "" {
		s.respondError(w, http.StatusBadRequest, errors.New("character name is required"))
		return
	}
	sess := s.engine.CreateWithModels(req.Character, req.Settings, req.TextModel, req.ImageModel)
	s.respond(w, http.StatusCreated, sess)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.engine.Get(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, http.StatusNotFound, game.ErrSessionNotFound)
		return
	}
	s.respond(w, http.StatusOK, sess)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	sessions := s.engine.List()
	if sessions == nil {
		sessions = []*game.Session{}
	}
	s.respond(w, http.StatusOK, sessions)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Delete(chi.URLParam(r, "id")); err != nil {
		s.respondGameError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type turnResponse struct {
	Session *game.Session `json:"session"`
	Turn    *models.Turn  `json:"turn"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sess, turn, err := s.engine.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondGameError(w, err)
		return
	}
	s.respond(w, http.StatusOK, turnResponse{Session: sess, Turn: turn})
}

type actRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req actRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Action == "" {
		s.respondError(w, http.StatusBadRequest, errors.New("action is required"))
		return
	}
	sess, turn, err := s.engine.Act(r.Context(), chi.URLParam(r, "id"), req.Action)
	if err != nil {
		s.respondGameError(w, err)
		return
	}
	s.respond(w, http.StatusOK, turnResponse{Session: sess, Turn: turn})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.engine.Summarize(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondGameError(w, err)
		return
	}
	s.respond(w, http.StatusOK, summary)
}

// handleImage and handleSpeech never fail the request over a generation
// problem: the features degrade to an empty payload.

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	uri, err := s.engine.Illustrate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondGameError(w, err)
		return
	}
	var image *string
	if uri != "" {
		image = &uri
	}
	s.respond(w, http.StatusOK, map[string]*string{"image": image})
}

type speechResponse struct {
	SampleRate int         `json:"sampleRate"`
	Channels   [][]float32 `json:"channels"`
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	audio, err := s.engine.Narrate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondGameError(w, err)
		return
	}
	var payload *speechResponse
	if audio != nil {
		payload = &speechResponse{SampleRate: audio.SampleRate, Channels: audio.Channels}
	}
	s.respond(w, http.StatusOK, map[string]*speechResponse{"audio": payload})
}

// respondGameError maps engine/client failures onto HTTP statuses.
func (s *Server) respondGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		s.respondError(w, http.StatusNotFound, err)
	case errors.Is(err, game.ErrWrongState):
		s.respondError(w, http.StatusConflict, err)
	case errors.Is(err, genclient.ErrNotInitialized):
		s.respondError(w, http.StatusServiceUnavailable, err)
	case errors.Is(err, genclient.ErrAuth):
		s.respondError(w, http.StatusUnauthorized, err)
	default:
		// malformed responses, exhausted retries, transport failures
		s.respondError(w, http.StatusBadGateway, err)
	}
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.log.Warn().Int("status", status).Err(err).Msg("request failed")
	s.respond(w, status, map[string]string{"error": err.Error()})
}
