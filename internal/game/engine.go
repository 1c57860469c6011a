package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/realmforge/internal/genclient"
	"github.com/example/realmforge/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrWrongState      = errors.New("operation not allowed in current session state")
)

// Generator is the generation client seam; *genclient.Client satisfies it
// and tests substitute a mock.
type Generator interface {
	StartGame(ctx context.Context, ch models.Character, st models.StorySettings) (*models.Turn, error)
	NextTurn(ctx context.Context, history []models.HistoryEntry, action string) (*models.Turn, error)
	GenerateSummary(ctx context.Context, history []models.HistoryEntry, finalStatus models.GameOverStatus, score, turns int) (*models.Summary, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
	GenerateSpeech(ctx context.Context, text string) (*genclient.Audio, error)
}

// Engine drives sessions through SETUP → PLAYING → FINISHED. Text-turn
// failures are fatal to the call and surfaced; image and speech failures
// degrade to "feature absent".
type Engine struct {
	gen   Generator
	store *Store
	log   zerolog.Logger
}

func NewEngine(gen Generator, log zerolog.Logger) *Engine {
	return &Engine{
		gen:   gen,
		store: NewStore(),
		log:   log.With().Str("component", "game").Logger(),
	}
}

// modelSwitcher is satisfied by generators that can derive a copy bound to
// different models; *genclient.Client is the one that matters.
type modelSwitcher interface {
	WithModels(textModel, imageModel string) *genclient.Client
}

// Create registers a new session in SETUP. No remote call happens yet.
func (e *Engine) Create(ch models.Character, st models.StorySettings) *Session {
	return e.CreateWithModels(ch, st, "", "")
}

// CreateWithModels registers a session pinned to the given text and image
// models. Empty strings keep the engine defaults. The derived generator is
// fixed for the session's lifetime, so a model choice never races an
// in-flight call.
func (e *Engine) CreateWithModels(ch models.Character, st models.StorySettings, textModel, imageModel string) *Session {
	var gen Generator
	if textModel != "" || imageModel != "" {
		if ms, ok := e.gen.(modelSwitcher); ok {
			gen = ms.WithModels(textModel, imageModel)
		}
	}
	now := time.Now()
	sess := &Session{
		gen:       gen,
		ID:        uuid.NewString(),
		State:     StateSetup,
		Character: ch,
		Settings:  st,
		HP:        startingHP,
		Status:    models.StatusNone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.store.Put(sess)
	e.log.Info().Str("session", sess.ID).Str("name", ch.Name).Msg("session created")
	return sess
}

// generatorFor resolves the session's pinned generator, if any. The field is
// written once at create and never after, so no lock is needed.
func (e *Engine) generatorFor(sess *Session) Generator {
	if sess.gen != nil {
		return sess.gen
	}
	return e.gen
}

func (e *Engine) Get(id string) (*Session, bool) {
	return e.store.Get(id)
}

func (e *Engine) List() []*Session {
	return e.store.List()
}

// Delete discards a session. Sessions are ephemeral anyway; this just lets
// the UI abandon an adventure explicitly.
func (e *Engine) Delete(id string) error {
	if _, ok := e.store.Get(id); !ok {
		return ErrSessionNotFound
	}
	e.store.Delete(id)
	e.log.Info().Str("session", id).Msg("session deleted")
	return nil
}

// Start generates the opening turn and moves the session to PLAYING. The
// turn is returned alongside the session so the UI gets the options list.
func (e *Engine) Start(ctx context.Context, id string) (*Session, *models.Turn, error) {
	sess, ok := e.store.Get(id)
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	if sess.State != StateSetup {
		sess.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %s", ErrWrongState, sess.State)
	}
	ch, st := sess.Character, sess.Settings
	sess.mu.Unlock()

	turn, err := e.generatorFor(sess).StartGame(ctx, ch, st)
	if err != nil {
		return nil, nil, fmt.Errorf("start game: %w", err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.State != StateSetup {
		return nil, nil, fmt.Errorf("%w: %s", ErrWrongState, sess.State)
	}
	sess.State = StatePlaying
	sess.applyTurn(turn)
	e.log.Info().Str("session", sess.ID).Msg("adventure started")
	return sess, turn, nil
}

// Act submits the player's action, applies the resulting turn, and returns
// the updated session. The action is appended to history only after the
// narrator answers, so a failed call leaves the session unchanged.
func (e *Engine) Act(ctx context.Context, id, action string) (*Session, *models.Turn, error) {
	sess, ok := e.store.Get(id)
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	if sess.State != StatePlaying {
		sess.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %s", ErrWrongState, sess.State)
	}
	history := sess.snapshotHistory()
	sess.mu.Unlock()

	turn, err := e.generatorFor(sess).NextTurn(ctx, history, action)
	if err != nil {
		return nil, nil, fmt.Errorf("next turn: %w", err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.State != StatePlaying {
		return nil, nil, fmt.Errorf("%w: %s", ErrWrongState, sess.State)
	}
	sess.History = append(sess.History, models.HistoryEntry{Role: models.RolePlayer, Text: action})
	sess.applyTurn(turn)
	return sess, turn, nil
}

// Summarize builds the end-of-session infographic. Only valid once the
// session is FINISHED.
func (e *Engine) Summarize(ctx context.Context, id string) (*models.Summary, error) {
	sess, ok := e.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	if sess.State != StateFinished {
		sess.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrWrongState, sess.State)
	}
	history := sess.snapshotHistory()
	status, score, turns := sess.Status, sess.Score, sess.TurnCount
	sess.mu.Unlock()

	return e.generatorFor(sess).GenerateSummary(ctx, history, status, score, turns)
}

// Illustrate renders the latest scene as a data URI. Best-effort: any
// failure is logged and reported as "no image".
func (e *Engine) Illustrate(ctx context.Context, id string) (string, error) {
	sess, ok := e.store.Get(id)
	if !ok {
		return "", ErrSessionNotFound
	}
	sess.mu.Lock()
	entry, found := sess.lastNarration()
	sess.mu.Unlock()
	if !found || entry.ImagePrompt == "" {
		return "", nil
	}
	uri, err := e.generatorFor(sess).GenerateImage(ctx, entry.ImagePrompt)
	if err != nil {
		e.log.Warn().Err(err).Str("session", id).Msg("image generation failed, degrading")
		return "", nil
	}
	return uri, nil
}

// Narrate synthesizes speech for the latest narration. Best-effort like
// Illustrate.
func (e *Engine) Narrate(ctx context.Context, id string) (*genclient.Audio, error) {
	sess, ok := e.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	entry, found := sess.lastNarration()
	sess.mu.Unlock()
	if !found {
		return nil, nil
	}
	audio, err := e.generatorFor(sess).GenerateSpeech(ctx, entry.Text)
	if err != nil {
		e.log.Warn().Err(err).Str("session", id).Msg("speech synthesis failed, degrading")
		return nil, nil
	}
	return audio, nil
}
