package game

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/example/realmforge/internal/models"
)

// State is the session lifecycle: SETUP until the opening turn is
// generated, PLAYING while the adventure runs, FINISHED once the narrator
// declares WIN or LOSS.
type State string

const (
	StateSetup    State = "SETUP"
	StatePlaying  State = "PLAYING"
	StateFinished State = "FINISHED"
)

const (
	startingHP = 100
	maxHP      = 100
)

// Session is one player's adventure. All state is ephemeral: nothing
// survives a process restart. Serialization goes through MarshalJSON, which
// snapshots under the lock.
type Session struct {
	mu  sync.Mutex
	gen Generator // per-session override, set once at create; nil means the engine default

	ID        string
	State     State
	Character models.Character
	Settings  models.StorySettings
	HP        int
	Score     int
	TurnCount int
	Status    models.GameOverStatus
	Inventory []models.Item
	Quest     *models.Quest
	History   []models.HistoryEntry
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarshalJSON holds the session lock while encoding so a response body
// never races a concurrent turn applying its deltas.
func (s *Session) MarshalJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(struct {
		ID        string                `json:"id"`
		State     State                 `json:"state"`
		Character models.Character      `json:"character"`
		Settings  models.StorySettings  `json:"settings"`
		HP        int                   `json:"hp"`
		Score     int                   `json:"score"`
		TurnCount int                   `json:"turnCount"`
		Status    models.GameOverStatus `json:"gameOverStatus"`
		Inventory []models.Item         `json:"inventory"`
		Quest     *models.Quest         `json:"quest,omitempty"`
		History   []models.HistoryEntry `json:"history"`
		CreatedAt time.Time             `json:"createdAt"`
		UpdatedAt time.Time             `json:"updatedAt"`
	}{
		ID:        s.ID,
		State:     s.State,
		Character: s.Character,
		Settings:  s.Settings,
		HP:        s.HP,
		Score:     s.Score,
		TurnCount: s.TurnCount,
		Status:    s.Status,
		Inventory: s.Inventory,
		Quest:     s.Quest,
		History:   s.History,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	})
}

// applyTurn folds a narrator turn into the session: clamp-adjusted HP,
// score, inventory and quest deltas, history append, and the lifecycle
// transition when the story ends. Caller holds s.mu.
func (s *Session) applyTurn(t *models.Turn) {
	s.HP += t.HPAdjustment
	if s.HP > maxHP {
		s.HP = maxHP
	}
	if s.HP < 0 {
		s.HP = 0
	}
	s.Score += t.ScoreAdjustment
	s.TurnCount++

	for _, item := range t.NewItems {
		s.addItem(item)
	}
	for _, id := range t.RemoveItemIDs {
		s.removeItem(id)
	}
	if t.QuestUpdate != nil {
		q := *t.QuestUpdate
		s.Quest = &q
	}

	s.History = append(s.History, models.HistoryEntry{
		Role:        models.RoleNarrator,
		Text:        t.Narrative,
		ImagePrompt: t.ImagePrompt,
	})

	s.Status = t.GameOverStatus
	// running out of health ends the game even if the narrator forgot
	if s.HP == 0 && s.Status == models.StatusNone {
		s.Status = models.StatusLoss
	}
	if s.Status != models.StatusNone {
		s.State = StateFinished
	}
	s.UpdatedAt = time.Now()
}

// addItem appends, except that a duplicate ID replaces the existing entry:
// the model occasionally re-grants an item with refreshed wording and the
// latest description should win.
func (s *Session) addItem(item models.Item) {
	for i, existing := range s.Inventory {
		if existing.ID == item.ID {
			s.Inventory[i] = item
			return
		}
	}
	s.Inventory = append(s.Inventory, item)
}

func (s *Session) removeItem(id string) {
	out := s.Inventory[:0]
	for _, item := range s.Inventory {
		if item.ID != id {
			out = append(out, item)
		}
	}
	s.Inventory = out
}

// lastNarration returns the most recent narrator entry, if any.
// Caller holds s.mu.
func (s *Session) lastNarration() (models.HistoryEntry, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == models.RoleNarrator {
			return s.History[i], true
		}
	}
	return models.HistoryEntry{}, false
}

// snapshotHistory copies the history so generation calls can read it after
// the lock is released. Caller holds s.mu.
func (s *Session) snapshotHistory() []models.HistoryEntry {
	out := make([]models.HistoryEntry, len(s.History))
	copy(out, s.History)
	return out
}
