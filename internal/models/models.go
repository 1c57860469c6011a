package models

import "fmt"

// GameOverStatus is the outcome carried by every turn. A session stays in
// play while the status is NONE.
type GameOverStatus string

const (
	StatusNone GameOverStatus = "NONE"
	StatusWin  GameOverStatus = "WIN"
	StatusLoss GameOverStatus = "LOSS"
)

func (s GameOverStatus) Valid() bool {
	switch s {
	case StatusNone, StatusWin, StatusLoss:
		return true
	}
	return false
}

// ItemCategory classifies inventory items.
type ItemCategory string

const (
	CategoryWeapon   ItemCategory = "WEAPON"
	CategoryArmor    ItemCategory = "ARMOR"
	CategoryPotion   ItemCategory = "POTION"
	CategoryKeyItem  ItemCategory = "KEY_ITEM"
	CategoryTreasure ItemCategory = "TREASURE"
)

func (c ItemCategory) Valid() bool {
	switch c {
	case CategoryWeapon, CategoryArmor, CategoryPotion, CategoryKeyItem, CategoryTreasure:
		return true
	}
	return false
}

// Item is a single inventory entry. IDs are unique within an inventory.
type Item struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Category    ItemCategory `json:"category"`
	Icon        string       `json:"icon,omitempty"`
}

// Quest is the player's current objective. Updates replace the previous
// quest wholesale; there is no field-level merge.
type Quest struct {
	MainObjective string `json:"mainObjective"`
	CurrentTask   string `json:"currentTask"`
}

// Character describes the protagonist chosen at setup.
type Character struct {
	Name  string `json:"name"`
	Race  string `json:"race"`
	Class string `json:"class"`
}

// StorySettings select the world the narrator writes in.
type StorySettings struct {
	Setting string `json:"setting"`
	Tone    string `json:"tone"`
}

// Turn is one narrator response: prose, exactly three options for the
// player, and the state deltas to apply.
type Turn struct {
	Narrative       string         `json:"narrative"`
	Options         []string       `json:"options"`
	HPAdjustment    int            `json:"hpAdjustment"`
	ScoreAdjustment int            `json:"scoreAdjustment"`
	GameOverStatus  GameOverStatus `json:"gameOverStatus"`
	ImagePrompt     string         `json:"imagePrompt,omitempty"`
	NewItems        []Item         `json:"newItems,omitempty"`
	RemoveItemIDs   []string       `json:"removeItemIds,omitempty"`
	QuestUpdate     *Quest         `json:"questUpdate,omitempty"`
}

// Validate checks the shape constraints the response schema declares but
// cannot enforce. Callers treat a failure as a malformed model response.
func (t *Turn) Validate() error {
	if len(t.Options) != 3 {
		return fmt.Errorf("expected exactly 3 options, got %d", len(t.Options))
	}
	if !t.GameOverStatus.Valid() {
		return fmt.Errorf("unknown game over status %q", t.GameOverStatus)
	}
	for _, it := range t.NewItems {
		if it.ID == "" {
			return fmt.Errorf("item %q has no id", it.Name)
		}
		if !it.Category.Valid() {
			return fmt.Errorf("item %q has unknown category %q", it.ID, it.Category)
		}
	}
	return nil
}

// StatIcon tags a summary stat for the end-of-session infographic.
type StatIcon string

const (
	IconTrophy StatIcon = "TROPHY"
	IconHeart  StatIcon = "HEART"
	IconSword  StatIcon = "SWORD"
	IconSkull  StatIcon = "SKULL"
	IconStar   StatIcon = "STAR"
	IconScroll StatIcon = "SCROLL"
)

func (i StatIcon) Valid() bool {
	switch i {
	case IconTrophy, IconHeart, IconSword, IconSkull, IconStar, IconScroll:
		return true
	}
	return false
}

// SummaryStat is one headline figure on the infographic.
type SummaryStat struct {
	Icon  StatIcon `json:"icon"`
	Label string   `json:"label"`
	Value string   `json:"value"`
}

// TimelineEntry marks a notable moment of the session.
type TimelineEntry struct {
	Turn        int    `json:"turn"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Summary is the end-of-session recap synthesized from the full history.
type Summary struct {
	Title           string          `json:"title"`
	Subtitle        string          `json:"subtitle"`
	HeroImagePrompt string          `json:"heroImagePrompt"`
	Stats           []SummaryStat   `json:"stats"`
	Timeline        []TimelineEntry `json:"timeline"`
	ClosingRemark   string          `json:"closingRemark"`
}

func (s *Summary) Validate() error {
	if s.Title == "" {
		return fmt.Errorf("summary has no title")
	}
	for _, st := range s.Stats {
		if !st.Icon.Valid() {
			return fmt.Errorf("summary stat %q has unknown icon %q", st.Label, st.Icon)
		}
	}
	for _, e := range s.Timeline {
		if e.Turn < 0 {
			return fmt.Errorf("timeline entry %q has negative turn index", e.Title)
		}
	}
	return nil
}

// Role identifies the speaker of a history entry.
type Role string

const (
	RolePlayer   Role = "player"
	RoleNarrator Role = "narrator"
)

// HistoryEntry is one element of the append-only conversation history
// replayed to the model as context for subsequent requests.
type HistoryEntry struct {
	Role        Role   `json:"role"`
	Text        string `json:"text"`
	ImagePrompt string `json:"imagePrompt,omitempty"`
}
