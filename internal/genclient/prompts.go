package genclient

import (
	"fmt"
	"strings"

	"github.com/example/realmforge/internal/models"
)

// Instruction builders for the three structured call sites. Each pairs with
// a response schema from schema.go; the instruction carries the fiction,
// the schema carries the shape.

func startPrompt(ch models.Character, st models.StorySettings) string {
	return fmt.Sprintf(`You are the narrator of an interactive role-playing adventure.

Protagonist: %s, a %s %s.
World: %s. Tone: %s.

Open the adventure. Set the scene in two or three vivid paragraphs, give the
player a starting quest, and offer exactly three distinct options for their
first move. The player starts with 100 HP and 0 score.

Rules:
- "options" must contain exactly 3 entries, each a short imperative sentence.
- "hpAdjustment" and "scoreAdjustment" are signed integers; use 0 for no change.
- "gameOverStatus" is NONE unless the story has genuinely ended.
- Include "imagePrompt" describing the opening scene for an illustrator.
- Grant starting gear through "newItems" when it fits the character.
- Respond with the JSON object only.`,
		ch.Name, ch.Race, ch.Class, st.Setting, st.Tone)
}

func turnPrompt(action string) string {
	return fmt.Sprintf(`The player chooses: %s

Continue the story. React to the choice, advance the plot, and offer exactly
three new options. Adjust hpAdjustment and scoreAdjustment to reflect what
happened. Set gameOverStatus to WIN or LOSS only when the adventure truly
ends; otherwise NONE. Add newItems / removeItemIds / questUpdate when the
events call for them. Respond with the JSON object only.`, action)
}

func summaryPrompt(history []models.HistoryEntry, finalStatus models.GameOverStatus, score, turns int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `The adventure is over (outcome: %s, final score %d, %d turns).
Write an end-of-session infographic from the transcript below: a dramatic
title and subtitle, a hero image prompt, three to five headline stats, a
timeline of the key moments (turn indices refer to the numbered narrator
entries), and a short closing remark addressed to the player.
Respond with the JSON object only.

Transcript:
`, finalStatus, score, turns)
	turn := 0
	for _, h := range history {
		switch h.Role {
		case models.RoleNarrator:
			fmt.Fprintf(&b, "[turn %d] Narrator: %s\n", turn, h.Text)
			turn++
		case models.RolePlayer:
			fmt.Fprintf(&b, "Player: %s\n", h.Text)
		}
	}
	return b.String()
}

// imageStyleSuffix is appended to every illustration prompt so the session
// keeps a consistent look.
const imageStyleSuffix = ", digital painting, dramatic lighting, rich color, fantasy book illustration style"
