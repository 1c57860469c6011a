package genclient

import (
	"github.com/google/generative-ai-go/genai"
)

// Response schemas handed to the model alongside each instruction. The
// schema constrains field names and enumerations; counts (exactly three
// options) are checked post-parse because the schema language cannot
// express them.

var itemSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"id":          {Type: genai.TypeString, Description: "Stable identifier, unique within the inventory."},
		"name":        {Type: genai.TypeString},
		"description": {Type: genai.TypeString},
		"category": {
			Type: genai.TypeString,
			Enum: []string{"WEAPON", "ARMOR", "POTION", "KEY_ITEM", "TREASURE"},
		},
		"icon": {Type: genai.TypeString, Nullable: true},
	},
	Required: []string{"id", "name", "description", "category"},
}

var questSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"mainObjective": {Type: genai.TypeString},
		"currentTask":   {Type: genai.TypeString},
	},
	Required: []string{"mainObjective", "currentTask"},
}

// turnSchema describes one narrator turn.
var turnSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"narrative": {Type: genai.TypeString, Description: "Narration for this turn, second person."},
		"options": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "Exactly three actions the player may take next.",
		},
		"hpAdjustment":    {Type: genai.TypeInteger, Description: "Signed health change applied this turn."},
		"scoreAdjustment": {Type: genai.TypeInteger, Description: "Signed score change applied this turn."},
		"gameOverStatus": {
			Type: genai.TypeString,
			Enum: []string{"NONE", "WIN", "LOSS"},
		},
		"imagePrompt":   {Type: genai.TypeString, Nullable: true, Description: "Illustration prompt for the scene, when one is worth drawing."},
		"newItems":      {Type: genai.TypeArray, Items: itemSchema, Nullable: true},
		"removeItemIds": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Nullable: true},
		"questUpdate":   questSchema,
	},
	Required: []string{"narrative", "options", "hpAdjustment", "scoreAdjustment", "gameOverStatus"},
}

// summarySchema describes the end-of-session infographic payload.
var summarySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":           {Type: genai.TypeString},
		"subtitle":        {Type: genai.TypeString},
		"heroImagePrompt": {Type: genai.TypeString},
		"stats": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"icon": {
						Type: genai.TypeString,
						Enum: []string{"TROPHY", "HEART", "SWORD", "SKULL", "STAR", "SCROLL"},
					},
					"label": {Type: genai.TypeString},
					"value": {Type: genai.TypeString},
				},
				Required: []string{"icon", "label", "value"},
			},
		},
		"timeline": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"turn":        {Type: genai.TypeInteger, Description: "Zero-based turn index the moment happened on."},
					"title":       {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
				},
				Required: []string{"turn", "title", "description"},
			},
		},
		"closingRemark": {Type: genai.TypeString},
	},
	Required: []string{"title", "subtitle", "heroImagePrompt", "stats", "timeline", "closingRemark"},
}

// turnSchemaText and summarySchemaText restate the schemas for backends
// without native schema-constrained output; the contract is enforced by the
// shared post-parse validation either way.
const turnSchemaText = `{
  "narrative": string,
  "options": [string, string, string],
  "hpAdjustment": integer,
  "scoreAdjustment": integer,
  "gameOverStatus": "NONE" | "WIN" | "LOSS",
  "imagePrompt": string (optional),
  "newItems": [{"id": string, "name": string, "description": string, "category": "WEAPON"|"ARMOR"|"POTION"|"KEY_ITEM"|"TREASURE", "icon": string (optional)}] (optional),
  "removeItemIds": [string] (optional),
  "questUpdate": {"mainObjective": string, "currentTask": string} (optional)
}`

const summarySchemaText = `{
  "title": string,
  "subtitle": string,
  "heroImagePrompt": string,
  "stats": [{"icon": "TROPHY"|"HEART"|"SWORD"|"SKULL"|"STAR"|"SCROLL", "label": string, "value": string}],
  "timeline": [{"turn": integer, "title": string, "description": string}],
  "closingRemark": string
}`
