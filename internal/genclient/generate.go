package genclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/realmforge/internal/models"
)

// Temperatures are fixed per call site; creativity is not user-tunable.
const (
	startTemperature   = 0.8
	turnTemperature    = 0.75
	summaryTemperature = 0.7
)

// StartGame opens a new adventure for the given character and returns the
// first narrator turn.
func (c *Client) StartGame(ctx context.Context, ch models.Character, st models.StorySettings) (*models.Turn, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	raw, err := c.generateText(ctx, "start_game", textRequest{
		Instruction: startPrompt(ch, st),
		Schema:      turnSchema,
		SchemaText:  turnSchemaText,
		Temperature: startTemperature,
	})
	if err != nil {
		return nil, err
	}
	return decodeTurn(raw)
}

// NextTurn advances the story: the conversation history is replayed as
// context and the player's chosen action becomes the new message.
func (c *Client) NextTurn(ctx context.Context, history []models.HistoryEntry, action string) (*models.Turn, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	raw, err := c.generateText(ctx, "next_turn", textRequest{
		History:     history,
		Instruction: turnPrompt(action),
		Schema:      turnSchema,
		SchemaText:  turnSchemaText,
		Temperature: turnTemperature,
	})
	if err != nil {
		return nil, err
	}
	return decodeTurn(raw)
}

// GenerateSummary builds the end-of-session infographic payload from the
// full turn history.
func (c *Client) GenerateSummary(ctx context.Context, history []models.HistoryEntry, finalStatus models.GameOverStatus, score, turns int) (*models.Summary, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	raw, err := c.generateText(ctx, "summary", textRequest{
		Instruction: summaryPrompt(history, finalStatus, score, turns),
		Schema:      summarySchema,
		SchemaText:  summarySchemaText,
		Temperature: summaryTemperature,
	})
	if err != nil {
		return nil, err
	}
	return decodeSummary(raw)
}

// generateText runs one structured text call through the retry wrapper and
// maps credential rejections onto ErrAuth. Parse failures happen after the
// retry loop; a malformed reply is never retried.
func (c *Client) generateText(ctx context.Context, op string, req textRequest) (string, error) {
	raw, err := withRetry(ctx, c.log, c.retry, op, func(ctx context.Context) (string, error) {
		return c.text.generate(ctx, req)
	})
	if err != nil {
		if authError(err) {
			return "", fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return "", err
	}
	return raw, nil
}

func decodeTurn(raw string) (*models.Turn, error) {
	data, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var t models.Turn
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &t, nil
}

func decodeSummary(raw string) (*models.Summary, error) {
	data, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var s models.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &s, nil
}
