package genclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/example/realmforge/internal/models"
)

const defaultRESTBase = "https://generativelanguage.googleapis.com/v1beta"

// Models names the remote models a client instance talks to. The set is
// fixed per instance; use WithModels to derive a client with different ones
// so switches never race with in-flight calls.
type Models struct {
	Text   string
	Image  string
	Speech string
	Voice  string
}

func defaultModels() Models {
	return Models{
		Text:   "gemini-2.5-flash",
		Image:  "imagen-3.0-generate-002",
		Speech: "gemini-2.5-flash-preview-tts",
		Voice:  "Charon",
	}
}

// Config constructs a Client.
type Config struct {
	APIKey  string
	Models  Models // zero fields fall back to defaults
	Backend string // "gemini" (default) or "openai" for OpenAI-compatible services
	BaseURL string // chat-completions base URL when Backend is "openai"

	// RESTBaseURL overrides the generative-language REST endpoint used for
	// speech and image synthesis. Tests point it at httptest servers.
	RESTBaseURL string

	HTTPTimeout time.Duration
	Retry       *RetryPolicy
	Logger      zerolog.Logger
}

// textBackend is the schema-constrained text generation seam. The Gemini
// implementation passes the schema natively; the OpenAI-compatible one
// embeds its textual rendering in the system prompt. Post-parse validation
// is shared and backend-independent.
type textBackend interface {
	generate(ctx context.Context, req textRequest) (string, error)
}

type textRequest struct {
	History     []models.HistoryEntry
	Instruction string
	Schema      *genai.Schema
	SchemaText  string
	Temperature float32
}

// Client is the generation client: it builds prompts, executes them with
// bounded retry, and normalizes responses. Safe for concurrent use; all
// configuration is read-only after construction.
type Client struct {
	text     textBackend
	models   Models
	apiKey   string
	restBase string
	httpc    *http.Client
	retry    RetryPolicy
	log      zerolog.Logger
}

// New builds a Client from cfg. A missing API key is reported as
// ErrNotInitialized so callers can route the user back to credential setup.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotInitialized
	}

	m := defaultModels()
	if cfg.Models.Text != "" {
		m.Text = cfg.Models.Text
	}
	if cfg.Models.Image != "" {
		m.Image = cfg.Models.Image
	}
	if cfg.Models.Speech != "" {
		m.Speech = cfg.Models.Speech
	}
	if cfg.Models.Voice != "" {
		m.Voice = cfg.Models.Voice
	}

	retry := DefaultRetryPolicy()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	restBase := strings.TrimRight(cfg.RESTBaseURL, "/")
	if restBase == "" {
		restBase = defaultRESTBase
	}

	c := &Client{
		models:   m,
		apiKey:   cfg.APIKey,
		restBase: restBase,
		httpc:    &http.Client{Timeout: timeout},
		retry:    retry,
		log:      cfg.Logger.With().Str("component", "genclient").Logger(),
	}

	switch strings.ToLower(cfg.Backend) {
	case "", "gemini":
		gc, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		c.text = &geminiBackend{client: gc, model: m.Text}
	case "openai":
		c.text = newOpenAIBackend(cfg.APIKey, cfg.BaseURL, m.Text, timeout)
	default:
		return nil, fmt.Errorf("unknown text backend %q", cfg.Backend)
	}
	return c, nil
}

// WithModels returns a derived client using the given text model and,
// when imageModel is non-empty, the given image model. The receiver is
// untouched; calls already in flight keep their original models.
func (c *Client) WithModels(textModel, imageModel string) *Client {
	d := *c
	if textModel != "" {
		d.models.Text = textModel
		if gb, ok := c.text.(*geminiBackend); ok {
			d.text = &geminiBackend{client: gb.client, model: textModel}
		} else if ob, ok := c.text.(*openaiBackend); ok {
			d.text = ob.withModel(textModel)
		}
	}
	if imageModel != "" {
		d.models.Image = imageModel
	}
	return &d
}

func (c *Client) ready() error {
	if c == nil || c.text == nil {
		return ErrNotInitialized
	}
	return nil
}

// geminiBackend generates text through the official SDK with a native
// response schema.
type geminiBackend struct {
	client *genai.Client
	model  string
}

func (b *geminiBackend) generate(ctx context.Context, req textRequest) (string, error) {
	model := b.client.GenerativeModel(b.model)
	model.SetTemperature(req.Temperature)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = req.Schema

	cs := model.StartChat()
	cs.History = historyToContents(req.History)
	resp, err := cs.SendMessage(ctx, genai.Text(req.Instruction))
	if err != nil {
		return "", err
	}
	text := firstText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty candidate", ErrMalformedResponse)
	}
	return text, nil
}

func historyToContents(history []models.HistoryEntry) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, h := range history {
		role := "user"
		if h.Role == models.RoleNarrator {
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(h.Text)},
		})
	}
	return out
}

func firstText(r *genai.GenerateContentResponse) string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range r.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

// postREST posts body to the generative-language REST API and decodes the
// response into out. Non-2xx statuses become StatusError so the retry
// predicate can see 429/503.
func (c *Client) postREST(ctx context.Context, model, verb string, body, out any) error {
	endpoint := fmt.Sprintf("%s/models/%s:%s?key=%s",
		c.restBase, url.PathEscape(model), verb, url.QueryEscape(c.apiKey))
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var eresp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&eresp)
		return &StatusError{Code: res.StatusCode, Message: eresp.Error.Message}
	}
	return json.NewDecoder(res.Body).Decode(out)
}
