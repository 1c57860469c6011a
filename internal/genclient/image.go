package genclient

import (
	"context"
	"fmt"
	"strings"
)

// Illustration is best-effort: a session must never die because a picture
// could not be drawn. "No image in the response" is ("", nil); callers log
// transport errors and degrade the same way.

type imagenRequest struct {
	Instances []struct {
		Prompt string `json:"prompt"`
	} `json:"instances"`
	Parameters struct {
		SampleCount    int    `json:"sampleCount"`
		AspectRatio    string `json:"aspectRatio"`
		OutputMimeType string `json:"outputMimeType"`
	} `json:"parameters"`
}

type imagenResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// relaxedSafety permits the fantasy-combat imagery the narrator routinely
// asks for; the default thresholds reject most battle scenes outright.
var relaxedSafety = []restSafetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
}

// GenerateImage renders an illustration for prompt and returns it as a data
// URI, or "" when no image could be produced. The request shape depends on
// the configured model family: image-synthesis-only models use the predict
// endpoint, multimodal chat models embed the prompt in a generateContent
// call and the first inline image part wins.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	styled := prompt + imageStyleSuffix
	if isImageSynthesisModel(c.models.Image) {
		return c.imagenGenerate(ctx, styled)
	}
	return c.multimodalGenerate(ctx, styled)
}

func isImageSynthesisModel(model string) bool {
	return strings.Contains(strings.ToLower(model), "imagen")
}

func (c *Client) imagenGenerate(ctx context.Context, prompt string) (string, error) {
	var body imagenRequest
	body.Instances = append(body.Instances, struct {
		Prompt string `json:"prompt"`
	}{Prompt: prompt})
	body.Parameters.SampleCount = 1
	body.Parameters.AspectRatio = "16:9"
	body.Parameters.OutputMimeType = "image/jpeg"

	resp, err := withRetry(ctx, c.log, c.retry, "image_predict", func(ctx context.Context) (*imagenResponse, error) {
		var out imagenResponse
		if err := c.postREST(ctx, c.models.Image, "predict", body, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return "", err
	}
	if len(resp.Predictions) == 0 || resp.Predictions[0].BytesBase64Encoded == "" {
		c.log.Debug().Msg("image predict response carried no prediction")
		return "", nil
	}
	mime := resp.Predictions[0].MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	return dataURI(mime, resp.Predictions[0].BytesBase64Encoded), nil
}

func (c *Client) multimodalGenerate(ctx context.Context, prompt string) (string, error) {
	body := restGenerateRequest{
		Contents: []restContent{{Parts: []restPart{{Text: prompt}}}},
		GenerationConfig: &restGenConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
		SafetySettings: relaxedSafety,
	}
	resp, err := withRetry(ctx, c.log, c.retry, "image_chat", func(ctx context.Context) (*restGenerateResponse, error) {
		var out restGenerateResponse
		if err := c.postREST(ctx, c.models.Image, "generateContent", body, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return "", err
	}
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && strings.HasPrefix(p.InlineData.MIMEType, "image/") && p.InlineData.Data != "" {
				return dataURI(p.InlineData.MIMEType, p.InlineData.Data), nil
			}
		}
	}
	c.log.Debug().Msg("multimodal response carried no image part")
	return "", nil
}

func dataURI(mime, b64 string) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, b64)
}
