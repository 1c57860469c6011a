package genclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateImageImagenPath(t *testing.T) {
	c := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "imagen-3.0-generate-002:predict")
		var req imagenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Instances, 1)
		assert.Contains(t, req.Instances[0].Prompt, "a dragon over the keep")
		assert.Equal(t, 1, req.Parameters.SampleCount)
		assert.Equal(t, "16:9", req.Parameters.AspectRatio)
		assert.Equal(t, "image/jpeg", req.Parameters.OutputMimeType)

		var resp imagenResponse
		resp.Predictions = []struct {
			BytesBase64Encoded string `json:"bytesBase64Encoded"`
			MimeType           string `json:"mimeType"`
		}{{BytesBase64Encoded: "aGVsbG8=", MimeType: "image/jpeg"}}
		json.NewEncoder(w).Encode(resp)
	})

	uri, err := c.GenerateImage(context.Background(), "a dragon over the keep")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", uri)
}

func TestGenerateImageImagenNoPrediction(t *testing.T) {
	c := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(imagenResponse{})
	})

	uri, err := c.GenerateImage(context.Background(), "a dragon")
	assert.NoError(t, err)
	assert.Empty(t, uri)
}

func TestGenerateImageMultimodalPath(t *testing.T) {
	c := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-2.0-flash-exp:generateContent")
		var req restGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.GenerationConfig)
		assert.ElementsMatch(t, []string{"TEXT", "IMAGE"}, req.GenerationConfig.ResponseModalities)
		require.Len(t, req.SafetySettings, 4)
		for _, s := range req.SafetySettings {
			assert.Equal(t, "BLOCK_NONE", s.Threshold)
		}

		var resp restGenerateResponse
		resp.Candidates = []struct {
			Content restContent `json:"content"`
		}{{Content: restContent{Parts: []restPart{
			{Text: "Here is your illustration."},
			{InlineData: &restBlob{MIMEType: "image/png", Data: "cGluZw=="}},
		}}}}
		json.NewEncoder(w).Encode(resp)
	})
	c.models.Image = "gemini-2.0-flash-exp"

	uri, err := c.GenerateImage(context.Background(), "a dragon")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,cGluZw==", uri)
}

func TestGenerateImageMultimodalNoImagePart(t *testing.T) {
	c := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		var resp restGenerateResponse
		resp.Candidates = []struct {
			Content restContent `json:"content"`
		}{{Content: restContent{Parts: []restPart{{Text: "only words"}}}}}
		json.NewEncoder(w).Encode(resp)
	})
	c.models.Image = "gemini-2.0-flash-exp"

	uri, err := c.GenerateImage(context.Background(), "a dragon")
	assert.NoError(t, err)
	assert.Empty(t, uri)
}

func TestGenerateImageAppendsStyleSuffix(t *testing.T) {
	var gotPrompt string
	c := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req imagenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Instances[0].Prompt
		json.NewEncoder(w).Encode(imagenResponse{})
	})

	_, err := c.GenerateImage(context.Background(), "a dragon")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gotPrompt, "a dragon"))
	assert.Greater(t, len(gotPrompt), len("a dragon"), "style suffix should be appended")
}

func TestIsImageSynthesisModel(t *testing.T) {
	assert.True(t, isImageSynthesisModel("imagen-3.0-generate-002"))
	assert.True(t, isImageSynthesisModel("Imagen-4"))
	assert.False(t, isImageSynthesisModel("gemini-2.0-flash-exp"))
}
