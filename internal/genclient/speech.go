package genclient

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// REST request/response shapes shared by the speech and image paths. The
// official Go SDK covers neither audio modalities nor image synthesis, so
// both go straight to the generative-language REST API.

type restBlob struct {
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"` // base64
}

type restPart struct {
	Text       string    `json:"text,omitempty"`
	InlineData *restBlob `json:"inlineData,omitempty"`
}

type restContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []restPart `json:"parts"`
}

type restGenerateRequest struct {
	Contents         []restContent      `json:"contents"`
	GenerationConfig *restGenConfig     `json:"generationConfig,omitempty"`
	SafetySettings   []restSafetySetting `json:"safetySettings,omitempty"`
}

type restGenConfig struct {
	ResponseModalities []string          `json:"responseModalities,omitempty"`
	SpeechConfig       *restSpeechConfig `json:"speechConfig,omitempty"`
}

type restSpeechConfig struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voiceName"`
		} `json:"prebuiltVoiceConfig"`
	} `json:"voiceConfig"`
}

type restSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type restGenerateResponse struct {
	Candidates []struct {
		Content restContent `json:"content"`
	} `json:"candidates"`
}

// Audio is a decoded narration clip: normalized samples in [-1, 1],
// deinterleaved one slice per channel.
type Audio struct {
	SampleRate int
	Channels   [][]float32
}

// Fallback format when the payload carries no parseable container header.
const (
	fallbackSampleRate = 24000
	fallbackChannels   = 1
)

// GenerateSpeech synthesizes narration audio for text using the fixed voice
// preset. Speech is a presentation enhancement: when the service returns no
// inline audio payload the result is (nil, nil), not an error.
func (c *Client) GenerateSpeech(ctx context.Context, text string) (*Audio, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	cleaned := plainText(text)
	if cleaned == "" {
		return nil, nil
	}

	body := restGenerateRequest{
		Contents: []restContent{{Parts: []restPart{{Text: cleaned}}}},
		GenerationConfig: &restGenConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig:       &restSpeechConfig{},
		},
	}
	body.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName = c.models.Voice

	resp, err := withRetry(ctx, c.log, c.retry, "speech", func(ctx context.Context) (*restGenerateResponse, error) {
		var out restGenerateResponse
		if err := c.postREST(ctx, c.models.Speech, "generateContent", body, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		if authError(err) {
			return nil, fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return nil, err
	}

	blob := firstInlineData(resp)
	if blob == nil {
		c.log.Debug().Msg("speech response carried no audio part")
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(blob.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: bad audio base64: %v", ErrMalformedResponse, err)
	}
	return decodeAudio(raw), nil
}

func firstInlineData(r *restGenerateResponse) *restBlob {
	if r == nil {
		return nil
	}
	for _, cand := range r.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				return p.InlineData
			}
		}
	}
	return nil
}

// decodeAudio attempts a container-aware (WAV) decode first and falls back
// to interpreting the bytes as raw 16-bit little-endian PCM at 24 kHz mono.
func decodeAudio(raw []byte) *Audio {
	if a, ok := decodeWAV(raw); ok {
		return a
	}
	return decodePCM16(raw, fallbackSampleRate, fallbackChannels)
}

// decodeWAV handles the one container the service emits: RIFF/WAVE wrapping
// 16-bit PCM. Anything else reports !ok and is treated as raw PCM.
func decodeWAV(raw []byte) (*Audio, bool) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, false
	}
	var (
		sampleRate int
		channels   int
		bits       int
		pcm        []byte
	)
	off := 12
	for off+8 <= len(raw) {
		id := string(raw[off : off+4])
		size := int(binary.LittleEndian.Uint32(raw[off+4 : off+8]))
		body := off + 8
		if body+size > len(raw) {
			break
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, false
			}
			format := int(binary.LittleEndian.Uint16(raw[body : body+2]))
			channels = int(binary.LittleEndian.Uint16(raw[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(raw[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(raw[body+14 : body+16]))
			if format != 1 || bits != 16 {
				return nil, false
			}
		case "data":
			pcm = raw[body : body+size]
		}
		// chunks are word-aligned
		off = body + size + size%2
	}
	if sampleRate == 0 || channels == 0 || pcm == nil {
		return nil, false
	}
	return decodePCM16(pcm, sampleRate, channels), true
}

// decodePCM16 deinterleaves signed 16-bit little-endian samples and
// normalizes them to [-1, 1].
func decodePCM16(pcm []byte, sampleRate, channels int) *Audio {
	if channels < 1 {
		channels = 1
	}
	frames := len(pcm) / 2 / channels
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			idx := (i*channels + ch) * 2
			s := int16(binary.LittleEndian.Uint16(pcm[idx : idx+2]))
			out[ch][i] = float32(s) / 32768
		}
	}
	return &Audio{SampleRate: sampleRate, Channels: out}
}
