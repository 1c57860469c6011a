package genclient

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubText satisfies the text backend seam for tests that only exercise the
// REST paths.
type stubText struct{}

func (stubText) generate(context.Context, textRequest) (string, error) { return "", nil }

// newRESTClient builds a Client pointed at an httptest server, with retry
// waits replaced by no-ops.
func newRESTClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := DefaultRetryPolicy()
	p.Sleep = func(context.Context, time.Duration) error { return nil }
	p.Jitter = noJitter

	return &Client{
		text:     stubText{},
		models:   defaultModels(),
		apiKey:   "test-key",
		restBase: srv.URL,
		httpc:    srv.Client(),
		retry:    p,
		log:      zerolog.Nop(),
	}
}

func pcm16Bytes(samples ...int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func speechResponseWith(data []byte) restGenerateResponse {
	var resp restGenerateResponse
	resp.Candidates = []struct {
		Content restContent `json:"content"`
	}{{Content: restContent{Parts: []restPart{{
		InlineData: &restBlob{MIMEType: "audio/L16;rate=24000", Data: base64.StdEncoding.EncodeToString(data)},
	}}}}}
	return resp
}

func TestDecodePCM16Normalization(t *testing.T) {
	a := decodePCM16(pcm16Bytes(0, 16384, -32768, 32767), 24000, 1)

	assert.Equal(t, 24000, a.SampleRate)
	require.Len(t, a.Channels, 1)
	require.Len(t, a.Channels[0], 4)
	assert.InDelta(t, 0.0, a.Channels[0][0], 1e-6)
	assert.InDelta(t, 0.5, a.Channels[0][1], 1e-6)
	assert.InDelta(t, -1.0, a.Channels[0][2], 1e-6)
	assert.InDelta(t, 0.99997, a.Channels[0][3], 1e-4)
}

func TestDecodePCM16DeinterleavesStereo(t *testing.T) {
	// frames: (L=100,R=-100), (L=200,R=-200)
	a := decodePCM16(pcm16Bytes(100, -100, 200, -200), 44100, 2)

	require.Len(t, a.Channels, 2)
	require.Len(t, a.Channels[0], 2)
	assert.InDelta(t, 100.0/32768, a.Channels[0][0], 1e-6)
	assert.InDelta(t, 200.0/32768, a.Channels[0][1], 1e-6)
	assert.InDelta(t, -100.0/32768, a.Channels[1][0], 1e-6)
	assert.InDelta(t, -200.0/32768, a.Channels[1][1], 1e-6)
}

// wavFile assembles a minimal RIFF/WAVE container around 16-bit PCM.
func wavFile(sampleRate, channels int, pcm []byte) []byte {
	var buf []byte
	u16 := func(v int) []byte { b := make([]byte, 2); binary.LittleEndian.PutUint16(b, uint16(v)); return b }
	u32 := func(v int) []byte { b := make([]byte, 4); binary.LittleEndian.PutUint32(b, uint32(v)); return b }

	buf = append(buf, []byte("RIFF")...)
	buf = append(buf, u32(36+len(pcm))...)
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	buf = append(buf, u32(16)...)
	buf = append(buf, u16(1)...) // PCM
	buf = append(buf, u16(channels)...)
	buf = append(buf, u32(sampleRate)...)
	buf = append(buf, u32(sampleRate*channels*2)...)
	buf = append(buf, u16(channels*2)...)
	buf = append(buf, u16(16)...)
	buf = append(buf, []byte("data")...)
	buf = append(buf, u32(len(pcm))...)
	buf = append(buf, pcm...)
	return buf
}

func TestDecodeWAV(t *testing.T) {
	raw := wavFile(22050, 2, pcm16Bytes(1000, -1000))
	a, ok := decodeWAV(raw)

	require.True(t, ok)
	assert.Equal(t, 22050, a.SampleRate)
	require.Len(t, a.Channels, 2)
	assert.InDelta(t, 1000.0/32768, a.Channels[0][0], 1e-6)
	assert.InDelta(t, -1000.0/32768, a.Channels[1][0], 1e-6)
}

func TestDecodeWAVRejectsNonPCM(t *testing.T) {
	raw := wavFile(22050, 1, pcm16Bytes(1))
	// flip the format tag to IEEE float
	binary.LittleEndian.PutUint16(raw[20:22], 3)
	_, ok := decodeWAV(raw)
	assert.False(t, ok)
}

func TestDecodeAudioFallsBackToRawPCM(t *testing.T) {
	a := decodeAudio(pcm16Bytes(0, 16384))

	assert.Equal(t, fallbackSampleRate, a.SampleRate)
	require.Len(t, a.Channels, 1)
	assert.InDelta(t, 0.5, a.Channels[0][1], 1e-6)
}

func TestGenerateSpeech(t *testing.T) {
	var gotVoice string
	c := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash-preview-tts:generateContent")
		var req restGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.GenerationConfig)
		assert.Equal(t, []string{"AUDIO"}, req.GenerationConfig.ResponseModalities)
		gotVoice = req.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName
		// narration must arrive stripped of markup
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "A troll blocks the bridge.", req.Contents[0].Parts[0].Text)

		json.NewEncoder(w).Encode(speechResponseWith(pcm16Bytes(0, 16384)))
	})

	audio, err := c.GenerateSpeech(context.Background(), "A **troll** blocks the *bridge*.")
	require.NoError(t, err)
	require.NotNil(t, audio)
	assert.Equal(t, "Charon", gotVoice)
	assert.Equal(t, 24000, audio.SampleRate)
	require.Len(t, audio.Channels, 1)
	assert.InDelta(t, 0.5, audio.Channels[0][1], 1e-6)
}

func TestGenerateSpeechNoAudioPart(t *testing.T) {
	c := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		var resp restGenerateResponse
		resp.Candidates = []struct {
			Content restContent `json:"content"`
		}{{Content: restContent{Parts: []restPart{{Text: "cannot comply"}}}}}
		json.NewEncoder(w).Encode(resp)
	})

	audio, err := c.GenerateSpeech(context.Background(), "hello")
	assert.NoError(t, err)
	assert.Nil(t, audio)
}

func TestGenerateSpeechEmptyTextSkipsCall(t *testing.T) {
	called := false
	c := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	audio, err := c.GenerateSpeech(context.Background(), "  **  ** ")
	assert.NoError(t, err)
	assert.Nil(t, audio)
	assert.False(t, called)
}

func TestGenerateSpeechAuthFailure(t *testing.T) {
	c := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "API key not valid"}})
	})

	_, err := c.GenerateSpeech(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrAuth)
}

func TestGenerateSpeechRetriesOverload(t *testing.T) {
	calls := 0
	c := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(speechResponseWith(pcm16Bytes(100)))
	})

	audio, err := c.GenerateSpeech(context.Background(), "hello")
	require.NoError(t, err)
	require.NotNil(t, audio)
	assert.Equal(t, 2, calls)
}
