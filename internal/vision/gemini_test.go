package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiDescribe(t *testing.T) {
	var gotPath string
	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": "a dog on a beach"}}}},
			},
		})
	}))
	defer srv.Close()

	g := NewGemini("test-key", "gemini-2.0-flash", srv.URL)
	desc, err := g.Describe(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg", "")
	require.NoError(t, err)
	assert.Equal(t, "a dog on a beach", desc)
	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
	require.Len(t, gotBody.Contents, 1)
	require.Len(t, gotBody.Contents[0].Parts, 2)
	assert.Equal(t, "image/jpeg", gotBody.Contents[0].Parts[0].InlineData.MimeType)
}

func TestGeminiDescribeHintReplacesPrompt(t *testing.T) {
	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": "ok"}}}},
			},
		})
	}))
	defer srv.Close()

	g := NewGemini("k", "gemini-2.0-flash", srv.URL)
	_, err := g.Describe(context.Background(), []byte{1}, "image/png", "what breed is this?")
	require.NoError(t, err)
	assert.Equal(t, "what breed is this?", gotBody.Contents[0].Parts[1].Text)
}

func TestGeminiDescribeFailures(t *testing.T) {
	t.Run("empty payload", func(t *testing.T) {
		g := NewGemini("k", "m", "http://localhost:0")
		_, err := g.Describe(context.Background(), nil, "image/png", "")
		assert.Error(t, err)
	})

	t.Run("non-200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()
		g := NewGemini("k", "m", srv.URL)
		_, err := g.Describe(context.Background(), []byte{1}, "image/png", "")
		assert.Error(t, err)
	})

	t.Run("no candidates means no description", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
		}))
		defer srv.Close()
		g := NewGemini("k", "m", srv.URL)
		_, err := g.Describe(context.Background(), []byte{1}, "image/png", "")
		assert.Error(t, err)
	})
}

func TestVideoFramePrompt(t *testing.T) {
	assert.Contains(t, VideoFramePrompt(""), "frame from a video")
	got := VideoFramePrompt("what song is playing?")
	assert.Contains(t, got, "what song is playing?")
	assert.Contains(t, got, "frame from a video")
}
