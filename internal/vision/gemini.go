// Package vision describes user-shared media through the Google Generative
// Language REST API.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the Generative Language API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

const defaultPrompt = "Analyze this image in detail. Describe what you see, including any people, objects, activities, setting, colors, mood, text, and any other relevant details. Be specific and accurate."

const videoFramePrompt = "This is a frame from a video. Please describe what you see in detail."

// Describer returns a natural-language description of media bytes, or an
// error when the media could not be described. An empty description is a
// failure, never silently passed through.
type Describer interface {
	Describe(ctx context.Context, data []byte, mimeType, hint string) (string, error)
}

// Gemini is a Describer backed by the Gemini vision model.
type Gemini struct {
	client *resty.Client
	model  string
	apiKey string
}

// NewGemini builds a vision client. baseURL may be empty for the public API.
func NewGemini(apiKey, model, baseURL string) *Gemini {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(60 * time.Second)
	return &Gemini{client: c, model: model, apiKey: apiKey}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Describe sends the media inline with a description prompt. A hint, when
// present, replaces the default prompt so the description answers the user's
// actual question about the media.
func (g *Gemini) Describe(ctx context.Context, data []byte, mimeType, hint string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("vision: empty media payload")
	}
	prompt := hint
	if prompt == "" {
		prompt = defaultPrompt
	}

	body := generateRequest{Contents: []content{{Parts: []part{
		{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
		{Text: prompt},
	}}}}

	var out generateResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(&body).
		SetResult(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.model))
	if err != nil {
		return "", fmt.Errorf("vision request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("vision status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Error != nil {
		return "", fmt.Errorf("vision error: %s", out.Error.Message)
	}
	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				return p.Text, nil
			}
		}
	}
	// A well-formed reply with no text usually means a safety block.
	return "", fmt.Errorf("vision: no description produced")
}

// VideoFramePrompt composes the prompt for describing a frame pulled from a
// video, preserving the user's message when one was attached.
func VideoFramePrompt(userMessage string) string {
	if userMessage == "" {
		return videoFramePrompt
	}
	return userMessage + "\n\nNote: This is a frame from a video."
}
