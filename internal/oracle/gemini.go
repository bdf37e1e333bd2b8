package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// GeminiConfig configures the generateContent endpoint.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Gemini calls Google's generateContent REST endpoint.
type Gemini struct {
	cfg GeminiConfig
}

func NewGemini(cfg GeminiConfig) *Gemini {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	return &Gemini{cfg: cfg}
}

func (g *Gemini) Generate(ctx context.Context, req Request) (Reply, error) {
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		return Reply{}, errors.New("gemini api key is not configured")
	}

	body, err := json.Marshal(map[string]any{
		"systemInstruction": map[string]any{
			"parts": []map[string]string{{"text": req.System}},
		},
		"contents": []map[string]any{{
			"role":  "user",
			"parts": []map[string]string{{"text": req.Prompt}},
		}},
		"generationConfig": map[string]any{
			"temperature": req.Temperature,
		},
	})
	if err != nil {
		return Reply{}, fmt.Errorf("marshal generate request: %w", err)
	}

	url := strings.TrimRight(g.cfg.BaseURL, "/") + "/models/" + g.cfg.Model + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// The key travels only in this header and is never echoed in errors.
	httpReq.Header.Set("x-goog-api-key", g.cfg.APIKey)

	res, err := g.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return Reply{}, fmt.Errorf("generate request failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return Reply{}, fmt.Errorf("read generate response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := gjson.GetBytes(data, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(data[:min(len(data), 512)]))
		}
		return Reply{}, fmt.Errorf("generate request status %d: %s", res.StatusCode, msg)
	}
	if !gjson.ValidBytes(data) {
		return Reply{}, errors.New("generate response is not valid json")
	}

	if gjson.GetBytes(data, "promptFeedback.blockReason").Exists() {
		return Reply{Blocked: true}, nil
	}
	if gjson.GetBytes(data, "candidates.0.finishReason").String() == "SAFETY" {
		return Reply{Blocked: true}, nil
	}

	var text strings.Builder
	for _, part := range gjson.GetBytes(data, "candidates.0.content.parts.#.text").Array() {
		text.WriteString(part.String())
	}
	if text.Len() == 0 {
		return Reply{}, errors.New("generate response has no text")
	}
	return Reply{Text: text.String()}, nil
}
