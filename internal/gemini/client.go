package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Limit on how much of an error body is read back for diagnostics
const maxErrorBodyBytes = 32 << 10

// ErrNoImage is returned when the model answered but produced no inline image
// payload. Callers treat it as a skipped attempt, not a hard failure.
var ErrNoImage = errors.New("no image data in model response")

// Client calls the generateContent endpoint of a Gemini-style image model.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// New constructs a model client for the given API key and model name
func New(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// ImageRequest is one image generation call
type ImageRequest struct {
	Prompt      string           // Text prompt, already validated non-empty
	AspectRatio string           // e.g. "16:9"
	ImageSize   string           // e.g. "1K", "2K", "4K"
	References  []ReferenceImage // Optional reference images, sent before the prompt
}

// ReferenceImage is one inline reference image
type ReferenceImage struct {
	MimeType string
	Base64   string
}

// Wire schema for generateContent. The response is decoded strictly into these
// types; anything that does not carry an inline image part is treated as empty.
type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

type generationConfig struct {
	ImageConfig *imageConfig `json:"imageConfig,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type candidate struct {
	Content *content `json:"content"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

// GenerateImage issues one generateContent call and returns the first inline
// image payload as decoded bytes plus its mime type. A response without an
// image yields ErrNoImage.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) ([]byte, string, error) {
	parts := make([]part, 0, len(req.References)+1)
	// Reference images go first, then the text prompt
	for _, ref := range req.References {
		parts = append(parts, part{InlineData: &inlineData{MimeType: ref.MimeType, Data: ref.Base64}})
	}
	parts = append(parts, part{Text: req.Prompt})

	body := generateRequest{
		Contents: []content{{Parts: parts}},
		GenerationConfig: &generationConfig{
			ImageConfig: &imageConfig{
				AspectRatio: req.AspectRatio,
				ImageSize:   req.ImageSize,
			},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, "", fmt.Errorf("model returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, "", fmt.Errorf("decode response: %w", err)
	}

	// Strict extraction: first inline image part wins, anything else is no image
	mimeType, data := firstInlineImage(decoded)
	if data == "" {
		return nil, "", ErrNoImage
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", fmt.Errorf("decode image payload: %w", err)
	}
	return raw, mimeType, nil
}

// firstInlineImage scans candidates in order and returns the first inline image
// payload found. Fails closed: unexpected shapes produce an empty result.
func firstInlineImage(resp generateResponse) (mimeType, data string) {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				mime := p.InlineData.MimeType
				if mime == "" {
					mime = "image/png"
				}
				return mime, p.InlineData.Data
			}
		}
	}
	return "", ""
}
