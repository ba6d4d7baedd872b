// Package gemini runs structured document extraction through the Gemini
// API, passing the raw PDF bytes inline alongside the extraction prompt.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// tokenPayload is the expected JSON shape stored in SSM for the API token.
type tokenPayload struct {
	Token string `json:"token"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client extracts structured data from PDF documents via Gemini. The API
// key and model name come from the parameter store on first use and are
// reused for the lifetime of the process.
type Client struct {
	getter      Getter
	paramPrefix string

	initOnce sync.Once
	genai    *genai.Client
	model    string
	initErr  error
}

// NewClient creates a Client backed by the given paramstore.Getter.
func NewClient(ps Getter, paramPrefix string) (*Client, error) {
	if ps == nil {
		return nil, errors.New("gemini: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("gemini: parameter prefix must not be empty")
	}
	return &Client{getter: ps, paramPrefix: paramPrefix}, nil
}

func (c *Client) init(ctx context.Context) error {
	c.initOnce.Do(func() {
		key, err := c.fetchAPIKey(ctx)
		if err != nil {
			c.initErr = err
			return
		}
		model, err := c.getter.GetParameter(ctx, c.paramPrefix+"/config/gemini_model")
		if err != nil {
			c.initErr = fmt.Errorf("gemini: load model name: %w", err)
			return
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			c.initErr = fmt.Errorf("gemini: create client: %w", err)
			return
		}
		c.genai = client
		c.model = strings.TrimSpace(model)
	})
	return c.initErr
}

// Extract sends the prompt, with the document attached inline when pdf is
// non-nil, and returns the model's text response.
func (c *Client) Extract(ctx context.Context, prompt string, pdf []byte) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("gemini: prompt must not be empty")
	}
	if err := c.init(ctx); err != nil {
		return "", err
	}

	parts := make([]*genai.Part, 0, 2)
	if len(pdf) > 0 {
		parts = append(parts, genai.NewPartFromBytes(pdf, "application/pdf"))
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	resp, err := c.genai.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

func (c *Client) fetchAPIKey(ctx context.Context) (string, error) {
	raw, err := c.getter.GetParameter(ctx, c.paramPrefix+"/gemini-api-token")
	if err != nil {
		return "", fmt.Errorf("gemini: fetch token from paramstore: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("gemini: unmarshal paramstore token value as JSON: %w", err)
	}
	if tp.Token == "" {
		return "", errors.New("gemini: API token is empty")
	}
	return tp.Token, nil
}
