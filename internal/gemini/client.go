// Package gemini calls the Gemini generateContent endpoint to produce
// patient-friendly summaries and answers from redacted document content.
//
// The client is deliberately narrow: request shape in, text out. Transport
// retries and credential acquisition belong to the HTTP client injected by
// the caller.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"medscan/internal/logger"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.0-flash"

	// Determinism-leaning generation parameters; callers must not assume
	// unbounded output length.
	temperature     = 0.2
	maxOutputTokens = 500

	// Images are re-encoded lossy at a quality balancing payload size
	// against legibility of the scanned text.
	attachmentMIMEType = "image/jpeg"
	attachmentQuality  = 90
)

// Wire types for the generateContent request and response.

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type requestBody struct {
	SystemInstruction content          `json:"systemInstruction"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type responseBody struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Client calls the Gemini API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient injects the transport, including any retry or timeout
// behavior the caller wants.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBaseURL overrides the API endpoint (used in tests).
func WithBaseURL(u string) Option {
	return func(cl *Client) { cl.baseURL = strings.TrimRight(u, "/") }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(cl *Client) { cl.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewClient creates a client. A missing API key is refused up front so a
// batch fails before any page work is wasted.
func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(1), 2),
		log:        logger.WithComponent("gemini"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Summarize sends text and, if present, each image individually attached,
// under the given system instruction, and returns the model's free-form text.
func (c *Client) Summarize(ctx context.Context, text, systemInstruction string, images []image.Image) (string, error) {
	return c.generate(ctx, text, systemInstruction, images)
}

// Answer is the narrower no-image variant used for free-form questions.
func (c *Client) Answer(ctx context.Context, question, systemInstruction string) (string, error) {
	return c.generate(ctx, question, systemInstruction, nil)
}

func (c *Client) generate(ctx context.Context, text, systemInstruction string, images []image.Image) (string, error) {
	const op = "generate"

	if err := c.limiter.Wait(ctx); err != nil {
		return "", WrapClientError(op, err, "rate limiter interrupted")
	}

	userParts := []part{{Text: text}}
	for i, img := range images {
		p, err := imagePart(img)
		if err != nil {
			return "", WrapClientError(op, err, fmt.Sprintf("failed to encode attachment %d", i+1))
		}
		userParts = append(userParts, p)
	}

	body := requestBody{
		SystemInstruction: content{Role: "system", Parts: []part{{Text: systemInstruction}}},
		Contents:          []content{{Role: "user", Parts: userParts}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxOutputTokens,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", WrapClientError(op, err, "failed to encode request")
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", WrapClientError(op, err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug().
		Str("model", c.model).
		Int("text_length", len(text)).
		Int("images", len(images)).
		Msg("Sending generateContent request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", WrapClientError(op, err, "transport failure")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", WrapClientError(op, ErrInvalidResponse, fmt.Sprintf("HTTP status %d", resp.StatusCode))
	}

	var decoded responseBody
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", WrapClientError(op, ErrInvalidResponse, fmt.Sprintf("undecodable body: %v", err))
	}
	if len(decoded.Candidates) == 0 {
		return "", WrapClientError(op, ErrEmptyOutput, "no candidates in response")
	}

	// Concatenate all text parts in case there are multiple.
	var texts []string
	for _, p := range decoded.Candidates[0].Content.Parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	out := strings.TrimSpace(strings.Join(texts, "\n"))
	if out == "" {
		return "", WrapClientError(op, ErrEmptyOutput, "candidate contained no text")
	}
	return out, nil
}

// imagePart re-encodes an image as a lossy inline attachment.
func imagePart(img image.Image) (part, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: attachmentQuality}); err != nil {
		return part{}, err
	}
	return part{
		InlineData: &inlineData{
			MIMEType: attachmentMIMEType,
			Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
		},
	}, nil
}
