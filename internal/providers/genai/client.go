package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/vision"
)

const (
	defaultBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel     = "gemini-2.5-flash"
	maxOutputTokens  = 2000
	maxErrorBodySize = 4 << 10

	defaultMaxAttempts = 3
	defaultRetryDelay  = 500 * time.Millisecond
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
	// MaxAttempts bounds calls per image when Gemini answers 429 or 5xx.
	MaxAttempts int
	// RetryDelay is the first backoff; it doubles after each retry.
	RetryDelay time.Duration
}

// Client implements vision.Capability on top of the Gemini generateContent
// REST endpoint. A client without an API key is valid and reports itself
// unavailable.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
	attempts   int
	retryDelay time.Duration
}

// statusError is a non-2xx reply from the API.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("gemini status %d", e.status)
	}
	return fmt.Sprintf("gemini status %d: %s", e.status, e.message)
}

func (e *statusError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= http.StatusInternalServerError
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	CandidateCount   int    `json:"candidateCount,omitempty"`
	MaxOutputTokens  int    `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates     []geminiCandidate `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("genai: invalid base url: %w", err)
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		l := infra.Logger(zerolog.New(io.Discard))
		logger = &l
	}

	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
		attempts:   attempts,
		retryDelay: delay,
	}, nil
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// Available reports whether an API key is configured.
func (c *Client) Available() bool {
	return c != nil && c.apiKey != ""
}

// DescribeImage sends the image inline together with the prompt and returns
// the concatenated text of the first candidate.
func (c *Client) DescribeImage(ctx context.Context, req vision.Request) (string, error) {
	if !c.Available() {
		return "", domain.ErrVisionUnavailable
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{
					MimeType: req.MimeType,
					Data:     base64.StdEncoding.EncodeToString(req.Image),
				}},
				{Text: req.Prompt},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{
			CandidateCount:   1,
			MaxOutputTokens:  maxOutputTokens,
			ResponseMimeType: "application/json",
		},
	}

	var response geminiGenerateContentResponse
	if err := c.generate(ctx, payload, &response); err != nil {
		c.logger.Warn().Err(err).Str("model", c.model).Msg("genai: describe image failed")
		return "", err
	}

	if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini blocked request: %s", response.PromptFeedback.BlockReason)
	}
	text := extractText(response)
	if text == "" {
		return "", errors.New("gemini returned no text")
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("reply_bytes", len(text)).
		Msg("genai: described image")
	return text, nil
}

func extractText(resp geminiGenerateContentResponse) string {
	for _, candidate := range resp.Candidates {
		var b strings.Builder
		for _, part := range candidate.Content.Parts {
			b.WriteString(part.Text)
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			return text
		}
	}
	return ""
}

// generate calls generateContent, backing off on rate limits and server
// errors until the attempt budget or the context runs out.
func (c *Client) generate(ctx context.Context, payload geminiGenerateContentRequest, out *geminiGenerateContentResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	endpoint := c.baseURL + "/models/" + url.PathEscape(c.model) + ":generateContent"

	delay := c.retryDelay
	for attempt := 1; ; attempt++ {
		err = c.post(ctx, endpoint, body, out)
		var se *statusError
		if err == nil || !errors.As(err, &se) || !se.retryable() || attempt >= c.attempts {
			return err
		}
		c.logger.Debug().Int("attempt", attempt).Int("status", se.status).Dur("backoff", delay).Msg("genai: retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		se := &statusError{status: resp.StatusCode, message: strings.TrimSpace(string(data))}
		var apiErr geminiErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			se.message = apiErr.Error.Message
		}
		return se
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

var _ vision.Capability = (*Client)(nil)
