// Package qwen implements vision.Capability on the DashScope Qwen-VL
// multimodal generation endpoint.
package qwen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/vision"
)

const (
	defaultBaseURL   = "https://dashscope-intl.aliyuncs.com/api/v1"
	defaultModel     = "qwen-vl-max"
	maxErrorBodySize = 4 << 10
)

// Options configures the DashScope client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client describes images through Qwen-VL. A client without an API key is
// valid and reports itself unavailable.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

type generationRequest struct {
	Model      string           `json:"model"`
	Input      generationInput  `json:"input"`
	Parameters generationParams `json:"parameters"`
}

type generationInput struct {
	Messages []generationMessage `json:"messages"`
}

type generationMessage struct {
	Role    string              `json:"role"`
	Content []generationContent `json:"content"`
}

type generationContent struct {
	Image string `json:"image,omitempty"`
	Text  string `json:"text,omitempty"`
}

type generationParams struct {
	ResultFormat string `json:"result_format,omitempty"`
}

type generationResponse struct {
	Output struct {
		Choices []struct {
			Message struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	} `json:"output"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
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
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

func (c *Client) Available() bool {
	return c != nil && c.apiKey != ""
}

// DescribeImage sends the image as a data URI followed by the prompt and
// returns the text of the first choice.
func (c *Client) DescribeImage(ctx context.Context, req vision.Request) (string, error) {
	if !c.Available() {
		return "", domain.ErrVisionUnavailable
	}
	mime := strings.TrimSpace(req.MimeType)
	if mime == "" {
		mime = "image/png"
	}
	payload := generationRequest{
		Model: c.model,
		Input: generationInput{
			Messages: []generationMessage{{
				Role: "user",
				Content: []generationContent{
					{Image: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(req.Image)},
					{Text: req.Prompt},
				},
			}},
		},
		Parameters: generationParams{ResultFormat: "message"},
	}

	endpoint := c.baseURL + "/services/aigc/multimodal-generation/generation"
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("qwen: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("qwen: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("qwen: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Message != "" {
			return "", fmt.Errorf("qwen: %s (%s)", detail.Message, detail.Code)
		}
		return "", fmt.Errorf("qwen: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded generationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("qwen: decode response: %w", err)
	}
	if decoded.Code != "" {
		return "", fmt.Errorf("qwen: %s (%s)", decoded.Message, decoded.Code)
	}
	text := firstText(decoded)
	if text == "" {
		return "", errors.New("qwen: empty reply")
	}
	c.logger.Debug().
		Str("model", c.model).
		Str("request_id", decoded.RequestID).
		Int("reply_bytes", len(text)).
		Msg("qwen: described image")
	return text, nil
}

func firstText(resp generationResponse) string {
	for _, choice := range resp.Output.Choices {
		var b strings.Builder
		for _, content := range choice.Message.Content {
			b.WriteString(content.Text)
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			return text
		}
	}
	return ""
}

var _ vision.Capability = (*Client)(nil)
