package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	tagsPath     = "/api/tags"
	generatePath = "/api/generate"

	DefaultProbeTimeout    = 5 * time.Second
	DefaultGenerateTimeout = 120 * time.Second
	DefaultTemperature     = 0.3
	DefaultTopP            = 0.9

	// NoSummaryFallback is returned as the summary when the backend answers
	// 200 without a response field. A documented default, not a parsing
	// shortcut.
	NoSummaryFallback = "No summary generated."
)

// Options tunes a Client. Zero values fall back to the defaults above.
type Options struct {
	ProbeTimeout    time.Duration
	GenerateTimeout time.Duration
	Temperature     float64
	TopP            float64
}

// Client talks to an Ollama-compatible inference backend. Probe calls
// (IsReachable, ListModels) never return errors; generate calls convert
// every transport fault into a typed failure.
type Client struct {
	baseURL        string
	probeClient    *http.Client
	generateClient *http.Client
	temperature    float64
	topP           float64
	log            *slog.Logger
}

func NewClient(baseURL string, opts Options, log *slog.Logger) *Client {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = DefaultGenerateTimeout
	}
	if opts.Temperature == 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = DefaultTopP
	}

	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		probeClient:    &http.Client{Timeout: opts.ProbeTimeout},
		generateClient: &http.Client{Timeout: opts.GenerateTimeout},
		temperature:    opts.Temperature,
		topP:           opts.TopP,
		log:            log,
	}
}

type modelTag struct {
	Name string `json:"name"`
}

type tagsResponse struct {
	Models []modelTag `json:"models"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response *string `json:"response"`
}

// IsReachable reports whether the backend answers the listing endpoint with
// HTTP 200 within the probe timeout. Any transport fault yields false.
func (c *Client) IsReachable(ctx context.Context) bool {
	resp, err := c.getTags(ctx)
	if err != nil {
		c.log.WarnContext(ctx, "Backend is not reachable",
			"baseURL", c.baseURL,
			"error", err)

		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// ListModels returns the model names advertised by the backend, in listing
// order. Any failure or malformed body yields nil; an empty result is the
// error signal.
func (c *Client) ListModels(ctx context.Context) []string {
	resp, err := c.getTags(ctx)
	if err != nil {
		c.log.WarnContext(ctx, "Failed to list models",
			"baseURL", c.baseURL,
			"error", err)

		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		c.log.WarnContext(ctx, "Malformed model listing",
			"baseURL", c.baseURL,
			"error", err)

		return nil
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}

	return names
}

// Generate issues a single synchronous, non-streaming inference request and
// returns the generated summary text. No automatic retry is performed.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	payload := generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: c.temperature,
			TopP:        c.topP,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+generatePath,
		bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := c.generateClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", &TimeoutError{Timeout: c.generateClient.Timeout}
		}

		return "", &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &BackendError{StatusCode: resp.StatusCode}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return "", &TimeoutError{Timeout: c.generateClient.Timeout}
		}

		return "", &NetworkError{Err: err}
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", &BackendError{
			StatusCode: resp.StatusCode,
			Reason:     "unparsable response body",
		}
	}

	c.log.InfoContext(ctx, "Generate call finished",
		"model", model,
		"promptChars", len(prompt),
		"durationSeconds", time.Since(start).Seconds())

	if gr.Response == nil {
		return NoSummaryFallback, nil
	}

	return *gr.Response, nil
}

func (c *Client) getTags(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+tagsPath,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.probeClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	return resp, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
