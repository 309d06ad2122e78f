// Package veo calls the Veo video generation API: submit a long-running
// generation, poll its operation, and download the finished bytes.
package veo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Meet-tatva65/ai-video-maker/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("veo: api key is required")

// Options configures the Veo client.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client performs HTTP calls against the Veo long-running generation API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

// GenerationRequest captures one submission: the prompt, the inline image and
// the fixed output configuration.
type GenerationRequest struct {
	Prompt          string
	ImageBase64     string
	ImageMIME       string
	SampleCount     int
	Resolution      string
	AspectRatio     string
	DurationSeconds int
}

// GeneratedVideo is one result descriptor from a terminal operation.
type GeneratedVideo struct {
	URI string
}

// Operation is the polled state of an in-flight generation.
type Operation struct {
	Name   string
	Done   bool
	Videos []GeneratedVideo
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string       `json:"prompt"`
	Image  *inlineImage `json:"image,omitempty"`
}

type inlineImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type predictParameters struct {
	SampleCount     int    `json:"sampleCount,omitempty"`
	Resolution      string `json:"resolution,omitempty"`
	AspectRatio     string `json:"aspectRatio,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

type operationEnvelope struct {
	Name     string             `json:"name"`
	Done     bool               `json:"done"`
	Error    *operationError    `json:"error,omitempty"`
	Response *operationResponse `json:"response,omitempty"`
}

type operationError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// The API has shipped two layouts for the terminal payload; both are decoded.
type operationResponse struct {
	GenerateVideoResponse *videoResponse   `json:"generateVideoResponse,omitempty"`
	GeneratedVideos       []generatedVideo `json:"generatedVideos,omitempty"`
}

type videoResponse struct {
	GeneratedSamples []generatedVideo `json:"generatedSamples"`
}

type generatedVideo struct {
	Video *videoRef `json:"video"`
}

type videoRef struct {
	URI string `json:"uri"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Status  string `json:"status,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Veo client with sane defaults and injected
// dependencies.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := opts.Model
	if model == "" {
		model = "veo-2.0-generate-001"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
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

// CreateGeneration submits a generation and returns the initial operation
// state. The operation is usually not done yet and must be polled.
func (c *Client) CreateGeneration(ctx context.Context, req GenerationRequest) (*Operation, error) {
	payload := predictRequest{
		Instances: []predictInstance{{
			Prompt: req.Prompt,
		}},
		Parameters: predictParameters{
			SampleCount:     req.SampleCount,
			Resolution:      req.Resolution,
			AspectRatio:     req.AspectRatio,
			DurationSeconds: req.DurationSeconds,
		},
	}
	if req.ImageBase64 != "" {
		payload.Instances[0].Image = &inlineImage{
			BytesBase64Encoded: req.ImageBase64,
			MimeType:           req.ImageMIME,
		}
	}

	var envelope operationEnvelope
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.model))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &envelope); err != nil {
		return nil, err
	}
	op, err := envelope.toOperation()
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("model", c.model).
		Str("operation", op.Name).
		Msg("veo: generation submitted")

	return op, nil
}

// GetGeneration re-queries an operation by name.
func (c *Client) GetGeneration(ctx context.Context, name string) (*Operation, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("veo: operation name is required")
	}

	var envelope operationEnvelope
	if err := c.invoke(ctx, http.MethodGet, "/"+strings.TrimLeft(name, "/"), nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.toOperation()
}

// Download fetches the finished video bytes. The API key is appended to the
// URI as a query parameter; any non-success status is a fetch error carrying
// the transport's status text.
func (c *Client) Download(ctx context.Context, uri string) ([]byte, string, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("veo: create download request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("veo: download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, "", fmt.Errorf("veo: download failed: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("veo: read video: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) invoke(ctx context.Context, method, path string, payload any, out any) error {
	endpoint := c.baseURL + path

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("veo: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("veo: create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("veo: invoke api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("veo: status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("veo: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("veo: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("veo: decode response: %w", err)
	}
	return nil
}

func (e *operationEnvelope) toOperation() (*Operation, error) {
	if e.Error != nil && e.Error.Message != "" {
		return nil, fmt.Errorf("veo: operation failed: %s", e.Error.Message)
	}

	op := &Operation{Name: e.Name, Done: e.Done}
	if e.Response == nil {
		return op, nil
	}

	samples := e.Response.GeneratedVideos
	if len(samples) == 0 && e.Response.GenerateVideoResponse != nil {
		samples = e.Response.GenerateVideoResponse.GeneratedSamples
	}
	for _, sample := range samples {
		if sample.Video == nil || sample.Video.URI == "" {
			continue
		}
		op.Videos = append(op.Videos, GeneratedVideo{URI: sample.Video.URI})
	}
	return op, nil
}

// IsInvalidKey reports whether an error looks like the service rejecting the
// credential. This is a heuristic substring match on the failure text (the
// API reports an unknown key as a "not found" entity), not a guaranteed
// contract.
func IsInvalidKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
