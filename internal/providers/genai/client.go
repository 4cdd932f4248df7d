// Package genai is a small REST client for the Gemini generative language
// API. Clients are transient: a Factory resolves the credential and builds a
// fresh Client at the start of every remote call.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"postergen/internal/infra"
	"postergen/internal/infra/credentials"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const (
	// DefaultCallTimeout bounds one JSON API round trip.
	DefaultCallTimeout = 120 * time.Second
	// DefaultDownloadTimeout bounds fetching a finished file, which can be a
	// large mp4 on a slow link.
	DefaultDownloadTimeout = 10 * time.Minute
)

// Options controls how clients are configured.
type Options struct {
	Credentials credentials.Source
	BaseURL     string
	HTTPClient  *http.Client
	Logger      *infra.Logger
	// CallTimeout and DownloadTimeout default to DefaultCallTimeout and
	// DefaultDownloadTimeout. They are applied per request, so HTTPClient
	// should carry no Timeout of its own.
	CallTimeout     time.Duration
	DownloadTimeout time.Duration
}

// Factory hands out per-call clients. It holds no credential itself.
type Factory struct {
	creds           credentials.Source
	baseURL         string
	httpClient      *http.Client
	logger          *infra.Logger
	callTimeout     time.Duration
	downloadTimeout time.Duration
}

// Client is bound to one resolved API key and must not outlive the call it
// was built for.
type Client struct {
	apiKey          string
	baseURL         string
	httpClient      *http.Client
	logger          *infra.Logger
	callTimeout     time.Duration
	downloadTimeout time.Duration
}

// NewFactory constructs a factory with sane defaults. Callers may provide a
// nil HTTP client; a reusable one will be created.
func NewFactory(opts Options) (*Factory, error) {
	if opts.Credentials == nil {
		return nil, fmt.Errorf("genai: credential source is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	callTimeout := opts.CallTimeout
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	downloadTimeout := opts.DownloadTimeout
	if downloadTimeout <= 0 {
		downloadTimeout = DefaultDownloadTimeout
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Factory{
		creds:           opts.Credentials,
		baseURL:         baseURL,
		httpClient:      client,
		logger:          logger,
		callTimeout:     callTimeout,
		downloadTimeout: downloadTimeout,
	}, nil
}

// Client resolves the current credential and returns a client bound to it.
func (f *Factory) Client(ctx context.Context) (*Client, error) {
	key, err := f.creds.APIKey(ctx)
	if err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, credentials.ErrMissingAPIKey
	}
	return &Client{
		apiKey:          key,
		baseURL:         f.baseURL,
		httpClient:      f.httpClient,
		logger:          f.logger,
		callTimeout:     f.callTimeout,
		downloadTimeout: f.downloadTimeout,
	}, nil
}

// GenerateContent calls models/{model}:generateContent.
func (c *Client) GenerateContent(ctx context.Context, model string, req GenerateContentRequest) (*GenerateContentResponse, error) {
	var out GenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(model))
	if err := c.invoke(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("model", model).
		Int("candidates", len(out.Candidates)).
		Msg("genai: content generated")
	return &out, nil
}

// PredictLongRunning submits a long-running job and returns its operation.
func (c *Client) PredictLongRunning(ctx context.Context, model string, req PredictRequest) (*Operation, error) {
	var out Operation
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(model))
	if err := c.invoke(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	if out.Name == "" {
		return nil, fmt.Errorf("genai: operation name missing from submit response")
	}
	c.logger.Debug().
		Str("model", model).
		Str("operation", out.Name).
		Msg("genai: long-running job submitted")
	return &out, nil
}

// GetOperation fetches the current state of a long-running operation.
func (c *Client) GetOperation(ctx context.Context, name string) (*Operation, error) {
	var out Operation
	if err := c.invoke(ctx, http.MethodGet, "/"+strings.TrimLeft(name, "/"), nil, &out); err != nil {
		return nil, err
	}
	if out.Name == "" {
		out.Name = name
	}
	return &out, nil
}

// Download fetches a generated file. The API key travels as a query
// parameter because result URIs are served outside the JSON API.
func (c *Client) Download(ctx context.Context, uri string) ([]byte, string, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", decodeAPIError(resp)
	}
	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	return blob, resp.Header.Get("Content-Type"), nil
}

func (c *Client) invoke(ctx context.Context, method, path string, payload any, out any) error {
	endpoint := c.baseURL + path
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	switch {
	case e.Status != "" && e.Message != "":
		return fmt.Sprintf("gemini status %d: %s: %s", e.StatusCode, e.Status, e.Message)
	case e.Message != "":
		return fmt.Sprintf("gemini status %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("gemini status %d", e.StatusCode)
	}
}

// HTTPStatus exposes the status code to the failure classifier.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

type errorResponse struct {
	Error Status `json:"error"`
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var decoded errorResponse
	if err := json.Unmarshal(data, &decoded); err == nil && decoded.Error.Message != "" {
		apiErr.Status = decoded.Error.Status
		apiErr.Message = decoded.Error.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(data))
	return apiErr
}

// DecodeInline returns the bytes of an inline data part.
func DecodeInline(b *Blob) ([]byte, error) {
	if b == nil || b.Data == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(b.Data)
	if err != nil {
		return nil, fmt.Errorf("decode inline data: %w", err)
	}
	return data, nil
}
