package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"postergen/internal/domain"
	"postergen/internal/infra"
	"postergen/internal/infra/credentials"
	"postergen/internal/retry"
)

type OpenAIOptions struct {
	Credentials   credentials.Source
	Model         string
	BaseURL       string
	Organization  string
	HTTPClient    *http.Client
	Retry         *retry.Executor
	DefaultLocale string
	Logger        *infra.Logger
	OnWarning     func(reason, detail string)
}

type OpenAIRefiner struct {
	creds         credentials.Source
	model         string
	baseURL       string
	organization  string
	client        *http.Client
	retry         *retry.Executor
	defaultLocale string
	logger        *infra.Logger
}

const openAIDefaultTimeout = 30 * time.Second

const defaultOpenAIModel = "gpt-4o-mini"

var openAIModelCanonical = map[string]string{
	"gpt-4o":      "gpt-4o",
	"gpt-4o-mini": "gpt-4o-mini",
}

var openAIModelAliases = map[string]string{
	"gpt4o":                  "gpt-4o",
	"gpt4o-mini":             "gpt-4o-mini",
	"gpt4omini":              "gpt-4o-mini",
	"gpt-4o-mini-2024-07-18": "gpt-4o-mini",
	"gpt-4o-2024-08-06":      "gpt-4o",
}

type openAIChatRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *openAIFormat   `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIFormat struct {
	Type       string            `json:"type"`
	JSONSchema *openAIJSONSchema `json:"json_schema,omitempty"`
}

type openAIJSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// openAIError is a non-2xx answer from the chat completions endpoint.
type openAIError struct {
	StatusCode int
	Message    string
}

func (e *openAIError) Error() string {
	return fmt.Sprintf("openai status %d: %s", e.StatusCode, e.Message)
}

func (e *openAIError) HTTPStatus() int { return e.StatusCode }

func NewOpenAIRefiner(opts OpenAIOptions) (*OpenAIRefiner, error) {
	if opts.Credentials == nil {
		return nil, errors.New("openai credential source is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	modelInput := strings.TrimSpace(opts.Model)
	normalizedModel, normalizationReason := normalizeOpenAIModel(modelInput)
	if normalizationReason != "" && opts.OnWarning != nil {
		detail := fmt.Sprintf("requested=%s resolved=%s", coalesce(modelInput, defaultOpenAIModel), normalizedModel)
		opts.OnWarning("model_"+normalizationReason, detail)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	executor := opts.Retry
	if executor == nil {
		executor = retry.New(logger)
	}
	return &OpenAIRefiner{
		creds:         opts.Credentials,
		model:         normalizedModel,
		baseURL:       baseURL,
		organization:  strings.TrimSpace(opts.Organization),
		client:        client,
		retry:         executor,
		defaultLocale: opts.DefaultLocale,
		logger:        logger,
	}, nil
}

func (o *OpenAIRefiner) Refine(ctx context.Context, rawText string) (domain.StructuredContent, error) {
	if strings.TrimSpace(rawText) == "" {
		return domain.StructuredContent{}, emptyInput()
	}
	payload := openAIChatRequest{
		Model:       o.model,
		Temperature: 0.6,
		ResponseFormat: &openAIFormat{
			Type: "json_schema",
			JSONSchema: &openAIJSONSchema{
				Name:   "poster_content",
				Strict: true,
				Schema: openAIContentSchema(),
			},
		},
		Messages: []openAIMessage{
			{Role: "system", Content: "You are a helpful marketing copy assistant that only responds with valid JSON."},
			{Role: "user", Content: buildRefinePrompt(rawText, LocaleFromContext(ctx, o.defaultLocale))},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.StructuredContent{}, fmt.Errorf("marshal request: %w", err)
	}
	return retry.Do(ctx, o.retry, "refine", func(ctx context.Context) (domain.StructuredContent, error) {
		text, err := o.complete(ctx, body)
		if err != nil {
			return domain.StructuredContent{}, err
		}
		content, err := decodeContent(text)
		if err != nil {
			o.logger.Warn().
				Err(err).
				Str("provider", openAIProviderName).
				Str("model", o.model).
				Msg("prompt: unusable refinement payload")
			return domain.StructuredContent{}, err
		}
		return content, nil
	})
}

func (o *OpenAIRefiner) complete(ctx context.Context, body []byte) (string, error) {
	apiKey, err := o.creds.APIKey(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(apiKey) == "" {
		return "", errors.New("openai api key is not configured")
	}
	endpoint := fmt.Sprintf("%s/chat/completions", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+strings.TrimSpace(apiKey))
	if o.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", o.organization)
	}
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("invoke openai: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var decoded openAIErrorResponse
		msg := strings.TrimSpace(string(data))
		if err := json.Unmarshal(data, &decoded); err == nil && decoded.Error.Message != "" {
			msg = coalesce(decoded.Error.Code, decoded.Error.Type) + ": " + decoded.Error.Message
		}
		return "", &openAIError{StatusCode: resp.StatusCode, Message: msg}
	}
	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", rephrase(errors.New("no choices"))
	}
	if refusal := strings.TrimSpace(out.Choices[0].Message.Refusal); refusal != "" {
		return "", rephrase(errors.New(refusal))
	}
	return out.Choices[0].Message.Content, nil
}

func openAIContentSchema() map[string]any {
	props := make(map[string]any, len(fieldOrder))
	for _, name := range fieldOrder {
		props[name] = map[string]any{"type": "string", "description": fieldDescriptions[name]}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             append([]string(nil), fieldOrder...),
		"additionalProperties": false,
	}
}

var _ Refiner = (*OpenAIRefiner)(nil)

func normalizeOpenAIModel(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return defaultOpenAIModel, ""
	}
	normalized := strings.ToLower(trimmed)
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	if canonical, ok := openAIModelCanonical[normalized]; ok {
		return canonical, ""
	}
	if alias, ok := openAIModelAliases[normalized]; ok {
		if canonical, ok := openAIModelCanonical[alias]; ok {
			return canonical, "alias"
		}
		return alias, "alias"
	}
	return defaultOpenAIModel, "defaulted"
}
