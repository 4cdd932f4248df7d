package prompt

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"postergen/internal/failure"
	"postergen/internal/infra/credentials"
	"postergen/internal/retry"
)

func newOpenAIRefiner(t *testing.T, rt roundTripFunc, sleeps *sleepRecorder) *OpenAIRefiner {
	t.Helper()
	refiner, err := NewOpenAIRefiner(OpenAIOptions{
		Credentials: credentials.Static("sk-test"),
		BaseURL:     "https://openai.test/v1",
		HTTPClient:  &http.Client{Transport: rt},
		Retry:       &retry.Executor{MaxAttempts: 4, Sleep: sleeps.sleep},
	})
	if err != nil {
		t.Fatalf("NewOpenAIRefiner returned error: %v", err)
	}
	return refiner
}

func TestOpenAIRefine(t *testing.T) {
	refiner := newOpenAIRefiner(t, func(r *http.Request) (*http.Response, error) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Fatalf("authorization = %q", r.Header.Get("Authorization"))
		}
		var req openAIChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_schema" {
			t.Fatalf("response_format = %+v", req.ResponseFormat)
		}
		content, _ := json.Marshal(`{"title":"Feira Tech","subtitle":"São Paulo recebe inovação","description":"Dia 20 de maio.","callToAction":"Inscreva-se"}`)
		return respond(http.StatusOK, `{"choices":[{"message":{"content":`+string(content)+`}}]}`), nil
	}, &sleepRecorder{})
	content, err := refiner.Refine(context.Background(), "Feira de Tecnologia em São Paulo, 20 de maio")
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if content.Title != "Feira Tech" || content.CallToAction != "Inscreva-se" {
		t.Fatalf("content = %+v", content)
	}
}

func TestOpenAIRefineRateLimited(t *testing.T) {
	calls := 0
	sleeps := &sleepRecorder{}
	refiner := newOpenAIRefiner(t, func(*http.Request) (*http.Response, error) {
		calls++
		return respond(http.StatusTooManyRequests, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`), nil
	}, sleeps)
	_, err := refiner.Refine(context.Background(), "Promo")
	if !failure.IsQuota(err) {
		t.Fatalf("err = %v, want quota", err)
	}
	if calls != 4 || len(sleeps.waits) != 3 {
		t.Fatalf("calls = %d waits = %v", calls, sleeps.waits)
	}
}

func TestOpenAIRefineRefusalIsFatal(t *testing.T) {
	calls := 0
	refiner := newOpenAIRefiner(t, func(*http.Request) (*http.Response, error) {
		calls++
		return respond(http.StatusOK, `{"choices":[{"message":{"content":"","refusal":"I can't help with that."}}]}`), nil
	}, &sleepRecorder{})
	_, err := refiner.Refine(context.Background(), "Promo")
	if failure.KindOf(err) != failure.Fatal || calls != 1 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}
	if !strings.Contains(err.Error(), "rephrasing") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestNormalizeOpenAIModel(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		input  string
		model  string
		reason string
	}{
		{name: "exact_default", input: "gpt-4o-mini", model: "gpt-4o-mini", reason: ""},
		{name: "exact_full", input: "gpt-4o", model: "gpt-4o", reason: ""},
		{name: "alias_short", input: "gpt4o", model: "gpt-4o", reason: "alias"},
		{name: "alias_spaces", input: "GPT4o Mini", model: "gpt-4o-mini", reason: "alias"},
		{name: "unsupported", input: "gpt-4.1", model: "gpt-4o-mini", reason: "defaulted"},
		{name: "empty", input: "", model: "gpt-4o-mini", reason: ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gotModel, gotReason := normalizeOpenAIModel(tc.input)
			if gotModel != tc.model {
				t.Fatalf("model = %q, want %q", gotModel, tc.model)
			}
			if gotReason != tc.reason {
				t.Fatalf("reason = %q, want %q", gotReason, tc.reason)
			}
		})
	}
}

func TestNewOpenAIRefinerWarnsOnAlias(t *testing.T) {
	t.Parallel()
	var capturedReason, capturedDetail string
	_, err := NewOpenAIRefiner(OpenAIOptions{
		Credentials: credentials.Static("sk"),
		Model:       "gpt4o",
		OnWarning: func(reason, detail string) {
			capturedReason = reason
			capturedDetail = detail
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capturedReason != "model_alias" {
		t.Fatalf("warning reason = %q, want %q", capturedReason, "model_alias")
	}
	if capturedDetail == "" {
		t.Fatal("expected warning detail to be set")
	}
}
