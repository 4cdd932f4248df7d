package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"postergen/internal/domain"
	"postergen/internal/failure"
	"postergen/internal/infra/credentials"
	"postergen/internal/providers/genai"
	"postergen/internal/retry"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func candidateText(t *testing.T, text string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
		}},
	})
	if err != nil {
		t.Fatalf("marshal candidate: %v", err)
	}
	return string(raw)
}

type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func newGeminiRefiner(t *testing.T, rt roundTripFunc, sleeps *sleepRecorder) *GeminiRefiner {
	t.Helper()
	factory, err := genai.NewFactory(genai.Options{
		Credentials: credentials.Static("test-key"),
		BaseURL:     "https://gemini.test/v1beta",
		HTTPClient:  &http.Client{Transport: rt},
	})
	if err != nil {
		t.Fatalf("NewFactory returned error: %v", err)
	}
	refiner, err := NewGeminiRefiner(GeminiOptions{
		Clients:       factory,
		Retry:         &retry.Executor{MaxAttempts: 4, Sleep: sleeps.sleep},
		DefaultLocale: "pt-BR",
	})
	if err != nil {
		t.Fatalf("NewGeminiRefiner returned error: %v", err)
	}
	return refiner
}

func TestGeminiRefineEventText(t *testing.T) {
	var captured map[string]any
	answer := "```json\n" + `{"title":"Feira de Tecnologia","subtitle":"Inovação em São Paulo","description":"Venha conhecer as novidades do setor. Dia 20 de maio.","callToAction":"Garanta sua vaga"}` + "\n```"
	refiner := newGeminiRefiner(t, func(r *http.Request) (*http.Response, error) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-3-flash-preview:generateContent") {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		return respond(http.StatusOK, candidateText(t, answer)), nil
	}, &sleepRecorder{})

	content, err := refiner.Refine(context.Background(), "Feira de Tecnologia em São Paulo, 20 de maio")
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	for name, v := range map[string]string{
		"title":        content.Title,
		"subtitle":     content.Subtitle,
		"description":  content.Description,
		"callToAction": content.CallToAction,
	} {
		if v == "" {
			t.Fatalf("%s is empty", name)
		}
	}

	cfg, _ := captured["generationConfig"].(map[string]any)
	if cfg["responseMimeType"] != "application/json" {
		t.Fatalf("responseMimeType = %v", cfg["responseMimeType"])
	}
	schema, _ := cfg["responseSchema"].(map[string]any)
	required, _ := schema["required"].([]any)
	if len(required) != 4 {
		t.Fatalf("required fields = %v, want 4", required)
	}
	raw, _ := json.Marshal(captured["contents"])
	if !strings.Contains(string(raw), "Brazilian Portuguese") || !strings.Contains(string(raw), "20 de maio") {
		t.Fatalf("prompt missing locale or input: %s", raw)
	}
}

func TestGeminiRefineMalformedIsFatal(t *testing.T) {
	cases := map[string]string{
		"not_json":      "sorry, I cannot help with that",
		"missing_field": `{"title":"A","subtitle":"B","description":"C"}`,
		"blank_field":   `{"title":"A","subtitle":" ","description":"C","callToAction":"D"}`,
	}
	for name, answer := range cases {
		t.Run(name, func(t *testing.T) {
			calls := 0
			sleeps := &sleepRecorder{}
			refiner := newGeminiRefiner(t, func(*http.Request) (*http.Response, error) {
				calls++
				return respond(http.StatusOK, candidateText(t, answer)), nil
			}, sleeps)
			_, err := refiner.Refine(context.Background(), "Promo de verão")
			if err == nil {
				t.Fatal("expected error")
			}
			if calls != 1 || len(sleeps.waits) != 0 {
				t.Fatalf("calls = %d waits = %v, want a single attempt", calls, sleeps.waits)
			}
			if failure.KindOf(err) != failure.Fatal {
				t.Fatalf("kind = %s, want fatal", failure.KindOf(err))
			}
			if !errors.Is(err, domain.ErrMalformedContent) {
				t.Fatalf("err = %v, want ErrMalformedContent", err)
			}
			if err.Error() != RephraseMessage {
				t.Fatalf("message = %q, want rephrase message", err.Error())
			}
		})
	}
}

func TestGeminiRefineRetriesTransient(t *testing.T) {
	calls := 0
	sleeps := &sleepRecorder{}
	refiner := newGeminiRefiner(t, func(*http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return respond(http.StatusServiceUnavailable, `{"error":{"code":503,"message":"The model is overloaded.","status":"UNAVAILABLE"}}`), nil
		}
		return respond(http.StatusOK, candidateText(t, `{"title":"A","subtitle":"B","description":"C","callToAction":"D"}`)), nil
	}, sleeps)
	content, err := refiner.Refine(context.Background(), "Promo")
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if content.Title != "A" {
		t.Fatalf("title = %q", content.Title)
	}
	if calls != 2 || len(sleeps.waits) != 1 || sleeps.waits[0] != 3*time.Second {
		t.Fatalf("calls = %d waits = %v, want 2 calls and one 3s wait", calls, sleeps.waits)
	}
}

func TestGeminiRefineQuotaExhausted(t *testing.T) {
	calls := 0
	sleeps := &sleepRecorder{}
	refiner := newGeminiRefiner(t, func(*http.Request) (*http.Response, error) {
		calls++
		return respond(http.StatusTooManyRequests, `{"error":{"code":429,"message":"Resource has been exhausted (e.g. check quota).","status":"RESOURCE_EXHAUSTED"}}`), nil
	}, sleeps)
	_, err := refiner.Refine(context.Background(), "Promo")
	if !failure.IsQuota(err) {
		t.Fatalf("err = %v, want quota", err)
	}
	if err.Error() != retry.QuotaMessage {
		t.Fatalf("message = %q", err.Error())
	}
	if calls != 4 {
		t.Fatalf("calls = %d, want 4", calls)
	}
}

func TestRefineRejectsBlankInput(t *testing.T) {
	refiner := newGeminiRefiner(t, func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	}, &sleepRecorder{})
	_, err := refiner.Refine(context.Background(), "   ")
	if !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}

func TestLocaleFromContext(t *testing.T) {
	ctx := WithLocale(context.Background(), "en-US")
	if got := LocaleFromContext(ctx, "pt-BR"); got != "en-US" {
		t.Fatalf("locale = %q", got)
	}
	if got := LocaleFromContext(context.Background(), ""); got != "pt-BR" {
		t.Fatalf("default locale = %q", got)
	}
	if got := languageName("es"); got != "Spanish" {
		t.Fatalf("languageName(es) = %q", got)
	}
}

func TestExtractJSONFragment(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```":    `{"a":1}`,
		"Here you go: {\"a\":1} ok": `{"a":1}`,
		"":                          "",
	}
	for in, want := range cases {
		if got := extractJSONFragment(in); got != want {
			t.Fatalf("extractJSONFragment(%q) = %q, want %q", in, got, want)
		}
	}
}
