package failure

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type statusErr struct {
	status int
	msg    string
}

func (e statusErr) Error() string   { return e.msg }
func (e statusErr) HTTPStatus() int { return e.status }

type permanentErr struct{ msg string }

func (e permanentErr) Error() string   { return e.msg }
func (e permanentErr) Permanent() bool { return true }

func TestClassifyTextSignals(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "http 429", err: errors.New("gemini status 429: Too Many Requests"), want: QuotaExhausted},
		{name: "resource exhausted", err: errors.New("RESOURCE_EXHAUSTED: try later"), want: QuotaExhausted},
		{name: "quota", err: errors.New("You exceeded your current quota"), want: QuotaExhausted},
		{name: "rate limit", err: errors.New("rate limit reached for model"), want: QuotaExhausted},
		{name: "500", err: errors.New("gemini status 500: internal"), want: TransientServer},
		{name: "503", err: errors.New("gemini status 503: model overloaded"), want: TransientServer},
		{name: "deadline", err: errors.New("deadline exceeded while waiting"), want: TransientServer},
		{name: "quota wins over 5xx", err: errors.New("503 quota exceeded"), want: QuotaExhausted},
		{name: "other", err: errors.New("invalid argument: prompt blocked"), want: Fatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Kind != tt.want {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Fatal("classified failure must unwrap to its cause")
			}
		})
	}
}

func TestClassifyFatalPassesMessageThrough(t *testing.T) {
	err := errors.New("Safety filter rejected the prompt")
	got := Classify(err)
	if got.Kind != Fatal {
		t.Fatalf("Kind = %v, want fatal", got.Kind)
	}
	if got.Error() != err.Error() {
		t.Fatalf("Error() = %q, want %q", got.Error(), err.Error())
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		msg    string
		want   Kind
	}{
		{429, "slow down", QuotaExhausted},
		{503, "backend error", TransientServer},
		{500, "boom", TransientServer},
		{400, "prompt exceeds 500 tokens", Fatal},
		{403, "daily quota used up", QuotaExhausted},
		{404, "Requested entity was not found.", Fatal},
	}
	for _, tt := range tests {
		got := Classify(statusErr{status: tt.status, msg: tt.msg})
		if got.Kind != tt.want {
			t.Fatalf("status %d %q: Kind = %v, want %v", tt.status, tt.msg, got.Kind, tt.want)
		}
	}
}

func TestClassifyPermanentOverridesSignals(t *testing.T) {
	err := fmt.Errorf("download: %w", permanentErr{msg: "quota hit while downloading"})
	if got := Classify(err); got.Kind != Fatal {
		t.Fatalf("Kind = %v, want fatal", got.Kind)
	}
}

func TestClassifyContextErrors(t *testing.T) {
	if got := Classify(context.Canceled); got.Kind != Fatal {
		t.Fatalf("canceled Kind = %v, want fatal", got.Kind)
	}
	if got := Classify(fmt.Errorf("invoke: %w", context.DeadlineExceeded)); got.Kind != TransientServer {
		t.Fatalf("deadline Kind = %v, want transient", got.Kind)
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	first := Classify(errors.New("429"))
	again := Classify(fmt.Errorf("wrapped: %w", first))
	if again != first {
		t.Fatal("classifying a classified failure must return it unchanged")
	}
	if Classify(nil) != nil {
		t.Fatal("Classify(nil) must be nil")
	}
}

func TestClassifierCustomRules(t *testing.T) {
	c := &Classifier{Rules: append([]Rule{{Kind: TransientServer, Signals: []string{"connection reset"}}}, DefaultRules...)}
	if got := c.Classify(errors.New("read: connection reset by peer")); got.Kind != TransientServer {
		t.Fatalf("Kind = %v, want transient", got.Kind)
	}
	if got := Default.Classify(errors.New("read: connection reset by peer")); got.Kind != Fatal {
		t.Fatalf("default Kind = %v, want fatal", got.Kind)
	}
}

func TestWithMessageCopies(t *testing.T) {
	orig := Classify(errors.New("quota"))
	msg := orig.WithMessage("use your own key")
	if orig.Error() == msg.Error() {
		t.Fatal("WithMessage must not mutate the original")
	}
	if msg.Kind != QuotaExhausted || !errors.Is(msg, orig.Cause) {
		t.Fatal("WithMessage must keep kind and cause")
	}
}
