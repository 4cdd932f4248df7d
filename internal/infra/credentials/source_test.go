package credentials

import (
	"context"
	"errors"
	"testing"
)

func TestEnvIsReadOnEveryCall(t *testing.T) {
	t.Setenv("POSTERGEN_TEST_KEY", "one")
	src := Env("POSTERGEN_TEST_MISSING", "POSTERGEN_TEST_KEY")
	if key, _ := src.APIKey(context.Background()); key != "one" {
		t.Fatalf("key = %q, want one", key)
	}
	t.Setenv("POSTERGEN_TEST_KEY", "two")
	if key, _ := src.APIKey(context.Background()); key != "two" {
		t.Fatalf("key = %q, want two after swap", key)
	}
}

func TestChainPrefersOverride(t *testing.T) {
	src := Chain(Override(ProviderGemini), Static("ambient"))
	if key, _ := src.APIKey(context.Background()); key != "ambient" {
		t.Fatalf("key = %q, want ambient", key)
	}
	ctx := WithOverride(context.Background(), ProviderGemini, " mine ")
	if key, _ := src.APIKey(ctx); key != "mine" {
		t.Fatalf("key = %q, want mine", key)
	}
	other := WithOverride(context.Background(), ProviderOpenAI, "sk")
	if key, _ := src.APIKey(other); key != "ambient" {
		t.Fatalf("key = %q, override for another provider must be ignored", key)
	}
}

func TestChainSkipsFailingSource(t *testing.T) {
	boom := errors.New("db down")
	failing := SourceFunc(func(context.Context) (string, error) { return "", boom })
	key, err := Chain(failing, Static("fallback")).APIKey(context.Background())
	if err != nil || key != "fallback" {
		t.Fatalf("key, err = %q, %v", key, err)
	}
	_, err = Chain(failing, Static("")).APIKey(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestRequired(t *testing.T) {
	if _, err := Required(Static("")).APIKey(context.Background()); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
	key, err := Required(Static("k")).APIKey(context.Background())
	if err != nil || key != "k" {
		t.Fatalf("key, err = %q, %v", key, err)
	}
}

func TestWithOverrideIgnoresBlank(t *testing.T) {
	ctx := context.Background()
	if WithOverride(ctx, ProviderGemini, "  ") != ctx {
		t.Fatal("blank override must not wrap the context")
	}
}
