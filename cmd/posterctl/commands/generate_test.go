package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"postergen/internal/domain"
)

func TestBuildRequestFromArgument(t *testing.T) {
	req, err := buildRequest(nil, &generateOptions{text: "  feira no sábado  "}, "pt-BR")
	if err != nil {
		t.Fatalf("buildRequest returned error: %v", err)
	}
	if req.Text != "feira no sábado" || req.Locale != "pt-BR" || req.AccentColor != domain.DefaultAccentColor {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestBuildRequestFromStdin(t *testing.T) {
	req, err := buildRequest(strings.NewReader("bolo caseiro"), &generateOptions{file: "-", locale: "en"}, "pt-BR")
	if err != nil {
		t.Fatalf("buildRequest returned error: %v", err)
	}
	if req.Text != "bolo caseiro" || req.Locale != "en" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestBuildRequestRejectsEmptyText(t *testing.T) {
	_, err := buildRequest(nil, &generateOptions{text: "   "}, "pt-BR")
	if !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestBuildRequestLoadsImage(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "bg.png")
	if err := os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n0000"), 0o644); err != nil {
		t.Fatal(err)
	}
	req, err := buildRequest(nil, &generateOptions{text: "x", image: png}, "pt-BR")
	if err != nil {
		t.Fatalf("buildRequest returned error: %v", err)
	}
	if !strings.HasPrefix(req.Image, "data:image/png;base64,") {
		t.Fatalf("image = %q", req.Image)
	}

	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := buildRequest(nil, &generateOptions{text: "x", image: txt}, "pt-BR"); err == nil {
		t.Fatal("expected error for a non-image file")
	}
}

func TestStylesCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"styles"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if got := strings.Fields(out.String()); len(got) != len(domain.AllStyles()) || got[0] != "modern" {
		t.Fatalf("styles output = %q", out.String())
	}
}
