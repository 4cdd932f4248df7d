package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"postergen/internal/infra"
)

func TestFileStoreWrite(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	key, err := store.Write(context.Background(), "/posters/a/content.json", []byte(`{}`))
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if key != "posters/a/content.json" {
		t.Fatalf("key = %q", key)
	}
	data, err := os.ReadFile(filepath.Join(dir, "posters", "a", "content.json"))
	if err != nil || string(data) != `{}` {
		t.Fatalf("read back %q, %v", data, err)
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	for _, key := range []string{"", "../etc/passwd", "a/../../b", "."} {
		if _, err := sanitizeKey(key); err == nil {
			t.Fatalf("sanitizeKey(%q) expected error", key)
		}
	}
}

func TestNewSelectsFileStore(t *testing.T) {
	cfg := &infra.Config{StorageDriver: infra.StorageDriverFS, StoragePath: t.TempDir()}
	store, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, ok := store.(*FileStore); !ok {
		t.Fatalf("store = %T, want *FileStore", store)
	}
}

func TestMinioConfigValidate(t *testing.T) {
	valid := MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "posters"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
	invalid := valid
	invalid.Endpoint = "http://localhost:9000"
	if err := invalid.Validate(); err == nil {
		t.Fatal("Validate() expected error for scheme in endpoint")
	}
	invalid = valid
	invalid.Bucket = ""
	if err := invalid.Validate(); err == nil {
		t.Fatal("Validate() expected error for empty bucket")
	}
}

func TestContentType(t *testing.T) {
	if ct := contentType("posters/x/content.json", nil); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("json content type = %q", ct)
	}
	if ct := contentType("posters/x/background", []byte("\x89PNG\r\n\x1a\n")); ct != "image/png" {
		t.Fatalf("sniffed content type = %q", ct)
	}
}

func TestBundlePrefix(t *testing.T) {
	p := BundlePrefix(time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC))
	if !strings.HasPrefix(p, "posters/2025/05/20/") || len(p) != len("posters/2025/05/20/")+36 {
		t.Fatalf("prefix = %q", p)
	}
}

func TestFileStoreOverwriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	ctx := context.Background()
	for _, body := range []string{"first", "second"} {
		if _, err := store.Write(ctx, "posters/b/poster.zip", []byte(body)); err != nil {
			t.Fatalf("Write returned error: %v", err)
		}
	}
	data, err := os.ReadFile(store.Path("posters/b/poster.zip"))
	if err != nil || string(data) != "second" {
		t.Fatalf("read back %q, %v", data, err)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "posters", "b"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single file, got %d", len(entries))
	}
}

func TestFileStoreWriteHonoursContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Write(ctx, "a.txt", []byte("x")); err == nil {
		t.Fatal("expected context error")
	}
}
