package export

import (
	"context"
	"encoding/json"
	"testing"

	"postergen/internal/domain"
)

type memStore map[string][]byte

func (m memStore) Write(_ context.Context, key string, data []byte) (string, error) {
	m[key] = data
	return key, nil
}

func sampleDocument() *domain.Document {
	return &domain.Document{
		StructuredContent: domain.StructuredContent{Title: "Feira", Subtitle: "Tech", Description: "Dia 20.", CallToAction: "Venha"},
		AccentColor:       domain.DefaultAccentColor,
		Image:             &domain.ImageAsset{Data: []byte("jpg"), MIME: "image/jpeg"},
		ImageGenerated:    true,
		Video:             &domain.VideoAsset{Data: []byte("mp4"), MIME: "video/mp4"},
	}
}

func TestAssetsManifest(t *testing.T) {
	assets, err := Assets(sampleDocument())
	if err != nil {
		t.Fatalf("Assets returned error: %v", err)
	}
	if len(assets) != 3 || assets[0].Filename != ContentFile {
		t.Fatalf("assets = %+v", assets)
	}
	var m Manifest
	if err := json.Unmarshal(assets[0].Data, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.Image != "background.jpg" || m.Video != "video.mp4" || len(m.Styles) != 6 {
		t.Fatalf("manifest = %+v", m)
	}
}

func TestSaveWritesBundle(t *testing.T) {
	store := memStore{}
	keys, err := Save(context.Background(), store, "posters/x", sampleDocument(), true)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	want := []string{"posters/x/content.json", "posters/x/background.jpg", "posters/x/video.mp4", "posters/x/poster.zip"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
		if _, ok := store[want[i]]; !ok {
			t.Fatalf("missing %s", want[i])
		}
	}
}

func TestAssetsWithoutMedia(t *testing.T) {
	doc := sampleDocument()
	doc.Image, doc.Video = nil, nil
	assets, err := Assets(doc)
	if err != nil || len(assets) != 1 {
		t.Fatalf("assets = %+v err = %v", assets, err)
	}
}
