// Package export writes a finished poster document to storage.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"

	"postergen/internal/domain"
	"postergen/internal/storage"
	"postergen/pkg/zip"
)

const (
	ContentFile = "content.json"
	BundleFile  = "poster.zip"
)

// Manifest is the content.json written next to the media files.
type Manifest struct {
	Title          string   `json:"title"`
	Subtitle       string   `json:"subtitle"`
	Description    string   `json:"description"`
	CallToAction   string   `json:"callToAction"`
	Contact        string   `json:"contact,omitempty"`
	Link           string   `json:"link,omitempty"`
	AccentColor    string   `json:"accentColor"`
	Styles         []string `json:"styles"`
	Image          string   `json:"image,omitempty"`
	ImageGenerated bool     `json:"imageGenerated"`
	Video          string   `json:"video,omitempty"`
}

// Assets lays doc out as files: the manifest first, then media.
func Assets(doc *domain.Document) ([]zip.Asset, error) {
	if doc == nil {
		return nil, errors.New("export: document is required")
	}
	m := Manifest{
		Title:          doc.Title,
		Subtitle:       doc.Subtitle,
		Description:    doc.Description,
		CallToAction:   doc.CallToAction,
		Contact:        doc.Contact,
		Link:           doc.Link,
		AccentColor:    doc.AccentColor,
		ImageGenerated: doc.ImageGenerated,
	}
	for _, s := range domain.AllStyles() {
		m.Styles = append(m.Styles, string(s))
	}
	var media []zip.Asset
	if doc.Image != nil && !doc.Image.Empty() {
		m.Image = "background" + extensionFor(doc.Image.MIME, ".png")
		media = append(media, zip.Asset{Filename: m.Image, MIME: doc.Image.MIME, Data: doc.Image.Data})
	}
	if doc.Video != nil && len(doc.Video.Data) > 0 {
		m.Video = "video" + extensionFor(doc.Video.MIME, ".mp4")
		media = append(media, zip.Asset{Filename: m.Video, MIME: doc.Video.MIME, Data: doc.Video.Data})
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal manifest: %w", err)
	}
	return append([]zip.Asset{{Filename: ContentFile, MIME: "application/json", Data: raw}}, media...), nil
}

// Save writes every asset under prefix and, when bundle is set, a zip of
// all of them. It returns the written keys.
func Save(ctx context.Context, store storage.Store, prefix string, doc *domain.Document, bundle bool) ([]string, error) {
	assets, err := Assets(doc)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, a := range assets {
		key, err := store.Write(ctx, path.Join(prefix, a.Filename), a.Data)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	if bundle {
		archive, err := zip.ArchiveAssets(assets)
		if err != nil {
			return keys, err
		}
		key, err := store.Write(ctx, path.Join(prefix, BundleFile), archive)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func extensionFor(mimeType, fallback string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "video/mp4":
		return ".mp4"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return fallback
}
