// Package zip bundles generated assets into a single archive.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets writes assets in order. Empty assets are skipped; duplicate
// file names are an error.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]struct{}, len(assets))
	now := time.Now()
	for _, asset := range assets {
		name := strings.TrimLeft(strings.TrimSpace(asset.Filename), "/")
		if name == "" || len(asset.Data) == 0 {
			continue
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("zip: duplicate file %q", name)
		}
		seen[name] = struct{}{}
		method := zip.Deflate
		// Media payloads are stored as-is.
		if strings.HasPrefix(asset.MIME, "image/") || strings.HasPrefix(asset.MIME, "video/") {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method, Modified: now})
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", name, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}
