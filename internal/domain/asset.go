package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	DefaultImageMIME = "image/png"
	DefaultVideoMIME = "video/mp4"
)

// ImageAsset is a single encoded raster image.
type ImageAsset struct {
	Data []byte
	MIME string
}

// VideoAsset is a downloaded video file.
type VideoAsset struct {
	Data []byte
	MIME string
}

// Empty reports whether the asset carries no bytes.
func (a *ImageAsset) Empty() bool {
	return a == nil || len(a.Data) == 0
}

// DataURL encodes the image as a data URL.
func (a ImageAsset) DataURL() string {
	mime := a.MIME
	if mime == "" {
		mime = DefaultImageMIME
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// ParseDataURL splits a base64 data URL into its mime type and raw bytes. A
// missing mime type defaults to image/png.
func ParseDataURL(raw string) (ImageAsset, error) {
	raw = strings.TrimSpace(raw)
	header, payload, ok := strings.Cut(raw, "base64,")
	if !ok {
		return ImageAsset{}, fmt.Errorf("%w: missing base64 marker", ErrInvalidDataURL)
	}
	if !strings.HasPrefix(header, "data:") {
		return ImageAsset{}, fmt.Errorf("%w: missing data scheme", ErrInvalidDataURL)
	}
	mime := strings.TrimPrefix(header, "data:")
	mime, _, _ = strings.Cut(mime, ";")
	mime = strings.TrimSpace(mime)
	if mime == "" {
		mime = DefaultImageMIME
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return ImageAsset{}, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if len(data) == 0 {
		return ImageAsset{}, fmt.Errorf("%w: empty payload", ErrInvalidDataURL)
	}
	return ImageAsset{Data: data, MIME: mime}, nil
}
