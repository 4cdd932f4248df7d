package jsoncfg

import (
	"fmt"
	"regexp"
	"strings"

	"postergen/internal/domain"
)

// PosterJSON is the request contract shared by the HTTP API and the CLI.
type PosterJSON struct {
	Version     string `json:"version"`
	Text        string `json:"text"`
	Image       string `json:"image,omitempty"`
	Contact     string `json:"contact,omitempty"`
	Link        string `json:"link,omitempty"`
	AccentColor string `json:"accent_color,omitempty"`
	Locale      string `json:"locale,omitempty"`
}

// VideoJSON asks for a video of an already generated poster.
type VideoJSON struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

const (
	// DefaultPosterVersion represents the contract version echoed in responses.
	DefaultPosterVersion = "2025-01"
	// DefaultLocale is applied when no locale preference is provided.
	DefaultLocale = "pt-BR"
	// MaxTextLength bounds the raw text forwarded to the model.
	MaxTextLength = 4000
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Normalize applies server defaults.
func (p *PosterJSON) Normalize(preferredLocale string) {
	if p == nil {
		return
	}
	if p.Version == "" {
		p.Version = DefaultPosterVersion
	}
	p.Text = strings.TrimSpace(p.Text)
	p.Contact = strings.TrimSpace(p.Contact)
	p.Link = strings.TrimSpace(p.Link)
	p.AccentColor = strings.TrimSpace(p.AccentColor)
	if p.AccentColor == "" {
		p.AccentColor = domain.DefaultAccentColor
	}
	if p.Locale == "" {
		if preferredLocale != "" {
			p.Locale = preferredLocale
		} else {
			p.Locale = DefaultLocale
		}
	}
}

// Validate ensures the poster request satisfies the contract before any
// remote call is made.
func (p PosterJSON) Validate() error {
	if strings.TrimSpace(p.Text) == "" {
		return domain.ErrEmptyInput
	}
	if len([]rune(p.Text)) > MaxTextLength {
		return fmt.Errorf("text must be at most %d characters", MaxTextLength)
	}
	if p.AccentColor != "" && !hexColor.MatchString(p.AccentColor) {
		return fmt.Errorf("accent_color must be a hex color such as %s", domain.DefaultAccentColor)
	}
	if p.Image != "" {
		if _, err := domain.ParseDataURL(p.Image); err != nil {
			return fmt.Errorf("image: %w", err)
		}
	}
	return nil
}

// Validate ensures the video request carries the poster copy.
func (v VideoJSON) Validate() error {
	if strings.TrimSpace(v.Title) == "" || strings.TrimSpace(v.Description) == "" {
		return domain.ErrDocumentIncomplete
	}
	return nil
}
