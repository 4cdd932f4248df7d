package domain

// PosterStyle names one of the visual themes the presentation layer renders.
type PosterStyle string

const (
	StyleModern  PosterStyle = "modern"
	StyleBold    PosterStyle = "bold"
	StyleElegant PosterStyle = "elegant"
	StyleVibrant PosterStyle = "vibrant"
	StyleRetro   PosterStyle = "retro"
	StyleCyber   PosterStyle = "cyber"
)

// DefaultAccentColor is applied when the caller does not pick one.
const DefaultAccentColor = "#6366f1"

// AllStyles lists every renderable style in display order.
func AllStyles() []PosterStyle {
	return []PosterStyle{StyleModern, StyleBold, StyleElegant, StyleVibrant, StyleRetro, StyleCyber}
}

// Document is the working poster a generation session builds up.
type Document struct {
	StructuredContent
	Contact     string
	Link        string
	AccentColor string
	Image       *ImageAsset
	// ImageGenerated is true when Image came from the image pipeline rather
	// than from the user.
	ImageGenerated bool
	Video          *VideoAsset
}
