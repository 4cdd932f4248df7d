package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"postergen/internal/domain"
	"postergen/internal/domain/jsoncfg"
)

const (
	geminiProviderName = "gemini"
	openAIProviderName = "openai"
)

// RephraseMessage is shown when the model answer cannot be turned into
// poster copy.
const RephraseMessage = "Could not structure this text. Try rephrasing it with a clearer event, date or offer."

// EmptyInputMessage is shown when the user submits blank text.
const EmptyInputMessage = "Paste some text describing your event or offer first."

var fieldDescriptions = map[string]string{
	"title":        "Catchy headline, at most 4 words",
	"subtitle":     "Supporting line, at most 8 words",
	"description":  "One or two short sentences",
	"callToAction": "Short imperative call to action",
}

var fieldOrder = []string{"title", "subtitle", "description", "callToAction"}

type localeContextKey struct{}

// WithLocale records the preferred copy language on ctx.
func WithLocale(ctx context.Context, locale string) context.Context {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ctx
	}
	return context.WithValue(ctx, localeContextKey{}, locale)
}

// LocaleFromContext returns the locale set by WithLocale or fallback.
func LocaleFromContext(ctx context.Context, fallback string) string {
	if v, ok := ctx.Value(localeContextKey{}).(string); ok && v != "" {
		return v
	}
	if fallback != "" {
		return fallback
	}
	return jsoncfg.DefaultLocale
}

func languageName(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.BrazilianPortuguese
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return tag.String()
}

func buildRefinePrompt(rawText, locale string) string {
	sb := &strings.Builder{}
	sb.WriteString("You are a copywriter turning raw promotional text into poster copy. ")
	sb.WriteString("Extract and rewrite the content into four fields: ")
	for i, name := range fieldOrder {
		if i > 0 {
			sb.WriteString("; ")
		}
		fmt.Fprintf(sb, "%s (%s)", name, strings.ToLower(fieldDescriptions[name]))
	}
	fmt.Fprintf(sb, ". Write in the language of the input text; if it is ambiguous use %s (%s). ", languageName(locale), locale)
	sb.WriteString("Keep dates, places and prices exactly as given. Respond only with JSON.\n\nInput text:\n")
	sb.WriteString(strings.TrimSpace(rawText))
	return sb.String()
}

type contentPayload struct {
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Description  string `json:"description"`
	CallToAction string `json:"callToAction"`
}

// decodeContent parses a model answer. Any failure is permanent and carries
// the rephrase message.
func decodeContent(raw string) (domain.StructuredContent, error) {
	parsed, err := parseModelPayload[contentPayload](raw)
	if err != nil {
		return domain.StructuredContent{}, rephrase(err)
	}
	content := domain.StructuredContent{
		Title:        strings.TrimSpace(parsed.Title),
		Subtitle:     strings.TrimSpace(parsed.Subtitle),
		Description:  strings.TrimSpace(parsed.Description),
		CallToAction: strings.TrimSpace(parsed.CallToAction),
	}
	if err := content.Validate(); err != nil {
		return domain.StructuredContent{}, rephrase(err)
	}
	return content, nil
}

func rephrase(cause error) error {
	return &domain.UserError{
		Message: RephraseMessage,
		Err:     fmt.Errorf("%w: %w", domain.ErrMalformedContent, cause),
	}
}

func emptyInput() error {
	return domain.NewUserError(domain.ErrEmptyInput, EmptyInputMessage)
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

func parseModelPayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
