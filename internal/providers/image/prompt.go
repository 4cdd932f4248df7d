package image

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SeedFallbackLength bounds how much raw text is used as a prompt seed when
// no refined title exists.
const SeedFallbackLength = 50

// PromptSeed picks the subject for a background image: the refined title,
// or the head of the raw text.
func PromptSeed(title, rawText string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	raw := strings.TrimSpace(rawText)
	if utf8.RuneCountInString(raw) <= SeedFallbackLength {
		return raw
	}
	return string([]rune(raw)[:SeedFallbackLength])
}

// BuildBackgroundPrompt turns a subject into an instruction for a text-free
// poster background.
func BuildBackgroundPrompt(seed string) string {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		seed = "a promotional event"
	}
	lines := []string{
		"A professional, cinematic, ultra high definition background image for a commercial poster.",
		fmt.Sprintf("Subject: %s.", seed),
		"Minimalist, abstract or atmospheric style.",
		"Clean composition that leaves room for text.",
		"Do not include any text, letters or logos.",
	}
	return strings.Join(lines, " ")
}
