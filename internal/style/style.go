// Package style holds the fixed set of photo presentation styles and the
// prompt fragments used to steer image generation toward them.
package style

import "strings"

type ID string

const (
	RusticDark   ID = "rustic_dark"
	BrightModern ID = "bright_modern"
	SocialMedia  ID = "social_media"
)

// Default is the style selected when a session starts.
const Default = BrightModern

// Generic is returned for identifiers outside the catalog.
const Generic = "high-quality, realistic"

type Style struct {
	ID     ID     `json:"id"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

var catalog = []Style{
	{
		ID:     RusticDark,
		Label:  "Rustic/Dark",
		Prompt: "dramatic lighting, dark wood background, rustic, moody, high-end restaurant plating",
	},
	{
		ID:     BrightModern,
		Label:  "Bright/Modern",
		Prompt: "bright and airy, clean white background, minimalist, modern plating, soft natural light",
	},
	{
		ID:     SocialMedia,
		Label:  "Social Media (Top-Down)",
		Prompt: "top-down view, flat lay, vibrant colors, on a stylish tabletop, perfect for social media",
	},
}

// All returns the catalog in picker order.
func All() []Style {
	out := make([]Style, len(catalog))
	copy(out, catalog)
	return out
}

// Prompt returns the directive for id, or Generic when id is unknown.
func Prompt(id ID) string {
	if s, ok := Lookup(id); ok {
		return s.Prompt
	}
	return Generic
}

func Lookup(id ID) (Style, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Style{}, false
}

// Parse accepts either a style ID or its human label.
func Parse(v string) (ID, bool) {
	v = strings.TrimSpace(v)
	for _, s := range catalog {
		if strings.EqualFold(string(s.ID), v) || strings.EqualFold(s.Label, v) {
			return s.ID, true
		}
	}
	return "", false
}

func (id ID) Label() string {
	if s, ok := Lookup(id); ok {
		return s.Label
	}
	return string(id)
}
