package anim

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Template identifies one of the built-in animation variants.
type Template string

const (
	TemplateBouncingText Template = "bouncing-text"
	TemplateBarsWave     Template = "bars-wave"
	TemplateGradientWipe Template = "gradient-wipe"
	TemplateCircleReveal Template = "circle-reveal"
)

// Templates lists every known template in a stable order.
func Templates() []Template {
	return []Template{
		TemplateBouncingText,
		TemplateBarsWave,
		TemplateGradientWipe,
		TemplateCircleReveal,
	}
}

// ParseTemplate validates a template identifier received from a config file
// or an API request.
func ParseTemplate(s string) (Template, error) {
	t := Template(s)
	if _, ok := templates[t]; !ok {
		return "", fmt.Errorf("anim: unknown template %q", s)
	}
	return t, nil
}

// Config describes a single render request. It is a value type and is never
// mutated after creation; every frame is recomputed from it and a time value.
type Config struct {
	Template   Template
	Width      int
	Height     int
	Background colorful.Color
	Primary    colorful.Color
	Secondary  colorful.Color
	Text       string
}

// Validate reports whether the config can be rendered.
func (c Config) Validate() error {
	if _, ok := templates[c.Template]; !ok {
		return fmt.Errorf("anim: unknown template %q", c.Template)
	}
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("anim: surface dimensions must be positive, got %dx%d", c.Width, c.Height)
	}
	return nil
}

// Spec is the wire-level form of a Config, shared by the YAML config file and
// the HTTP API. Colors are hex strings; unrecognised fields do not exist.
type Spec struct {
	Template        string `yaml:"template" json:"template"`
	Width           int    `yaml:"width" json:"width"`
	Height          int    `yaml:"height" json:"height"`
	BackgroundColor string `yaml:"backgroundColor" json:"backgroundColor"`
	PrimaryColor    string `yaml:"primaryColor" json:"primaryColor"`
	SecondaryColor  string `yaml:"secondaryColor" json:"secondaryColor"`
	Text            string `yaml:"text" json:"text"`
}

// parseHexColor parses a "#rgb" or "#rrggbb" colour. The length check is
// strict: colorful.Hex scans leniently and would accept trailing garbage or
// truncated values.
func parseHexColor(field, value string) (colorful.Color, error) {
	if len(value) != 4 && len(value) != 7 {
		return colorful.Color{}, fmt.Errorf("anim: bad %s %q: want #rgb or #rrggbb", field, value)
	}
	c, err := colorful.Hex(value)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("anim: bad %s %q: %w", field, value, err)
	}
	return c, nil
}

// Config parses and validates the spec into a renderable Config.
func (s Spec) Config() (Config, error) {
	template, err := ParseTemplate(s.Template)
	if err != nil {
		return Config{}, err
	}

	background, err := parseHexColor("backgroundColor", s.BackgroundColor)
	if err != nil {
		return Config{}, err
	}
	primary, err := parseHexColor("primaryColor", s.PrimaryColor)
	if err != nil {
		return Config{}, err
	}
	secondary, err := parseHexColor("secondaryColor", s.SecondaryColor)
	if err != nil {
		return Config{}, err
	}

	c := Config{
		Template:   template,
		Width:      s.Width,
		Height:     s.Height,
		Background: background,
		Primary:    primary,
		Secondary:  secondary,
		Text:       s.Text,
	}
	return c, c.Validate()
}
