package anim

import (
	"github.com/gogpu/gg"
	"github.com/lucasb-eyer/go-colorful"
)

// An Animation renders one template at a given point on a virtual timeline.
//
// RenderFrame must be a pure function of (t mod period, config): calling it
// twice with the same t paints pixel-identical output, and no state survives
// between calls. The drawing surface is cleared to the background colour
// before anything else is painted.
type Animation interface {
	RenderFrame(dc *gg.Context, t float64)
}

// templates is the closed dispatch table from template identifier to
// constructor. Adding a variant means adding exactly one entry here.
var templates = map[Template]func(Config) Animation{
	TemplateBouncingText: newBouncingText,
	TemplateBarsWave:     newBarsWave,
	TemplateGradientWipe: newGradientWipe,
	TemplateCircleReveal: newCircleReveal,
}

// New creates the Animation for the config's template.
func New(cfg Config) (Animation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return templates[cfg.Template](cfg), nil
}

// clearSurface resets the full surface to the background colour.
func clearSurface(dc *gg.Context, background colorful.Color) {
	dc.ClearWithColor(toRGBA(background))
}

func toRGBA(c colorful.Color) gg.RGBA {
	return gg.FromColor(c.Clamped())
}
