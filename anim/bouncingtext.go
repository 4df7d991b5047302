package anim

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/animtx/animtx/util"
)

// bouncePeriod is the seconds taken for one full oscillation.
const bouncePeriod = 2.0

// A BouncingText is an Animation that floats the configured text up and down
// the surface, blending its colour between primary and secondary.
type BouncingText struct {
	cfg Config
}

func newBouncingText(cfg Config) Animation {
	b := new(BouncingText)
	b.cfg = cfg
	return b
}

// RenderFrame paints the text frame for virtual time t.
func (b *BouncingText) RenderFrame(dc *gg.Context, t float64) {
	clearSurface(dc, b.cfg.Background)
	if b.cfg.Text == "" {
		return
	}

	w := float64(b.cfg.Width)
	h := float64(b.cfg.Height)
	phase := util.Phase(t, bouncePeriod)

	// Sinusoidal vertical displacement around the centre line.
	y := h/2 + 0.25*h*math.Sin(2*math.Pi*phase)

	// Cosine blend so the colour wraps smoothly at the period boundary.
	blend := 0.5 - 0.5*math.Cos(2*math.Pi*phase)
	colour := b.cfg.Primary.BlendHcl(b.cfg.Secondary, blend).Clamped()

	size := math.Max(h/5, 4)
	dc.SetFont(face(size))
	dc.SetColor(colour)
	dc.DrawStringAnchored(b.cfg.Text, w/2, y, 0.5, 0.5)
}
