package anim

import (
	"github.com/gogpu/gg"

	"github.com/animtx/animtx/util"
)

// wipePeriod is the seconds taken for the gradient to sweep the full surface.
const wipePeriod = 3.0

// A GradientWipe is an Animation that sweeps a repeating primary→secondary
// gradient across the surface, wrapping seamlessly at the period boundary.
type GradientWipe struct {
	cfg Config
}

func newGradientWipe(cfg Config) Animation {
	g := new(GradientWipe)
	g.cfg = cfg
	return g
}

// RenderFrame paints the gradient frame for virtual time t.
func (g *GradientWipe) RenderFrame(dc *gg.Context, t float64) {
	clearSurface(dc, g.cfg.Background)

	w := g.cfg.Width
	h := float64(g.cfg.Height)
	offset := util.Phase(t, wipePeriod)

	// The software rasterizer only fills solid paint, so the gradient is
	// rasterized column by column. A triangle wave over the wrapped column
	// fraction runs primary→secondary→primary across one cycle, making the
	// sweep continuous at the period boundary.
	for x := 0; x < w; x++ {
		frac := util.Wrap01(float64(x)/float64(w) + offset)
		colour := g.cfg.Primary.BlendHcl(g.cfg.Secondary, util.Triangle(frac)).Clamped()
		dc.SetColor(colour)
		dc.DrawRectangle(float64(x), 0, 1, h)
		dc.Fill()
	}
}
