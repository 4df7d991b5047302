package anim

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/animtx/animtx/util"
)

const (
	// circlePeriod is the seconds taken for one expand/contract pulse.
	circlePeriod = 2.5

	// circleLutSize samples the eased pulse envelope.
	circleLutSize = 256
)

// A CircleReveal is an Animation that pulses a centred circle between a small
// and a large radius, filled primary with a secondary accent ring.
type CircleReveal struct {
	cfg Config
	lut []float64
}

func newCircleReveal(cfg Config) Animation {
	c := new(CircleReveal)
	c.cfg = cfg
	c.lut = util.GenerateLut(circleLutSize)
	return c
}

// pulse samples the eased envelope for virtual time t. The table is constant,
// so the result depends on t alone.
func (c *CircleReveal) pulse(t float64) float64 {
	idx := int(util.Phase(t, circlePeriod) * circleLutSize)
	if idx >= circleLutSize {
		idx = circleLutSize - 1
	}
	return c.lut[idx]
}

// RenderFrame paints the circle frame for virtual time t.
func (c *CircleReveal) RenderFrame(dc *gg.Context, t float64) {
	clearSurface(dc, c.cfg.Background)

	w := float64(c.cfg.Width)
	h := float64(c.cfg.Height)

	// Keep a visible minimum radius so the t=0 frame is never empty.
	maxRadius := 0.45 * math.Min(w, h)
	radius := (0.1 + 0.9*c.pulse(t)) * maxRadius

	dc.SetColor(c.cfg.Primary.Clamped())
	dc.DrawCircle(w/2, h/2, radius)
	dc.Fill()

	dc.SetColor(c.cfg.Secondary.Clamped())
	dc.SetLineWidth(math.Max(math.Min(w, h)/60, 1))
	dc.DrawCircle(w/2, h/2, radius)
	dc.Stroke()
}
