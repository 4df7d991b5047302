package anim

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/animtx/animtx/util"
)

const (
	// barsPeriod is the seconds taken for the wave to travel one full cycle.
	barsPeriod = 2.0
	maxBars    = 32
)

// A BarsWave is an Animation that draws a row of vertical bars whose heights
// ripple as a phase-offset sine wave, coloured primary through secondary
// across the row.
type BarsWave struct {
	cfg  Config
	bars int
}

func newBarsWave(cfg Config) Animation {
	b := new(BarsWave)
	b.cfg = cfg
	b.bars = int(util.Clamp(float64(cfg.Width/24), 1, maxBars))
	return b
}

// RenderFrame paints the bar row for virtual time t.
func (b *BarsWave) RenderFrame(dc *gg.Context, t float64) {
	clearSurface(dc, b.cfg.Background)

	w := float64(b.cfg.Width)
	h := float64(b.cfg.Height)
	barWidth := w / float64(b.bars)
	base := 2 * math.Pi * util.Phase(t, barsPeriod)

	for i := 0; i < b.bars; i++ {
		phase := base + 2*math.Pi*float64(i)/float64(b.bars)
		barHeight := (0.5 + 0.45*math.Sin(phase)) * h

		blend := 0.0
		if b.bars > 1 {
			blend = float64(i) / float64(b.bars-1)
		}
		colour := b.cfg.Primary.BlendHcl(b.cfg.Secondary, blend).Clamped()

		dc.SetColor(colour)
		dc.DrawRectangle(float64(i)*barWidth+barWidth*0.1, h-barHeight, barWidth*0.8, barHeight)
		dc.Fill()
	}
}
