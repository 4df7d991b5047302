package capture

import (
	"math"
	"time"

	"github.com/animtx/animtx/util"
)

const (
	// MinFPS and MaxFPS bound the declared capture rate. Requests outside
	// the range are clamped, not rejected.
	MinFPS = 1
	MaxFPS = 60

	// TargetBitrate applies to every negotiated codec so a fallback encode
	// keeps the same quality target.
	TargetBitrate = 6_000_000

	// minChunkInterval floors the chunk delivery interval so high frame
	// rates cannot cause pathological micro-chunking.
	minChunkInterval = 200 * time.Millisecond
)

// Options configures one capture run.
type Options struct {
	// FPS is the requested frame rate. The declared encoder rate is this
	// value clamped to [MinFPS, MaxFPS] and rounded down; the requested
	// value paces the step loop as the nominal frame interval.
	FPS float64

	// Duration bounds the virtual timeline. Non-positive durations stop
	// immediately after a degenerate start/stop cycle.
	Duration time.Duration

	// Now overrides the clock origin source. Nil means time.Now.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// CaptureFPS is the frame rate declared to the encoder: the requested rate
// clamped to [MinFPS, MaxFPS] and rounded down.
func (o Options) CaptureFPS() int {
	return int(math.Floor(util.Clamp(o.FPS, MinFPS, MaxFPS)))
}

// frameInterval is the nominal delay between step-loop iterations. Pacing
// uses the requested rate, falling back to the clamped rate when the request
// is non-positive and cannot express an interval.
func (o Options) frameInterval() time.Duration {
	fps := o.FPS
	if fps <= 0 {
		fps = float64(o.CaptureFPS())
	}
	return time.Duration(float64(time.Second) / fps)
}

// chunkInterval is how often the encoder delivers buffered chunks:
// max(200ms, floor(1000/fps)) milliseconds.
func chunkInterval(fps int) time.Duration {
	interval := time.Duration(1000/fps) * time.Millisecond
	if interval < minChunkInterval {
		return minChunkInterval
	}
	return interval
}
