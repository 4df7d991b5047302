package capture

import (
	"context"
	"errors"
	"image"
	"log"
	"time"

	"github.com/oklog/ulid/v2"
)

// A Surface exposes the pixels a render callback paints onto. The driver
// never inspects the content; frames pass through to the encoder opaquely.
type Surface interface {
	Width() int
	Height() int
	Image() image.Image
}

type sessionState int

const (
	stateIdle sessionState = iota
	stateRunning
	stateStopped
)

// session holds the ephemeral state of one capture run: identity, encoder
// lifecycle state and the accumulated chunk sequence. A session is owned by
// exactly one Run call and is never reused.
type session struct {
	id    ulid.ULID
	enc   Encoder
	state sessionState

	chunks  [][]byte
	stopErr error
}

// appendChunk records one delivered chunk. Delivery order is the encoder's
// ordering guarantee; chunks are never reordered or merged here. Empty
// chunks are dropped.
func (s *session) appendChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	s.chunks = append(s.chunks, chunk)
}

// stop transitions the session to Stopped. It is idempotent: only the first
// call reaches the encoder, later calls replay its outcome.
func (s *session) stop() error {
	if s.state == stateStopped {
		return s.stopErr
	}
	s.state = stateStopped
	if err := s.enc.Stop(); err != nil {
		s.stopErr = &EncoderError{Op: "stop", Err: err}
	}
	return s.stopErr
}

// Run captures the animation painted by renderAtTime into an encoded video.
//
// The driver owns a virtual clock starting at zero: each step computes
// t = elapsed seconds since the clock origin, invokes renderAtTime(t) while
// t has not passed the configured duration, hands the surface frame to the
// encoder and reschedules itself after the nominal frame interval. Once t
// exceeds the duration the encoder is stopped exactly once, remaining chunks
// are flushed and the assembled Artifact is returned.
//
// Cancelling ctx aborts the run early: the encoder is stopped and released
// and ctx.Err() is returned. Errors raised by renderAtTime itself are not
// caught. A host without a usable encoder fails with
// ErrUnsupportedEnvironment before the virtual clock starts.
func Run(ctx context.Context, surface Surface, enc Encoder, opts Options, renderAtTime func(t float64)) (*Artifact, error) {
	fps := opts.CaptureFPS()
	info := StreamInfo{
		Width:         surface.Width(),
		Height:        surface.Height(),
		FPS:           fps,
		BitsPerSecond: TargetBitrate,
		ChunkInterval: chunkInterval(fps),
	}

	s := &session{id: ulid.Make(), enc: enc}
	if err := enc.Start(info, s.appendChunk); err != nil {
		if errors.Is(err, ErrUnsupportedEnvironment) {
			return nil, err
		}
		return nil, &EncoderError{Op: "start", Err: err}
	}
	s.state = stateRunning
	log.Printf("capture %s: %dx%d at %dfps for %v", s.id, info.Width, info.Height, fps, opts.Duration)

	origin := opts.now()
	duration := opts.Duration.Seconds()
	interval := opts.frameInterval()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			// Abort: release the encoder, discard the partial capture.
			_ = s.stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		t := opts.now().Sub(origin).Seconds()
		if t > duration {
			break
		}

		renderAtTime(t)
		if err := enc.Encode(surface.Image()); err != nil {
			_ = s.stop()
			return nil, &EncoderError{Op: "encode", Err: err}
		}
		timer.Reset(interval)
	}

	if err := s.stop(); err != nil {
		return nil, err
	}
	log.Printf("capture %s: finished with %d chunks", s.id, len(s.chunks))
	return newArtifact(enc.MediaType(), s.chunks), nil
}
