package capture

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubSurface struct {
	img *image.RGBA
}

func newStubSurface(w, h int) *stubSurface {
	return &stubSurface{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (s *stubSurface) Width() int         { return s.img.Rect.Dx() }
func (s *stubSurface) Height() int        { return s.img.Rect.Dy() }
func (s *stubSurface) Image() image.Image { return s.img }

// stubEncoder records the driver's encoder interactions and can emit chunks
// and fail on demand.
type stubEncoder struct {
	info    StreamInfo
	onChunk func([]byte)

	starts int
	stops  int
	frames int

	startErr  error
	encodeErr error
	stopErr   error

	chunkPerFrame bool
	finalChunks   [][]byte
	mediaType     string
}

func (e *stubEncoder) Start(info StreamInfo, onChunk func([]byte)) error {
	e.starts++
	e.info = info
	e.onChunk = onChunk
	return e.startErr
}

func (e *stubEncoder) Encode(frame image.Image) error {
	if e.encodeErr != nil {
		return e.encodeErr
	}
	if e.chunkPerFrame {
		e.onChunk([]byte{byte(e.frames)})
	}
	e.frames++
	return nil
}

func (e *stubEncoder) Stop() error {
	e.stops++
	for _, c := range e.finalChunks {
		e.onChunk(c)
	}
	return e.stopErr
}

func (e *stubEncoder) MediaType() string {
	if e.mediaType == "" {
		return "video/webm"
	}
	return e.mediaType
}

// fakeClock advances a fixed step on every reading, making the virtual
// timeline independent of test scheduling.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

func TestRun_FrameCountTracksDuration(t *testing.T) {
	enc := &stubEncoder{}
	surface := newStubSurface(32, 24)

	// One clock reading per step: the virtual timeline ticks 0.1s per frame
	// regardless of how long each step really takes.
	clock := &fakeClock{now: time.Unix(0, 0), step: 100 * time.Millisecond}

	renders := 0
	artifact, err := Run(context.Background(), surface, enc,
		Options{FPS: 10, Duration: time.Second, Now: clock.Now},
		func(t float64) { renders++ })
	require.NoError(t, err)
	require.NotNil(t, artifact)

	// Steps sample t = 0.1..1.0 inclusive; the step reaching 1.1 stops.
	require.Equal(t, 10, renders)
	require.Equal(t, renders, enc.frames)
	require.True(t, strings.HasPrefix(artifact.MediaType(), "video/webm"))
}

func TestRun_VirtualClockBoundsRenderTimes(t *testing.T) {
	enc := &stubEncoder{}
	clock := &fakeClock{now: time.Unix(100, 0), step: 50 * time.Millisecond}

	var times []float64
	_, err := Run(context.Background(), newStubSurface(8, 8), enc,
		Options{FPS: 20, Duration: 200 * time.Millisecond, Now: clock.Now},
		func(t float64) { times = append(times, t) })
	require.NoError(t, err)

	require.Equal(t, []float64{0.05, 0.1, 0.15, 0.2}, times)
}

func TestRun_RenderTimesAreMonotonic(t *testing.T) {
	enc := &stubEncoder{}
	surface := newStubSurface(8, 8)

	var times []float64
	_, err := Run(context.Background(), surface, enc,
		Options{FPS: 20, Duration: 300 * time.Millisecond},
		func(t float64) { times = append(times, t) })
	require.NoError(t, err)
	require.NotEmpty(t, times)

	require.GreaterOrEqual(t, times[0], 0.0)
	require.Less(t, times[0], 0.05, "first step should sample the clock near zero")
	for i := 1; i < len(times); i++ {
		require.Greater(t, times[i], times[i-1])
	}
	for _, at := range times {
		require.LessOrEqual(t, at, 0.3)
	}
}

func TestRun_ClampsFPS(t *testing.T) {
	cases := []struct {
		fps           float64
		wantFPS       int
		wantChunkTick time.Duration
	}{
		{120, 60, 200 * time.Millisecond},
		{0.25, 1, time.Second},
		{-10, 1, time.Second},
		{30, 30, 200 * time.Millisecond},
	}
	for _, c := range cases {
		enc := &stubEncoder{}
		_, err := Run(context.Background(), newStubSurface(8, 8), enc,
			Options{FPS: c.fps, Duration: 0},
			func(float64) {})
		require.NoError(t, err)
		require.Equal(t, c.wantFPS, enc.info.FPS, "fps=%v", c.fps)
		require.Equal(t, c.wantChunkTick, enc.info.ChunkInterval, "fps=%v", c.fps)
		require.Equal(t, TargetBitrate, enc.info.BitsPerSecond)
	}
}

func TestRun_ZeroDurationResolves(t *testing.T) {
	enc := &stubEncoder{}
	renders := 0

	done := make(chan struct{})
	var artifact *Artifact
	var err error
	go func() {
		defer close(done)
		artifact, err = Run(context.Background(), newStubSurface(8, 8), enc,
			Options{FPS: 30, Duration: 0},
			func(float64) { renders++ })
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("zero-duration capture did not resolve")
	}

	require.NoError(t, err)
	require.NotNil(t, artifact)
	require.LessOrEqual(t, renders, 1)
	require.Equal(t, 1, enc.stops)
}

func TestRun_NegativeDurationResolves(t *testing.T) {
	enc := &stubEncoder{}
	artifact, err := Run(context.Background(), newStubSurface(8, 8), enc,
		Options{FPS: 30, Duration: -time.Second},
		func(float64) { t.Error("render callback invoked for negative duration") })
	require.NoError(t, err)
	require.NotNil(t, artifact)
}

func TestRun_ChunkOrderMatchesDelivery(t *testing.T) {
	enc := &stubEncoder{chunkPerFrame: true, finalChunks: [][]byte{{0xAA}, {0xBB}}}
	artifact, err := Run(context.Background(), newStubSurface(8, 8), enc,
		Options{FPS: 20, Duration: 250 * time.Millisecond},
		func(float64) {})
	require.NoError(t, err)
	require.Greater(t, enc.frames, 0)

	want := make([]byte, 0, enc.frames+2)
	for i := 0; i < enc.frames; i++ {
		want = append(want, byte(i))
	}
	want = append(want, 0xAA, 0xBB)
	require.Equal(t, want, artifact.Bytes())
}

func TestRun_EmptyChunksDropped(t *testing.T) {
	enc := &stubEncoder{finalChunks: [][]byte{{}, []byte("tail"), nil}}
	artifact, err := Run(context.Background(), newStubSurface(8, 8), enc,
		Options{FPS: 30, Duration: 0},
		func(float64) {})
	require.NoError(t, err)
	require.Equal(t, []byte("tail"), artifact.Bytes())
}

func TestRun_StopsEncoderExactlyOnce(t *testing.T) {
	enc := &stubEncoder{}
	_, err := Run(context.Background(), newStubSurface(8, 8), enc,
		Options{FPS: 30, Duration: 100 * time.Millisecond},
		func(float64) {})
	require.NoError(t, err)
	require.Equal(t, 1, enc.starts)
	require.Equal(t, 1, enc.stops)
}

func TestRun_UnsupportedEnvironmentFailsFast(t *testing.T) {
	enc := &stubEncoder{startErr: ErrUnsupportedEnvironment}
	renders := 0

	start := time.Now()
	artifact, err := Run(context.Background(), newStubSurface(8, 8), enc,
		Options{FPS: 30, Duration: 10 * time.Second},
		func(float64) { renders++ })

	require.ErrorIs(t, err, ErrUnsupportedEnvironment)
	require.Nil(t, artifact)
	require.Zero(t, renders, "no render step may run without an encoder")
	require.Zero(t, enc.stops, "no session existed to stop")
	require.Less(t, time.Since(start), time.Second, "must fail before the virtual clock starts")
}

func TestRun_StartFailureIsEncoderError(t *testing.T) {
	enc := &stubEncoder{startErr: errors.New("boom")}
	_, err := Run(context.Background(), newStubSurface(8, 8), enc,
		Options{FPS: 30, Duration: time.Second},
		func(float64) {})

	var encErr *EncoderError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, "start", encErr.Op)
}

func TestRun_EncodeFailureStopsEncoder(t *testing.T) {
	enc := &stubEncoder{encodeErr: errors.New("pipe closed")}
	_, err := Run(context.Background(), newStubSurface(8, 8), enc,
		Options{FPS: 30, Duration: 10 * time.Second},
		func(float64) {})

	var encErr *EncoderError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, "encode", encErr.Op)
	require.Equal(t, 1, enc.stops)
}

func TestRun_StopFailureSurfaces(t *testing.T) {
	enc := &stubEncoder{stopErr: errors.New("exit status 1")}
	artifact, err := Run(context.Background(), newStubSurface(8, 8), enc,
		Options{FPS: 30, Duration: 0},
		func(float64) {})

	var encErr *EncoderError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, "stop", encErr.Op)
	require.Nil(t, artifact)
}

func TestRun_CancellationAbortsEarly(t *testing.T) {
	enc := &stubEncoder{}
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	artifact, err := Run(ctx, newStubSurface(8, 8), enc,
		Options{FPS: 10, Duration: time.Hour},
		func(float64) {})

	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, artifact)
	require.Equal(t, 1, enc.stops, "cancellation must still release the encoder")
	require.Less(t, time.Since(start), 5*time.Second)
}
