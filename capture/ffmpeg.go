package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Codec identifies a negotiated webm codec.
type Codec string

const (
	CodecVP9 Codec = "vp9"
	CodecVP8 Codec = "vp8"
)

// MediaType is the MIME type an artifact encoded with this codec carries.
func (c Codec) MediaType() string {
	if c == CodecVP9 {
		return "video/webm;codecs=vp9"
	}
	return "video/webm"
}

// encoderName is the ffmpeg encoder implementing the codec.
func (c Codec) encoderName() string {
	if c == CodecVP9 {
		return "libvpx-vp9"
	}
	return "libvpx"
}

// FFmpeg is an Encoder that pipes raw RGBA frames into an ffmpeg process and
// streams the resulting webm back out of it. Buffered output is delivered to
// the chunk sink on a fixed interval, so the driver sees a timesliced chunk
// stream rather than one final blob.
type FFmpeg struct {
	path  string
	codec Codec

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  bytes.Buffer
	onChunk func([]byte)

	mu  sync.Mutex
	buf bytes.Buffer

	flushStop chan struct{}
	flushDone chan struct{}
	readDone  chan struct{}
	readErr   error

	scratch *image.RGBA
	started bool
}

// NewFFmpeg probes the host for an ffmpeg binary with a vpx encoder,
// preferring VP9 over VP8. A host without either fails with
// ErrUnsupportedEnvironment before any capture state exists.
func NewFFmpeg() (*FFmpeg, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, ErrUnsupportedEnvironment
	}
	out, err := exec.Command(path, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, fmt.Errorf("capture: probing ffmpeg encoders: %w", err)
	}
	codec, ok := pickCodec(string(out))
	if !ok {
		return nil, ErrUnsupportedEnvironment
	}
	return &FFmpeg{path: path, codec: codec}, nil
}

// pickCodec chooses the best webm codec offered by ffmpeg's -encoders
// listing.
func pickCodec(encoders string) (Codec, bool) {
	if strings.Contains(encoders, "libvpx-vp9") {
		return CodecVP9, true
	}
	if strings.Contains(encoders, "libvpx") {
		return CodecVP8, true
	}
	return "", false
}

// buildArgs assembles the ffmpeg invocation for one stream: raw RGBA frames
// on stdin, streamed webm on stdout.
func buildArgs(info StreamInfo, codec Codec) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", info.Width, info.Height),
		"-r", strconv.Itoa(info.FPS),
		"-i", "-",
		"-c:v", codec.encoderName(),
		"-b:v", strconv.Itoa(info.BitsPerSecond),
		"-deadline", "realtime",
		"-f", "webm",
		"pipe:1",
	}
}

// MediaType reports the negotiated codec's MIME type.
func (f *FFmpeg) MediaType() string {
	return f.codec.MediaType()
}

// Start launches the ffmpeg process and the goroutines that collect and
// deliver its output.
func (f *FFmpeg) Start(info StreamInfo, onChunk func([]byte)) error {
	if f.started {
		return fmt.Errorf("capture: ffmpeg encoder already started")
	}

	cmd := exec.Command(f.path, buildArgs(info, f.codec)...)
	cmd.Stderr = &f.stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("capture: ffmpeg stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("capture: ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("capture: starting ffmpeg: %w", err)
	}

	f.cmd = cmd
	f.stdin = stdin
	f.onChunk = onChunk
	f.scratch = image.NewRGBA(image.Rect(0, 0, info.Width, info.Height))
	f.readDone = make(chan struct{})
	f.flushStop = make(chan struct{})
	f.flushDone = make(chan struct{})
	f.started = true

	go f.collect(stdout)
	go f.flushLoop(info.ChunkInterval)

	return nil
}

// collect drains ffmpeg stdout into the shared buffer until EOF.
func (f *FFmpeg) collect(r io.Reader) {
	defer close(f.readDone)
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			f.mu.Lock()
			f.buf.Write(buf[:n])
			f.mu.Unlock()
		}
		if err != nil {
			if err != io.EOF {
				f.readErr = err
			}
			return
		}
	}
}

// flushLoop delivers buffered output on the chunk interval until stopped.
func (f *FFmpeg) flushLoop(interval time.Duration) {
	defer close(f.flushDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-f.flushStop:
			return
		case <-ticker.C:
			f.flush()
		}
	}
}

// flush hands everything buffered so far to the chunk sink as one chunk.
func (f *FFmpeg) flush() {
	f.mu.Lock()
	if f.buf.Len() == 0 {
		f.mu.Unlock()
		return
	}
	chunk := make([]byte, f.buf.Len())
	copy(chunk, f.buf.Bytes())
	f.buf.Reset()
	f.mu.Unlock()
	f.onChunk(chunk)
}

// Encode submits one frame to the encoder.
func (f *FFmpeg) Encode(frame image.Image) error {
	if !f.started {
		return fmt.Errorf("capture: ffmpeg encoder not started")
	}
	if _, err := f.stdin.Write(f.rgbaPixels(frame)); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// rgbaPixels returns the frame's pixels as tightly packed RGBA bytes,
// converting through the scratch buffer when the frame layout needs it.
func (f *FFmpeg) rgbaPixels(frame image.Image) []byte {
	if rgba, ok := frame.(*image.RGBA); ok &&
		rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba.Pix
	}
	draw.Draw(f.scratch, f.scratch.Bounds(), frame, frame.Bounds().Min, draw.Src)
	return f.scratch.Pix
}

// Stop signals end of input, waits for ffmpeg to finish and flushes the tail
// of its output. Chunk delivery stays sequenced: the delivery loop is halted
// before the final flush, and nothing is delivered after Stop returns.
func (f *FFmpeg) Stop() error {
	if !f.started {
		return nil
	}
	f.started = false

	closeErr := f.stdin.Close()
	<-f.readDone
	waitErr := f.cmd.Wait()

	close(f.flushStop)
	<-f.flushDone
	f.flush()

	if waitErr != nil {
		msg := strings.TrimSpace(f.stderr.String())
		if msg != "" {
			return fmt.Errorf("ffmpeg: %s: %w", msg, waitErr)
		}
		return fmt.Errorf("ffmpeg: %w", waitErr)
	}
	if f.readErr != nil {
		return fmt.Errorf("reading ffmpeg output: %w", f.readErr)
	}
	return closeErr
}
