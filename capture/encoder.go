package capture

import (
	"image"
	"time"
)

// StreamInfo describes the frame stream an Encoder is asked to consume.
type StreamInfo struct {
	Width  int
	Height int

	// FPS is the declared capture rate, already clamped to [MinFPS, MaxFPS].
	FPS int

	// BitsPerSecond is the target encode bitrate.
	BitsPerSecond int

	// ChunkInterval is how often buffered encoded bytes are delivered.
	ChunkInterval time.Duration
}

// An Encoder turns a stream of frames into chunks of an encoded video.
//
// Start begins an encode and registers the chunk sink; onChunk is invoked
// once per delivered chunk, never concurrently with itself, and in encode
// order. Encode submits one frame. Stop flushes everything still buffered
// (delivering it through onChunk), releases the encoder's resources and
// returns once encoding has fully finished. The driver relies on no chunk
// being delivered after Stop returns.
type Encoder interface {
	Start(info StreamInfo, onChunk func([]byte)) error
	Encode(frame image.Image) error
	Stop() error
	MediaType() string
}
