package capture

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// An Artifact is the final encoded video: the ordered chunk sequence the
// encoder delivered plus the negotiated media type. It is immutable once
// built.
type Artifact struct {
	mediaType string
	chunks    [][]byte
}

func newArtifact(mediaType string, chunks [][]byte) *Artifact {
	return &Artifact{mediaType: mediaType, chunks: chunks}
}

// MediaType is the negotiated MIME type, e.g. "video/webm;codecs=vp9".
func (a *Artifact) MediaType() string {
	return a.mediaType
}

// Size is the total payload length in bytes.
func (a *Artifact) Size() int64 {
	var n int64
	for _, c := range a.chunks {
		n += int64(len(c))
	}
	return n
}

// Bytes assembles the chunks into one contiguous buffer, preserving delivery
// order.
func (a *Artifact) Bytes() []byte {
	out := make([]byte, 0, a.Size())
	for _, c := range a.chunks {
		out = append(out, c...)
	}
	return out
}

// WriteTo streams the chunks to w in delivery order.
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for _, c := range a.chunks {
		n, err := w.Write(c)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Filename derives the conventional download name for a capture:
// {template}-{timestamp}-{width}x{height}-{fps}fps.webm, where the timestamp
// is RFC3339 UTC with colons and dots replaced by dashes.
func Filename(template string, at time.Time, width, height, fps int) string {
	stamp := at.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return fmt.Sprintf("%s-%s-%dx%d-%dfps.webm", template, stamp, width, height, fps)
}
