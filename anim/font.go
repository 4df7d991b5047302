package anim

import (
	"log"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce   sync.Once
	fontSource *text.FontSource
)

// face returns a Go Regular face at the given size. The font ships embedded
// so text rendering never depends on host fonts.
func face(size float64) text.Face {
	fontOnce.Do(func() {
		source, err := text.NewFontSource(goregular.TTF)
		if err != nil {
			// The embedded font is known-good; failing to parse it means the
			// binary itself is broken.
			log.Fatalf("anim: parsing embedded font: %v", err)
		}
		fontSource = source
	})
	return fontSource.Face(size)
}
