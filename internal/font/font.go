package font

import (
	"fmt"
	"image/color"

	"tinygo.org/x/tinyfont"
)

// UnsupportedCharError reports a rune the font has no glyph for. Text
// rendering is strict: nothing is substituted for missing characters.
type UnsupportedCharError struct {
	Rune rune
}

func (e *UnsupportedCharError) Error() string {
	return fmt.Sprintf("font: unsupported character %q", e.Rune)
}

// Font maps runes to one or more segment-sized glyph cells each. Most
// characters occupy a single segment; wide ones span several.
//
// A Font is immutable after construction and safe for concurrent use.
type Font struct {
	glyphs map[rune][]Glyph
}

// New builds a Font from explicit per-rune cells.
func New(glyphs map[rune][]Glyph) *Font {
	m := make(map[rune][]Glyph, len(glyphs))
	for r, cells := range glyphs {
		m[r] = append([]Glyph(nil), cells...)
	}
	return &Font{glyphs: m}
}

// Lookup returns the glyph cells for r, or false if the font does not
// cover it.
func (f *Font) Lookup(r rune) ([]Glyph, bool) {
	cells, ok := f.glyphs[r]
	return cells, ok
}

var pixelOn = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// RenderText rasterizes text into display segments, one or more per
// character. Every rune must be covered by the font; the first missing
// one aborts the render with an UnsupportedCharError. An empty string
// yields no segments.
func (f *Font) RenderText(text string) ([]Segment, error) {
	cells := 0
	for _, r := range text {
		g, ok := f.glyphs[r]
		if !ok {
			return nil, &UnsupportedCharError{Rune: r}
		}
		cells += len(g)
	}
	if cells == 0 {
		return nil, nil
	}
	canvas := NewCanvas(int16(cells*GlyphWidth), GlyphHeight)
	tinyfont.WriteLine(canvas, f.Fonter(), 0, GlyphHeight-1, text, pixelOn)
	return canvas.Segments()
}
