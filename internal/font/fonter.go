package font

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// Fonter adapts the font for tinyfont-based drawing onto any
// drivers.Displayer. The returned value reuses an internal glyph between
// GetGlyph calls and is not safe for concurrent use; create one per
// rendering call.
func (f *Font) Fonter() tinyfont.Fonter {
	return &fonter{font: f}
}

type fonter struct {
	font *Font
	g    fontGlyph
}

func (fr *fonter) GetYAdvance() uint8 { return GlyphHeight }

func (fr *fonter) GetGlyph(r rune) tinyfont.Glypher {
	fr.g.r = r
	fr.g.cells = fr.font.glyphs[r]
	return &fr.g
}

type fontGlyph struct {
	r     rune
	cells []Glyph
}

// Draw paints the glyph with its baseline on row y. Runes the font does
// not cover draw nothing and advance nothing.
func (g *fontGlyph) Draw(display drivers.Displayer, x, y int16, c color.RGBA) {
	for i, cell := range g.cells {
		x0 := x + int16(i*GlyphWidth)
		for row := 0; row < GlyphHeight; row++ {
			for col := 0; col < GlyphWidth; col++ {
				if cell[row][col] {
					display.SetPixel(x0+int16(col), y-int16(GlyphHeight-1-row), c)
				}
			}
		}
	}
}

func (g *fontGlyph) Info() tinyfont.GlyphInfo {
	w := uint8(len(g.cells) * GlyphWidth)
	return tinyfont.GlyphInfo{
		Rune:     g.r,
		Width:    w,
		Height:   GlyphHeight,
		XAdvance: w,
		XOffset:  0,
		YOffset:  -(GlyphHeight - 1),
	}
}
