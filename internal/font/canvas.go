package font

import (
	"fmt"
	"image/color"
)

// Canvas is an off-screen one-bit framebuffer implementing
// drivers.Displayer, so tinyfont renderers can draw into it.
type Canvas struct {
	width  int16
	height int16
	on     []bool
}

// NewCanvas returns a cleared canvas of the given dimensions.
func NewCanvas(width, height int16) *Canvas {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Canvas{
		width:  width,
		height: height,
		on:     make([]bool, int(width)*int(height)),
	}
}

func (c *Canvas) Size() (x, y int16) { return c.width, c.height }

// SetPixel lights the pixel for any non-black color and clears it for
// black. Out-of-bounds writes are dropped.
func (c *Canvas) SetPixel(x, y int16, col color.RGBA) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.on[int(y)*int(c.width)+int(x)] = col.R != 0 || col.G != 0 || col.B != 0
}

// Display is a no-op; the canvas has no backing device.
func (c *Canvas) Display() error { return nil }

// Pixel reports whether the pixel is lit. Out-of-bounds reads are dark.
func (c *Canvas) Pixel(x, y int16) bool {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return false
	}
	return c.on[int(y)*int(c.width)+int(x)]
}

// Segments carves the canvas into encoded 6-column segments, left to
// right. The canvas height must match GlyphHeight and the width must be
// a whole number of segments.
func (c *Canvas) Segments() ([]Segment, error) {
	if int(c.height) != GlyphHeight || c.width == 0 || int(c.width)%GlyphWidth != 0 {
		return nil, fmt.Errorf("font: cannot segment %dx%d canvas", c.width, c.height)
	}
	segs := make([]Segment, 0, int(c.width)/GlyphWidth)
	for x0 := 0; x0 < int(c.width); x0 += GlyphWidth {
		var g Glyph
		for row := 0; row < GlyphHeight; row++ {
			for col := 0; col < GlyphWidth; col++ {
				g[row][col] = c.Pixel(int16(x0+col), int16(row))
			}
		}
		segs = append(segs, EncodeGlyph(g))
	}
	return segs, nil
}
