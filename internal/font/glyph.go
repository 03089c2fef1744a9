// Package font renders text into the badge's packed column-segment
// bitmap format.
//
// The badge display is 12 pixels tall and is addressed in segments of 6
// columns. Each segment packs into 9 bytes: rows 0-7 of a column fill a
// whole byte (bit 7 is the top row), rows 8-11 fill a nibble shared with
// the neighboring column.
package font

import "fmt"

const (
	// GlyphWidth is the number of pixel columns per segment.
	GlyphWidth = 6
	// GlyphHeight is the number of pixel rows on the display.
	GlyphHeight = 12
	// SegmentSize is the encoded size of one segment in bytes.
	SegmentSize = 9
)

// Glyph is one segment-sized monochrome bitmap, indexed [row][column]
// with row 0 at the top.
type Glyph [GlyphHeight][GlyphWidth]bool

// Segment is the packed form of one Glyph as the badge stores it.
type Segment [SegmentSize]byte

// colByte[col] holds rows 0-7 of that column.
var colByte = [GlyphWidth]int{0, 2, 3, 5, 6, 8}

// nibbleByte[col] holds rows 8-11. Even columns take the high nibble,
// odd columns the low nibble.
var nibbleByte = [GlyphWidth]int{1, 1, 4, 4, 7, 7}

// EncodeGlyph packs a bitmap into its 9-byte wire form.
func EncodeGlyph(g Glyph) Segment {
	var s Segment
	for col := 0; col < GlyphWidth; col++ {
		for row := 0; row < 8; row++ {
			if g[row][col] {
				s[colByte[col]] |= 1 << (7 - row)
			}
		}
		var nib byte
		for row := 8; row < GlyphHeight; row++ {
			if g[row][col] {
				nib |= 1 << (11 - row)
			}
		}
		if col%2 == 0 {
			s[nibbleByte[col]] |= nib << 4
		} else {
			s[nibbleByte[col]] |= nib
		}
	}
	return s
}

// DecodeGlyph unpacks a 9-byte segment back into its bitmap.
func DecodeGlyph(s Segment) Glyph {
	var g Glyph
	for col := 0; col < GlyphWidth; col++ {
		b := s[colByte[col]]
		for row := 0; row < 8; row++ {
			g[row][col] = b&(1<<(7-row)) != 0
		}
		nib := s[nibbleByte[col]]
		if col%2 == 0 {
			nib >>= 4
		}
		for row := 8; row < GlyphHeight; row++ {
			g[row][col] = nib&(1<<(11-row)) != 0
		}
	}
	return g
}

// Payload flattens segments into the byte stream uploaded to the badge.
func Payload(segs []Segment) []byte {
	out := make([]byte, 0, len(segs)*SegmentSize)
	for _, s := range segs {
		out = append(out, s[:]...)
	}
	return out
}

// SplitSegments parses a raw payload back into segments, for example
// when previewing bytes produced by an external editor.
func SplitSegments(payload []byte) ([]Segment, error) {
	if len(payload)%SegmentSize != 0 {
		return nil, fmt.Errorf("font: payload length %d is not a multiple of %d", len(payload), SegmentSize)
	}
	segs := make([]Segment, len(payload)/SegmentSize)
	for i := range segs {
		copy(segs[i][:], payload[i*SegmentSize:])
	}
	return segs, nil
}
