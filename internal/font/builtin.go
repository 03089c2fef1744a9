package font

import (
	"fmt"
	"strings"
	"sync"
)

var (
	builtinOnce sync.Once
	builtinFont *Font
)

// Builtin returns the stock 6x12 font. It covers printable ASCII plus a
// 12-column smiley and is parsed from its art table on first use.
func Builtin() *Font {
	builtinOnce.Do(func() {
		glyphs := make(map[rune][]Glyph, len(builtinArt))
		for r, art := range builtinArt {
			cells, err := parseArt(art)
			if err != nil {
				panic(fmt.Sprintf("font: glyph %q: %v", r, err))
			}
			glyphs[r] = cells
		}
		builtinFont = &Font{glyphs: glyphs}
	})
	return builtinFont
}

// parseArt reads glyph art: 12 whitespace-separated row strings of 'X'
// (lit) and '.' (dark). Rows wider than one segment yield multiple
// cells, left to right.
func parseArt(art string) ([]Glyph, error) {
	rows := strings.Fields(art)
	if len(rows) != GlyphHeight {
		return nil, fmt.Errorf("want %d rows, got %d", GlyphHeight, len(rows))
	}
	width := len(rows[0])
	if width == 0 || width%GlyphWidth != 0 {
		return nil, fmt.Errorf("row width %d is not a multiple of %d", width, GlyphWidth)
	}
	cells := make([]Glyph, width/GlyphWidth)
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d is %d wide, want %d", y, len(row), width)
		}
		for x := 0; x < width; x++ {
			switch row[x] {
			case 'X':
				cells[x/GlyphWidth][y][x%GlyphWidth] = true
			case '.':
			default:
				return nil, fmt.Errorf("row %d: bad cell %q", y, row[x])
			}
		}
	}
	return cells, nil
}

// builtinArt holds one row-art string per rune, 12 rows top to bottom.
// Character bodies sit on rows 3-9 with rows 10-11 for descenders, and
// column 5 stays dark so adjacent characters keep a gap.
var builtinArt = map[rune]string{
	' ':  "...... ...... ...... ...... ...... ...... ...... ...... ...... ...... ...... ......",
	'!':  "...... ...... ...... ..X... ..X... ..X... ..X... ..X... ...... ..X... ...... ......",
	'"':  "...... ...... ...... .X.X.. .X.X.. .X.X.. ...... ...... ...... ...... ...... ......",
	'#':  "...... ...... ...... .X.X.. .X.X.. XXXXX. .X.X.. XXXXX. .X.X.. .X.X.. ...... ......",
	'$':  "...... ...... ...... ..X... .XXXX. X.X... .XXX.. ..X.X. XXXX.. ..X... ...... ......",
	'%':  "...... ...... ...... XX.... XX..X. ...X.. ..X... .X.... X..XX. ...XX. ...... ......",
	'&':  "...... ...... ...... .XX... X..X.. X.X... .X.... X.X.X. X..X.. .XX.X. ...... ......",
	'\'': "...... ...... ...... ..X... ..X... ...... ...... ...... ...... ...... ...... ......",
	'(':  "...... ...... ...... ...X.. ..X... .X.... .X.... .X.... ..X... ...X.. ...... ......",
	')':  "...... ...... ...... .X.... ..X... ...X.. ...X.. ...X.. ..X... .X.... ...... ......",
	'*':  "...... ...... ...... ...... ..X... X.X.X. .XXX.. X.X.X. ..X... ...... ...... ......",
	'+':  "...... ...... ...... ...... ..X... ..X... XXXXX. ..X... ..X... ...... ...... ......",
	',':  "...... ...... ...... ...... ...... ...... ...... ...... ..XX.. ..XX.. ..X... ......",
	'-':  "...... ...... ...... ...... ...... ...... XXXXX. ...... ...... ...... ...... ......",
	'.':  "...... ...... ...... ...... ...... ...... ...... ...... ..XX.. ..XX.. ...... ......",
	'/':  "...... ...... ...... ....X. ....X. ...X.. ..X... .X.... X..... X..... ...... ......",
	'0':  "...... ...... ...... .XXX.. X...X. X..XX. X.X.X. XX..X. X...X. .XXX.. ...... ......",
	'1':  "...... ...... ...... ..X... .XX... ..X... ..X... ..X... ..X... .XXX.. ...... ......",
	'2':  "...... ...... ...... .XXX.. X...X. ....X. ...X.. ..X... .X.... XXXXX. ...... ......",
	'3':  "...... ...... ...... XXXXX. ...X.. ..X... ...X.. ....X. X...X. .XXX.. ...... ......",
	'4':  "...... ...... ...... ...X.. ..XX.. .X.X.. X..X.. XXXXX. ...X.. ...X.. ...... ......",
	'5':  "...... ...... ...... XXXXX. X..... XXXX.. ....X. ....X. X...X. .XXX.. ...... ......",
	'6':  "...... ...... ...... ..XX.. .X.... X..... XXXX.. X...X. X...X. .XXX.. ...... ......",
	'7':  "...... ...... ...... XXXXX. ....X. ...X.. ..X... ..X... ..X... ..X... ...... ......",
	'8':  "...... ...... ...... .XXX.. X...X. X...X. .XXX.. X...X. X...X. .XXX.. ...... ......",
	'9':  "...... ...... ...... .XXX.. X...X. X...X. .XXXX. ....X. ...X.. .XX... ...... ......",
	':':  "...... ...... ...... ...... ...... ..XX.. ..XX.. ...... ..XX.. ..XX.. ...... ......",
	';':  "...... ...... ...... ...... ...... ..XX.. ..XX.. ...... ..XX.. ..XX.. ..X... ......",
	'<':  "...... ...... ...... ...X.. ..X... .X.... X..... .X.... ..X... ...X.. ...... ......",
	'=':  "...... ...... ...... ...... ...... XXXXX. ...... XXXXX. ...... ...... ...... ......",
	'>':  "...... ...... ...... .X.... ..X... ...X.. ....X. ...X.. ..X... .X.... ...... ......",
	'?':  "...... ...... ...... .XXX.. X...X. ....X. ...X.. ..X... ...... ..X... ...... ......",
	'@':  "...... ...... ...... .XXX.. X...X. ....X. .XX.X. X.X.X. X.X.X. .XXX.. ...... ......",
	'A':  "...... ...... ...... ..X... .X.X.. X...X. X...X. XXXXX. X...X. X...X. ...... ......",
	'B':  "...... ...... ...... XXXX.. X...X. X...X. XXXX.. X...X. X...X. XXXX.. ...... ......",
	'C':  "...... ...... ...... .XXX.. X...X. X..... X..... X..... X...X. .XXX.. ...... ......",
	'D':  "...... ...... ...... XXXX.. X...X. X...X. X...X. X...X. X...X. XXXX.. ...... ......",
	'E':  "...... ...... ...... XXXXX. X..... X..... XXXX.. X..... X..... XXXXX. ...... ......",
	'F':  "...... ...... ...... XXXXX. X..... X..... XXXX.. X..... X..... X..... ...... ......",
	'G':  "...... ...... ...... .XXX.. X...X. X..... X.XXX. X...X. X...X. .XXXX. ...... ......",
	'H':  "...... ...... ...... X...X. X...X. X...X. XXXXX. X...X. X...X. X...X. ...... ......",
	'I':  "...... ...... ...... .XXX.. ..X... ..X... ..X... ..X... ..X... .XXX.. ...... ......",
	'J':  "...... ...... ...... ..XXX. ...X.. ...X.. ...X.. ...X.. X..X.. .XX... ...... ......",
	'K':  "...... ...... ...... X...X. X..X.. X.X... XX.... X.X... X..X.. X...X. ...... ......",
	'L':  "...... ...... ...... X..... X..... X..... X..... X..... X..... XXXXX. ...... ......",
	'M':  "...... ...... ...... X...X. XX.XX. X.X.X. X.X.X. X...X. X...X. X...X. ...... ......",
	'N':  "...... ...... ...... X...X. XX..X. X.X.X. X..XX. X...X. X...X. X...X. ...... ......",
	'O':  "...... ...... ...... .XXX.. X...X. X...X. X...X. X...X. X...X. .XXX.. ...... ......",
	'P':  "...... ...... ...... XXXX.. X...X. X...X. XXXX.. X..... X..... X..... ...... ......",
	'Q':  "...... ...... ...... .XXX.. X...X. X...X. X...X. X.X.X. X..X.. .XX.X. ...... ......",
	'R':  "...... ...... ...... XXXX.. X...X. X...X. XXXX.. X.X... X..X.. X...X. ...... ......",
	'S':  "...... ...... ...... .XXXX. X..... X..... .XXX.. ....X. ....X. XXXX.. ...... ......",
	'T':  "...... ...... ...... XXXXX. ..X... ..X... ..X... ..X... ..X... ..X... ...... ......",
	'U':  "...... ...... ...... X...X. X...X. X...X. X...X. X...X. X...X. .XXX.. ...... ......",
	'V':  "...... ...... ...... X...X. X...X. X...X. X...X. X...X. .X.X.. ..X... ...... ......",
	'W':  "...... ...... ...... X...X. X...X. X...X. X.X.X. X.X.X. X.X.X. .X.X.. ...... ......",
	'X':  "...... ...... ...... X...X. X...X. .X.X.. ..X... .X.X.. X...X. X...X. ...... ......",
	'Y':  "...... ...... ...... X...X. X...X. .X.X.. ..X... ..X... ..X... ..X... ...... ......",
	'Z':  "...... ...... ...... XXXXX. ....X. ...X.. ..X... .X.... X..... XXXXX. ...... ......",
	'[':  "...... ...... ...... .XXX.. .X.... .X.... .X.... .X.... .X.... .XXX.. ...... ......",
	'\\': "...... ...... ...... X..... X..... .X.... ..X... ...X.. ....X. ....X. ...... ......",
	']':  "...... ...... ...... .XXX.. ...X.. ...X.. ...X.. ...X.. ...X.. .XXX.. ...... ......",
	'^':  "...... ...... ...... ..X... .X.X.. X...X. ...... ...... ...... ...... ...... ......",
	'_':  "...... ...... ...... ...... ...... ...... ...... ...... ...... ...... XXXXX. ......",
	'`':  "...... ...... ...... .X.... ..X... ...... ...... ...... ...... ...... ...... ......",
	'a':  "...... ...... ...... ...... ...... .XXX.. ....X. .XXXX. X...X. .XXXX. ...... ......",
	'b':  "...... ...... ...... X..... X..... XXXX.. X...X. X...X. X...X. XXXX.. ...... ......",
	'c':  "...... ...... ...... ...... ...... .XXX.. X..... X..... X...X. .XXX.. ...... ......",
	'd':  "...... ...... ...... ....X. ....X. .XXXX. X...X. X...X. X...X. .XXXX. ...... ......",
	'e':  "...... ...... ...... ...... ...... .XXX.. X...X. XXXXX. X..... .XXX.. ...... ......",
	'f':  "...... ...... ...... ..XX.. .X.... XXXX.. .X.... .X.... .X.... .X.... ...... ......",
	'g':  "...... ...... ...... ...... ...... .XXXX. X...X. X...X. X...X. .XXXX. ....X. .XXX..",
	'h':  "...... ...... ...... X..... X..... XXXX.. X...X. X...X. X...X. X...X. ...... ......",
	'i':  "...... ...... ...... ..X... ...... .XX... ..X... ..X... ..X... .XXX.. ...... ......",
	'j':  "...... ...... ...... ...X.. ...... ..XX.. ...X.. ...X.. ...X.. ...X.. X..X.. .XX...",
	'k':  "...... ...... ...... X..... X..... X..X.. X.X... XX.... X.X... X..X.. ...... ......",
	'l':  "...... ...... ...... .XX... ..X... ..X... ..X... ..X... ..X... .XXX.. ...... ......",
	'm':  "...... ...... ...... ...... ...... XX.X.. X.X.X. X.X.X. X.X.X. X.X.X. ...... ......",
	'n':  "...... ...... ...... ...... ...... XXXX.. X...X. X...X. X...X. X...X. ...... ......",
	'o':  "...... ...... ...... ...... ...... .XXX.. X...X. X...X. X...X. .XXX.. ...... ......",
	'p':  "...... ...... ...... ...... ...... XXXX.. X...X. X...X. X...X. XXXX.. X..... X.....",
	'q':  "...... ...... ...... ...... ...... .XXXX. X...X. X...X. X...X. .XXXX. ....X. ....X.",
	'r':  "...... ...... ...... ...... ...... X.XX.. XX..X. X..... X..... X..... ...... ......",
	's':  "...... ...... ...... ...... ...... .XXXX. X..... .XXX.. ....X. XXXX.. ...... ......",
	't':  "...... ...... ...... .X.... .X.... XXXX.. .X.... .X.... .X..X. ..XX.. ...... ......",
	'u':  "...... ...... ...... ...... ...... X...X. X...X. X...X. X...X. .XXXX. ...... ......",
	'v':  "...... ...... ...... ...... ...... X...X. X...X. X...X. .X.X.. ..X... ...... ......",
	'w':  "...... ...... ...... ...... ...... X...X. X...X. X.X.X. X.X.X. .X.X.. ...... ......",
	'x':  "...... ...... ...... ...... ...... X...X. .X.X.. ..X... .X.X.. X...X. ...... ......",
	'y':  "...... ...... ...... ...... ...... X...X. X...X. X...X. X...X. .XXXX. ....X. .XXX..",
	'z':  "...... ...... ...... ...... ...... XXXXX. ...X.. ..X... .X.... XXXXX. ...... ......",
	'{':  "...... ...... ...... ...XX. ..X... ..X... .X.... ..X... ..X... ...XX. ...... ......",
	'|':  "...... ...... ...... ..X... ..X... ..X... ..X... ..X... ..X... ..X... ...... ......",
	'}':  "...... ...... ...... XX.... ..X... ..X... ...X.. ..X... ..X... XX.... ...... ......",
	'~':  "...... ...... ...... ...... ...... .X.... X.X.X. ...X.. ...... ...... ...... ......",

	// Wide glyphs span two segments.
	'☺': "...XXXXXX... ..X......X.. .X........X. X..XX..XX..X X..XX..XX..X X..........X X.X......X.X X..X....X..X .X..XXXX..X. ..X......X.. ...XXXXXX... ............",
}
