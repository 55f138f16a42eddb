package views

import (
	"strings"
	"unicode"
)

// zeroWidth lists the code points tcell cannot lay out: emoji skin tone
// modifiers, the zero width joiner and the variation selectors. Dropping them
// leaves the base emoji, which renders as one 2-cell glyph.
var zeroWidth = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200d, Hi: 0x200d, Stride: 1},
		{Lo: 0xfe00, Hi: 0xfe0f, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1f3fb, Hi: 0x1f3ff, Stride: 1},
		{Lo: 0xe0100, Hi: 0xe01ef, Stride: 1},
	},
}

// sanitizeForTerminal strips zero-width code points and control characters
// other than newline and tab from user supplied text.
func sanitizeForTerminal(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(zeroWidth, r) || (unicode.IsControl(r) && r != '\n' && r != '\t') {
			return -1
		}
		return r
	}, s)
}
