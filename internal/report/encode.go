package report

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Placeholder replaces any rune the core PDF fonts cannot draw.
const Placeholder = '?'

// substitutions cover common model output outside Windows-1252.
var substitutions = map[rune]string{
	'→': "->",
	'←': "<-",
	'≤': "<=",
	'≥': ">=",
	'✓': "v",
	'✔': "v",
	'✗': "x",
}

// Encode converts UTF-8 text to the single-byte Windows-1252 encoding used by the
// core fonts. It never fails: unknown runes become Placeholder, control
// characters other than newline are dropped, tabs become spaces.
func Encode(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteByte('\n')
		case r == '\t':
			b.WriteString("    ")
		case r < 0x20 || r == 0x7f:
			// drop
		case r < utf8.RuneSelf:
			b.WriteByte(byte(r))
		default:
			if sub, ok := substitutions[r]; ok {
				b.WriteString(sub)
				continue
			}
			if c, ok := charmap.Windows1252.EncodeRune(r); ok {
				b.WriteByte(c)
				continue
			}
			b.WriteByte(Placeholder)
		}
	}

	return b.String()
}
