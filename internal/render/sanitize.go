package render

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize makes untrusted message text safe to embed in the transcript.
// Escape sequences are stripped so a reply cannot move the cursor, change
// colors or retitle the terminal; other control characters are dropped
// except newline and tab.
func Sanitize(text string) string {
	text = ansi.Strip(text)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r':
			return -1
		case r < 0x20 || r == 0x7f:
			return -1
		case r >= 0x80 && r < 0xa0:
			return -1
		}
		return r
	}, text)
}
