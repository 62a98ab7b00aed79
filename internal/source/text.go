package source

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

// decodeText returns s unchanged when it is valid UTF-8 and otherwise
// decodes it as Shift_JIS (cp932), the usual encoding of Japanese
// shapefile attribute tables.
func decodeText(s string) string {
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := japanese.ShiftJIS.NewDecoder().String(s)
	if err != nil {
		return strings.ToValidUTF8(s, "�")
	}
	return decoded
}
