package valueobjects

import (
	"strings"
	"unicode/utf8"
)

// TruncateLabel shortens s to max runes, appending ellipsis when cut.
func TruncateLabel(s string, max int, ellipsis string) string {
	s = strings.TrimSpace(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + ellipsis
}
