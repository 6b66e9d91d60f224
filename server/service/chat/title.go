package chat

import (
	"strings"
	"unicode"
)

// titleMaxLen is the maximum number of characters kept from the source
// text when deriving a chat title.
const titleMaxLen = 30

// DeriveTitle computes a short human-readable label from message text.
// Text at or under the limit is returned unchanged; longer text is cut
// at the limit, trailing whitespace trimmed, and marked with an
// ellipsis.
func DeriveTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleMaxLen {
		return text
	}
	head := strings.TrimRightFunc(string(runes[:titleMaxLen]), unicode.IsSpace)
	return head + "..."
}
