package format

import "strings"

// mdV2Specials are the characters Telegram requires escaped in MarkdownV2 text.
const mdV2Specials = "_*[]()~`>#+-=|{}.!\\"

// EscapeMarkdownV2 escapes every MarkdownV2 special character in text.
func EscapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(mdV2Specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Bold wraps already escaped text in MarkdownV2 bold markers.
func Bold(escaped string) string {
	return "*" + escaped + "*"
}
