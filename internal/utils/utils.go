package utils

import (
	"golang.org/x/net/html"
	"strings"
)

// StripTags returns the text content of an HTML fragment with all markup removed.
// Entities are decoded; script and style bodies are dropped.
func StripTags(fragment string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; keep what was read so far
			return sb.String()
		case html.StartTagToken:
			if isRawTextTag(z) {
				skip++
			}
		case html.EndTagToken:
			if isRawTextTag(z) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	return string(name) == "script" || string(name) == "style"
}

// CreateExcerpt derives a plain-text excerpt from HTML content: tags are stripped and
// texts longer than maxLength characters are cut and suffixed with "...".
//
// Examples:
//
//	CreateExcerpt("<p>short</p>", 150) => "short"
//	CreateExcerpt("<b>abcdef</b>", 3)  => "abc..."
func CreateExcerpt(content string, maxLength int) string {
	if len(content) == 0 {
		return ""
	}

	plain := []rune(StripTags(content))
	if len(plain) <= maxLength {
		return string(plain)
	}
	return string(plain[:maxLength]) + "..."
}
