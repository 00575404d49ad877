package utils_test

import (
	"portfolio-site/internal/utils"
	"strings"
	"testing"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"plain text", "plain text"},
		{"<p>fish &amp; chips</p>", "fish & chips"},
		{"<style>p{color:red}</style><p>kept</p><script>alert(1)</script>", "kept"},
		{"", ""},
	}

	for _, tt := range tests {
		got := utils.StripTags(tt.input)
		if got != tt.want {
			t.Errorf("StripTags(%q) = %q; want %q", tt.input, got, tt.want)
		}
	}
}

func TestCreateExcerpt(t *testing.T) {
	long := "<p>" + strings.Repeat("a", 160) + "</p>"

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{name: "empty", input: "", maxLength: 150, want: ""},
		{name: "short", input: "<p>short</p>", maxLength: 150, want: "short"},
		{name: "cut", input: "<b>abcdef</b>", maxLength: 3, want: "abc..."},
		{name: "exact length is not cut", input: "<i>abc</i>", maxLength: 3, want: "abc"},
		{name: "long", input: long, maxLength: 150, want: strings.Repeat("a", 150) + "..."},
		{name: "multibyte", input: "<p>äöüß</p>", maxLength: 2, want: "äö..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := utils.CreateExcerpt(tt.input, tt.maxLength)
			if got != tt.want {
				t.Errorf("CreateExcerpt(%q, %d) = %q; want %q", tt.input, tt.maxLength, got, tt.want)
			}
		})
	}
}
