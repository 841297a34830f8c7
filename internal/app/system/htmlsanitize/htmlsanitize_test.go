package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/circlehub/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Hello, World!", "Hello, World!"},
		{"strips tags", "<p><strong>Bold</strong> and <em>italic</em></p>", "Bold and italic"},
		{"drops script", "<p>Hi</p><script>alert('xss')</script>", "Hi"},
		{"drops attributes", `<a href="javascript:alert(1)" onclick="x()">Click</a>`, "Click"},
		{"keeps ampersand", "Tom & Jerry", "Tom & Jerry"},
		{"collapses whitespace", "  a\n\n  b\t c  ", "a b c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"héllo wörld", 5, "héllo"},
		{"two words", 4, "two"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := htmlsanitize.Truncate(tt.input, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}
