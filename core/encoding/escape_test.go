package encoding

import "testing"

func TestEscapeHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "Hello World", "Hello World"},
		{"ampersand", "Tom & Jerry", "Tom &amp; Jerry"},
		{"tag", "<script>", "&lt;script&gt;"},
		{"quotes", `say "hi"`, "say &quot;hi&quot;"},
		{"already escaped", "&amp;", "&amp;amp;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeHTML(tt.input); got != tt.want {
				t.Errorf("EscapeHTML(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeHTMLAttr(t *testing.T) {
	if got, want := EscapeHTMLAttr(`it's "x" & <y>`), "it&#39;s &quot;x&quot; &amp; &lt;y&gt;"; got != want {
		t.Errorf("EscapeHTMLAttr() = %q, want %q", got, want)
	}
}

func TestSingleLine(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"one", "one"},
		{"a\nb", "a b"},
		{"a\r\nb", "a b"},
		{"a\tb\rc", "a b c"},
	}
	for _, tt := range tests {
		if got := SingleLine(tt.input); got != tt.want {
			t.Errorf("SingleLine(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"API Methods", "api-methods"},
		{"  Getting Started!  ", "getting-started"},
		{"v1.0.1 notes", "v1-0-1-notes"},
		{"\u00dcber Caf\u00e9", "\u00fcber-caf\u00e9"},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := Slug(tt.input); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"first line", "# Title\nbody", 50, "# Title"},
		{"skips blank lines", "\n\n  hello  \nworld", 50, "hello"},
		{"cut", "abcdefghij", 4, "abcd..."},
		{"exact length", "abcd", 4, "abcd"},
		{"empty", "", 50, ""},
		{"no limit", "abcdefghij", 0, "abcdefghij"},
		{"runes not bytes", "\u00e9\u00e9\u00e9\u00e9\u00e9", 3, "\u00e9\u00e9\u00e9..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.input, tt.max); got != tt.want {
				t.Errorf("Preview(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}
