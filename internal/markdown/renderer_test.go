package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{name: "heading", input: "# Hello", contains: `<h1 id="hello">Hello</h1>`},
		{name: "table", input: "| A | B |\n|---|---|\n| 1 | 2 |", contains: "<table>"},
		{name: "strikethrough", input: "~~gone~~", contains: "<del>gone</del>"},
		{name: "autolink", input: "see https://example.com now", contains: `<a href="https://example.com"`},
		{name: "heading id", input: "## Opening Hours", contains: `id="opening-hours"`},
	}

	r := NewRenderer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render([]byte(tt.input))
			require.NoError(t, err)
			assert.Contains(t, string(out), tt.contains)
		})
	}
}

func TestRenderer_DropsRawHTML(t *testing.T) {
	out, err := NewRenderer().RenderHTML(`<script>alert(1)</script>`)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script>")
}

func TestRenderer_Empty(t *testing.T) {
	out, err := NewRenderer().Render(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
