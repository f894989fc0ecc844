package portabletext

import (
	"testing"

	"techporium/app/models"

	"github.com/stretchr/testify/assert"
)

func text(style string, spans ...models.Span) models.Block {
	return models.Block{Type: "block", Style: style, Children: spans}
}

func span(s string, marks ...string) models.Span {
	return models.Span{Type: "span", Text: s, Marks: marks}
}

func item(kind string, level int, s string) models.Block {
	return models.Block{Type: "block", Style: "normal", ListItem: kind, Level: level, Children: []models.Span{span(s)}}
}

func TestRenderBlocks(t *testing.T) {
	tests := []struct {
		name   string
		blocks []models.Block
		want   string
	}{
		{"empty", nil, ""},
		{"paragraph", []models.Block{text("normal", span("Hello "), span("world"))}, "<p>Hello world</p>"},
		{"unknown style", []models.Block{text("fancy", span("x"))}, "<p>x</p>"},
		{"headings", []models.Block{text("h1", span("A")), text("h2", span("B"))}, "<h1>A</h1><h2>B</h2>"},
		{"quote", []models.Block{text("blockquote", span("Q"))}, "<blockquote>Q</blockquote>"},
		{"escapes", []models.Block{text("normal", span("<script>&"))}, "<p>&lt;script&gt;&amp;</p>"},
		{"line breaks", []models.Block{text("normal", span("a\nb"))}, "<p>a<br/>b</p>"},
		{
			"decorators",
			[]models.Block{text("normal", span("b", "strong", "em"), span("c", "code"), span("u", "underline"), span("s", "strike-through"))},
			"<p><strong><em>b</em></strong><code>c</code><u>u</u><s>s</s></p>",
		},
		{"unknown mark", []models.Block{text("normal", span("x", "sparkle"))}, "<p>x</p>"},
		{"skips unknown block types", []models.Block{{Type: "code"}, text("normal", span("x"))}, "<p>x</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(Render(tt.blocks, nil)))
		})
	}
}

func TestRenderLinks(t *testing.T) {
	block := models.Block{
		Type:  "block",
		Style: "normal",
		Children: []models.Span{
			span("safe", "l1", "strong"),
			span(" "),
			span("evil", "l2"),
			span(" "),
			span("rel", "l3"),
		},
		MarkDefs: []models.MarkDef{
			{Type: "link", Key: "l1", Href: "https://example.com/?a=1&b=2"},
			{Type: "link", Key: "l2", Href: "javascript:alert(1)"},
			{Type: "link", Key: "l3", Href: "/post/other"},
		},
	}

	got := string(Render([]models.Block{block}, nil))
	assert.Equal(t, `<p><a href="https://example.com/?a=1&amp;b=2"><strong>safe</strong></a> evil <a href="/post/other">rel</a></p>`, got)
}

func TestRenderLists(t *testing.T) {
	t.Run("flat lists", func(t *testing.T) {
		blocks := []models.Block{
			item("bullet", 1, "a"),
			item("bullet", 1, "b"),
			item("number", 1, "one"),
			text("normal", span("after")),
		}
		assert.Equal(t, "<ul><li>a</li><li>b</li></ul><ol><li>one</li></ol><p>after</p>", string(Render(blocks, nil)))
	})

	t.Run("nested list", func(t *testing.T) {
		blocks := []models.Block{
			item("bullet", 1, "a"),
			item("number", 2, "a1"),
			item("number", 2, "a2"),
			item("bullet", 1, "b"),
		}
		assert.Equal(t, "<ul><li>a<ol><li>a1</li><li>a2</li></ol></li><li>b</li></ul>", string(Render(blocks, nil)))
	})

	t.Run("list closed at end", func(t *testing.T) {
		assert.Equal(t, "<ul><li>a</li></ul>", string(Render([]models.Block{item("bullet", 0, "a")}, nil)))
	})
}

func TestRenderImages(t *testing.T) {
	resolver := func(asset *models.ImageAsset) (string, bool) {
		if asset == nil {
			return "", false
		}
		return "https://cdn.example.com/" + asset.Ref + ".png", true
	}
	blocks := []models.Block{
		{Type: "image", Asset: &models.ImageAsset{Ref: "abc"}, Alt: `a "cat"`},
		{Type: "image"},
	}

	got := string(Render(blocks, resolver))
	assert.Equal(t, `<figure><img src="https://cdn.example.com/abc.png" alt="a &#34;cat&#34;" loading="lazy"></figure>`, got)
	assert.Empty(t, string(Render(blocks, nil)))
}

func TestSafeHref(t *testing.T) {
	for _, href := range []string{"https://a.b", "http://a.b", "mailto:x@y.z", "/p", "#top", "tel:123"} {
		_, ok := safeHref(href)
		assert.True(t, ok, href)
	}
	for _, href := range []string{"", "javascript:alert(1)", "JavaScript:x", "data:text/html,x", "vbscript:x"} {
		_, ok := safeHref(href)
		assert.False(t, ok, href)
	}
}
