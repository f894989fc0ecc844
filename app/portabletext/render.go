// Package portabletext renders rich text bodies stored as portable text blocks
// into HTML.
package portabletext

import (
	"html/template"
	"net/url"
	"strings"

	"techporium/app/models"
)

// ImageResolver returns the URL of an image asset and whether it resolved.
type ImageResolver func(asset *models.ImageAsset) (string, bool)

var blockTags = map[string]string{
	"normal":     "p",
	"h1":         "h1",
	"h2":         "h2",
	"h3":         "h3",
	"h4":         "h4",
	"h5":         "h5",
	"h6":         "h6",
	"blockquote": "blockquote",
}

var decorators = map[string]string{
	"strong":         "strong",
	"em":             "em",
	"code":           "code",
	"underline":      "u",
	"strike-through": "s",
}

var listTags = map[string]string{
	"bullet": "ul",
	"number": "ol",
}

type openList struct {
	tag  string
	item bool
}

type renderer struct {
	b      strings.Builder
	lists  []openList
	images ImageResolver
}

// Render converts blocks to HTML. Text is escaped; unknown block types and
// images that cannot be resolved are skipped.
func Render(blocks []models.Block, images ImageResolver) template.HTML {
	r := &renderer{images: images}
	for i := range blocks {
		block := &blocks[i]
		if block.ListItem != "" && block.Type == "block" {
			r.listItem(block)
			continue
		}
		r.closeLists(0)
		switch block.Type {
		case "block":
			r.textBlock(block)
		case "image":
			r.image(block)
		}
	}
	r.closeLists(0)
	return template.HTML(r.b.String())
}

func (r *renderer) textBlock(block *models.Block) {
	tag, ok := blockTags[block.Style]
	if !ok {
		tag = "p"
	}
	r.b.WriteString("<" + tag + ">")
	r.spans(block)
	r.b.WriteString("</" + tag + ">")
}

func (r *renderer) listItem(block *models.Block) {
	tag, ok := listTags[block.ListItem]
	if !ok {
		tag = "ul"
	}
	level := block.Level
	if level < 1 {
		level = 1
	}

	r.closeLists(level)
	if n := len(r.lists); n == level && r.lists[n-1].tag != tag {
		r.closeLists(level - 1)
	}
	for len(r.lists) < level {
		if n := len(r.lists); n > 0 && !r.lists[n-1].item {
			r.b.WriteString("<li>")
			r.lists[n-1].item = true
		}
		r.b.WriteString("<" + tag + ">")
		r.lists = append(r.lists, openList{tag: tag})
	}

	top := &r.lists[len(r.lists)-1]
	if top.item {
		r.b.WriteString("</li>")
	}
	r.b.WriteString("<li>")
	top.item = true
	r.spans(block)
}

// closeLists closes open lists until depth remain
func (r *renderer) closeLists(depth int) {
	for len(r.lists) > depth {
		top := r.lists[len(r.lists)-1]
		if top.item {
			r.b.WriteString("</li>")
		}
		r.b.WriteString("</" + top.tag + ">")
		r.lists = r.lists[:len(r.lists)-1]
	}
}

func (r *renderer) image(block *models.Block) {
	if r.images == nil {
		return
	}
	src, ok := r.images(block.Asset)
	if !ok {
		return
	}
	r.b.WriteString(`<figure><img src="`)
	r.b.WriteString(template.HTMLEscapeString(src))
	r.b.WriteString(`" alt="`)
	r.b.WriteString(template.HTMLEscapeString(block.Alt))
	r.b.WriteString(`" loading="lazy"></figure>`)
}

func (r *renderer) spans(block *models.Block) {
	defs := make(map[string]models.MarkDef, len(block.MarkDefs))
	for _, def := range block.MarkDefs {
		defs[def.Key] = def
	}

	for _, span := range block.Children {
		var closing []string
		for _, mark := range span.Marks {
			if tag, ok := decorators[mark]; ok {
				r.b.WriteString("<" + tag + ">")
				closing = append(closing, "</"+tag+">")
				continue
			}
			def, ok := defs[mark]
			if !ok || def.Type != "link" {
				continue
			}
			if href, ok := safeHref(def.Href); ok {
				r.b.WriteString(`<a href="` + template.HTMLEscapeString(href) + `">`)
				closing = append(closing, "</a>")
			}
		}

		r.text(span.Text)
		for i := len(closing) - 1; i >= 0; i-- {
			r.b.WriteString(closing[i])
		}
	}
}

func (r *renderer) text(s string) {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i > 0 {
			r.b.WriteString("<br/>")
		}
		r.b.WriteString(template.HTMLEscapeString(line))
	}
}

// safeHref allows absolute http, https, mailto and tel links and relative links
func safeHref(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto", "tel":
		return href, true
	}
	return "", false
}
