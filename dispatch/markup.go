package dispatch

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// ToMrkdwn converts an HTML fragment, as produced by rich text editors,
// into Slack mrkdwn. Bodies that don't start with a tag are taken to be
// mrkdwn already and are returned unchanged
func ToMrkdwn(body string) string {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "<") {
		return body
	}

	doc, err := htmlquery.Parse(strings.NewReader(trimmed))
	if err != nil {
		return body
	}

	root := htmlquery.FindOne(doc, "//body")
	if root == nil {
		root = doc
	}

	converted := renderChildren(root)
	for strings.Contains(converted, "\n\n\n") {
		converted = strings.ReplaceAll(converted, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(converted)
}

func renderChildren(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(&b, c)
	}
	return b.String()
}

func renderNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(mrkdwnEscaper.Replace(n.Data))
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.Data {
	case "b", "strong":
		wrap(b, "*", renderChildren(n))
	case "i", "em":
		wrap(b, "_", renderChildren(n))
	case "s", "strike", "del":
		wrap(b, "~", renderChildren(n))
	case "code":
		wrap(b, "`", renderChildren(n))
	case "a":
		text := renderChildren(n)
		href := strings.TrimSpace(htmlquery.SelectAttr(n, "href"))
		if href == "" {
			b.WriteString(text)
		} else if strings.TrimSpace(text) == "" {
			b.WriteString("<" + href + ">")
		} else {
			b.WriteString("<" + href + "|" + strings.TrimSpace(text) + ">")
		}
	case "br":
		b.WriteString("\n")
	case "li":
		b.WriteString("• " + strings.TrimSpace(renderChildren(n)) + "\n")
	case "p", "div", "ul", "ol", "blockquote", "h1", "h2", "h3", "h4", "h5", "h6":
		b.WriteString(renderChildren(n))
		b.WriteString("\n\n")
	case "script", "style":
	default:
		b.WriteString(renderChildren(n))
	}
}

// wrap surrounds non-blank text with a mrkdwn marker
func wrap(b *strings.Builder, marker string, text string) {
	if strings.TrimSpace(text) == "" {
		b.WriteString(text)
		return
	}
	b.WriteString(marker + strings.TrimSpace(text) + marker)
}
