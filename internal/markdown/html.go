package markdown

import (
	"html"

	gm "github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
)

// ToHTML renders markdown as an HTML fragment.
func ToHTML(src string) string {
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags,
	})
	return string(gm.Render(parse(src), renderer))
}

// Page wraps rendered HTML in a minimal standalone document.
func Page(title, body string) string {
	return "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>" +
		html.EscapeString(title) + "</title>\n</head>\n<body>\n" + body + "</body>\n</html>\n"
}
