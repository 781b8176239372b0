package markdown

import (
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"
	"golang.org/x/net/html"

	"github.com/jcdickinson/ferrisdoc/internal/doc"
)

const extensions = gmparser.CommonExtensions | gmparser.Autolink

func parse(src string) ast.Node {
	return gm.Parse([]byte(src), gmparser.NewWithExtensions(extensions))
}

// Sectionalize splits markdown at its top-level level-1 headings. The text
// before the first heading is returned as the description, nil when blank.
// Headings inside code blocks, lists or quotes don't split the text.
func Sectionalize(src string) (*string, []doc.Section) {
	src = strings.ReplaceAll(strings.ReplaceAll(src, "\r\n", "\n"), "\r", "\n")

	starts := blockStarts(src)
	var heads []heading
	for i, start := range starts {
		end := len(src)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		if h, ok := headingBlock(src[start:end]); ok {
			h.start += start
			h.end = end
			heads = append(heads, h)
		}
	}
	if len(heads) == 0 {
		return nonBlank(src), nil
	}

	desc := nonBlank(src[:heads[0].start])
	sections := make([]doc.Section, 0, len(heads))
	for i, h := range heads {
		end := len(src)
		if i+1 < len(heads) {
			end = heads[i+1].start
		}
		sections = append(sections, doc.Section{
			Header: h.text,
			Body:   strings.TrimSpace(src[h.end:end]),
		})
	}
	return desc, sections
}

// heading is a level-1 heading block: its text and its byte span in the
// source.
type heading struct {
	text       string
	start, end int
}

// blockStarts returns the offsets at which the parser starts a top-level
// block, in order. Nested blocks are parsed from copied buffers, so only
// calls on a suffix of the input are top-level.
func blockStarts(src string) []int {
	var base []byte
	var starts []int
	p := gmparser.NewWithExtensions(extensions)
	p.Opts.ParserHook = func(data []byte) (ast.Node, []byte, int) {
		if base == nil {
			base = data
		}
		n := len(data)
		if n == 0 || n > len(base) || &data[n-1] != &base[len(base)-1] {
			return nil, nil, 0
		}
		off := len(base) - n
		if len(starts) == 0 || off > starts[len(starts)-1] {
			starts = append(starts, off)
		}
		return nil, nil, 0
	}
	p.Parse([]byte(src))
	return starts
}

// headingBlock reports whether one top-level block is a level-1 heading.
// A setext underline below several lines leaves a paragraph followed by a
// heading in the parse tree; the whole paragraph is taken as the heading
// text.
func headingBlock(block string) (heading, bool) {
	children := parse(block).GetChildren()
	if len(children) == 0 {
		return heading{}, false
	}
	h, ok := children[len(children)-1].(*ast.Heading)
	if !ok || h.Level != 1 {
		return heading{}, false
	}

	var parts []string
	for _, c := range children {
		if _, ok := c.(*ast.Paragraph); ok || c == h {
			parts = append(parts, extractNodeText(c))
		}
	}
	leading := len(block) - len(strings.TrimLeft(block, " \t\n"))
	return heading{
		text:  strings.Join(strings.Fields(strings.Join(parts, " ")), " "),
		start: leading,
	}, true
}

func fenceMarker(trimmed string) string {
	for _, f := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, f) {
			return f
		}
	}
	return ""
}

// FirstParagraph returns the markdown source of the first top-level
// paragraph, or "" when there is none.
func FirstParagraph(src string) string {
	for _, block := range blocks(src) {
		children := parse(block).GetChildren()
		if len(children) == 0 {
			continue
		}
		if _, ok := children[0].(*ast.Paragraph); ok {
			return block
		}
	}
	return ""
}

// blocks splits src on blank lines, keeping fenced code blocks whole.
func blocks(src string) []string {
	var out []string
	var cur []string
	fence := ""
	flush := func() {
		if text := strings.TrimSpace(strings.Join(cur, "\n")); text != "" {
			out = append(out, text)
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case fence != "":
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
		case fenceMarker(trimmed) != "":
			fence = fenceMarker(trimmed)
		case trimmed == "":
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}

// extractNodeText recursively extracts text content from an AST node.
func extractNodeText(node ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch n := n.(type) {
		case *ast.HTMLSpan:
			b.WriteString(htmlText(n.Literal))
		case *ast.HTMLBlock:
			b.WriteString(" " + htmlText(n.Literal) + " ")
		default:
			if leaf := n.AsLeaf(); leaf != nil && leaf.Literal != nil {
				b.Write(leaf.Literal)
			}
		}
		return ast.GoToNext
	})
	return strings.TrimSpace(b.String())
}

// htmlText returns the text of raw inline or block HTML without its tags.
func htmlText(raw []byte) string {
	var b strings.Builder
	z := html.NewTokenizerFragment(strings.NewReader(string(raw)), "div")
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isHidden(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isHidden(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isHidden(tag string) bool {
	return tag == "script" || tag == "style"
}

// PlainText flattens markdown to its text content on a single line.
func PlainText(src string) string {
	return strings.Join(strings.Fields(extractNodeText(parse(src))), " ")
}

func nonBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
