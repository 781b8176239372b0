package markdown

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown/ast"
)

// RewriteLinks rewrites markdown link destinations using the provided link map.
// It parses the markdown to AST to find all link destinations, then performs
// targeted string replacements to preserve original formatting.
func RewriteLinks(src string, linkMap map[string]string) string {
	if len(linkMap) == 0 {
		return src
	}

	doc := parse(src)

	// Collect unique destinations that need replacement
	seen := make(map[string]bool)
	type replacement struct {
		oldDest string
		newDest string
	}
	var replacements []replacement

	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if link, ok := node.(*ast.Link); ok {
			dest := string(link.Destination)
			if newDest, ok := linkMap[dest]; ok && !seen[dest] {
				seen[dest] = true
				replacements = append(replacements, replacement{dest, newDest})
			}
		}
		return ast.GoToNext
	})

	if len(replacements) == 0 {
		return src
	}

	result := src

	// Inline links, one pass per replacement.
	for _, r := range replacements {
		result = strings.ReplaceAll(result, "]("+r.oldDest+")", "]("+r.newDest+")")
	}

	// Reference definitions, one pass over the lines.
	refMap := make(map[string]string, len(replacements))
	for _, r := range replacements {
		refMap["]: "+r.oldDest] = "]: " + r.newDest
	}
	lines := strings.Split(result, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for oldSuffix, newSuffix := range refMap {
			if strings.HasSuffix(trimmed, oldSuffix) {
				lines[i] = strings.Replace(line, oldSuffix, newSuffix, 1)
				break
			}
		}
	}
	result = strings.Join(lines, "\n")

	return result
}

// AddFrontMatter prepends a YAML front-matter block with the given fields,
// sorted by key. Values that YAML would misread are quoted.
func AddFrontMatter(src string, fields map[string]string) string {
	if len(fields) == 0 {
		return src
	}

	var b strings.Builder
	b.WriteString("---\n")
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		fmt.Fprintf(&b, "%s: %s\n", k, yamlScalar(fields[k]))
	}
	b.WriteString("---\n\n")
	b.WriteString(src)
	return b.String()
}

// StripFrontMatter removes a leading front-matter block added by
// AddFrontMatter.
func StripFrontMatter(src string) string {
	rest, ok := strings.CutPrefix(src, "---\n")
	if !ok {
		return src
	}
	_, body, ok := strings.Cut(rest, "\n---\n")
	if !ok {
		return src
	}
	return strings.TrimPrefix(body, "\n")
}

func yamlScalar(v string) string {
	if v == "" || strings.Contains(v, ": ") || strings.Contains(v, " #") ||
		strings.ContainsAny(v[:1], "!&*{}[]|>'\"%@`#,?-") || strings.ContainsAny(v, "\n\t") {
		return strconv.Quote(v)
	}
	return v
}
