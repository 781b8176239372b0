package pass

import (
	"strings"

	"github.com/jcdickinson/ferrisdoc/internal/doc"
	"github.com/jcdickinson/ferrisdoc/internal/rustdoc"
)

// LinkFunc returns the link an index entry uses to reach t.
type LinkFunc func(t doc.ItemTag) string

// AnchorLink links to an in-page anchor, e.g. "#struct.Widget".
func AnchorLink(t doc.ItemTag) string {
	return "#" + Anchor(t)
}

// Anchor is the anchor id a renderer places before t.
func Anchor(t doc.ItemTag) string {
	return t.Kind().Slug() + "." + slugify(doc.Name(t))
}

// URILink links to the item's rsdoc:// URI.
func URILink(crateName, version string) LinkFunc {
	return func(t doc.ItemTag) string {
		return rustdoc.ItemURI(crateName, version, doc.QualifiedName(t))
	}
}

// FileLink links modules and foreign modules to the page file Paginate
// gives them and everything else to an anchor on the current page.
func FileLink(ext string) LinkFunc {
	return func(t doc.ItemTag) string {
		switch t.(type) {
		case doc.ModDoc, doc.NmodDoc:
			if !t.AsItem().Reexport {
				return PageFile(t, ext)
			}
		}
		return AnchorLink(t)
	}
}

// PageFile names the file a paginated page for t is written to: the full
// path joined with dots, e.g. "serde.de.md".
func PageFile(t doc.ItemTag, ext string) string {
	parts := doc.FullPath(t)
	for i, p := range parts {
		parts[i] = slugify(p)
	}
	return strings.Join(parts, ".") + ext
}

// slugify keeps letters, digits and underscores and folds every other run
// of characters into a single '-'.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Index attaches an Index to every module and foreign module listing its
// children.
func Index(d doc.Doc, link LinkFunc) doc.Doc {
	return doc.Mapper{
		Mod: func(m doc.ModDoc) doc.ModDoc {
			m.Index = buildIndex(m.Items, link)
			return m
		},
		Nmod: func(n doc.NmodDoc) doc.NmodDoc {
			tags := make([]doc.ItemTag, len(n.Fns))
			for i, fn := range n.Fns {
				tags[i] = fn
			}
			n.Index = buildIndex(tags, link)
			return n
		},
	}.Doc(d)
}

func buildIndex(items []doc.ItemTag, link LinkFunc) *doc.Index {
	idx := &doc.Index{}
	for _, t := range items {
		if t == nil {
			continue
		}
		item := t.AsItem()
		idx.Entries = append(idx.Entries, doc.IndexEntry{
			Kind:  t.Kind().String(),
			Name:  item.Name,
			Brief: item.Brief,
			Link:  link(t),
		})
	}
	return idx
}
