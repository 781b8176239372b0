package pass

import (
	"github.com/jcdickinson/ferrisdoc/internal/config"
	"github.com/jcdickinson/ferrisdoc/internal/doc"
)

// Paginate splits the document into pages. DocPerCrate keeps everything on
// the crate page. DocPerMod gives every nested module and foreign module its
// own item page, in depth-first order after the page that contained it, and
// removes it from its parent's children. Indexes are left alone, so a parent
// still lists the modules that moved out. Reexported modules stay inline.
func Paginate(d doc.Doc, style config.OutputStyle) doc.Doc {
	if style != config.DocPerMod {
		return doc.Mapper{}.Doc(d)
	}

	var pages doc.Pages
	for _, p := range d.Pages {
		switch p := p.(type) {
		case doc.CratePage:
			top, rest := split(p.Doc.TopMod)
			pages = append(pages, doc.CratePage{Doc: doc.CrateDoc{TopMod: top}})
			pages = append(pages, rest...)
		case doc.ItemPage:
			if m, ok := p.Tag.(doc.ModDoc); ok {
				top, rest := split(m)
				pages = append(pages, doc.ItemPage{Tag: top})
				pages = append(pages, rest...)
				continue
			}
			pages = append(pages, doc.ItemPage{Tag: doc.CloneTag(p.Tag)})
		}
	}
	return doc.Doc{Pages: pages}
}

func split(m doc.ModDoc) (doc.ModDoc, doc.Pages) {
	m = m.Clone()
	var pages doc.Pages
	kept := m.Items[:0]
	for _, child := range m.Items {
		if child != nil && !child.AsItem().Reexport {
			switch c := child.(type) {
			case doc.ModDoc:
				sub, rest := split(c)
				pages = append(pages, doc.ItemPage{Tag: sub})
				pages = append(pages, rest...)
				continue
			case doc.NmodDoc:
				pages = append(pages, doc.ItemPage{Tag: c})
				continue
			}
		}
		kept = append(kept, child)
	}
	m.Items = kept
	return m, pages
}
