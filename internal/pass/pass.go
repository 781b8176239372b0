// Package pass holds the transformations applied to an extracted document
// before it is rendered.
package pass

import (
	"strings"

	"github.com/jcdickinson/ferrisdoc/internal/config"
	"github.com/jcdickinson/ferrisdoc/internal/doc"
	"github.com/jcdickinson/ferrisdoc/internal/markdown"
)

type Options struct {
	Style config.OutputStyle
	// Link builds index links; AnchorLink when nil.
	Link LinkFunc
}

// Run applies Sectionalize, Brief, Index and Paginate in that order.
func Run(d doc.Doc, opts Options) doc.Doc {
	link := opts.Link
	if link == nil {
		link = AnchorLink
	}
	d = Sectionalize(d)
	d = Brief(d)
	d = Index(d, link)
	return Paginate(d, opts.Style)
}

// Sectionalize moves every level-1 section of a description into the
// item's Sections, keeping the text before the first heading as the
// description.
func Sectionalize(d doc.Doc) doc.Doc {
	return doc.Mapper{
		Item: func(it doc.ItemDoc) doc.ItemDoc {
			if it.Desc != nil {
				var sections []doc.Section
				it.Desc, sections = markdown.Sectionalize(*it.Desc)
				it.Sections = append(it.Sections, sections...)
			}
			return it
		},
		Method: func(m doc.MethodDoc) doc.MethodDoc {
			if m.Desc != nil {
				var sections []doc.Section
				m.Desc, sections = markdown.Sectionalize(*m.Desc)
				m.Sections = append(m.Sections, sections...)
			}
			return m
		},
	}.Doc(d)
}

// Brief sets the brief of every item without one to the first paragraph of
// its description. A description that is nothing but its brief is cleared.
func Brief(d doc.Doc) doc.Doc {
	return doc.Mapper{
		Item: func(it doc.ItemDoc) doc.ItemDoc {
			it.Brief, it.Desc = brief(it.Brief, it.Desc)
			return it
		},
		Method: func(m doc.MethodDoc) doc.MethodDoc {
			m.Brief, m.Desc = brief(m.Brief, m.Desc)
			return m
		},
	}.Doc(d)
}

func brief(b, desc *string) (*string, *string) {
	if b != nil || desc == nil {
		return b, desc
	}
	first := markdown.FirstParagraph(*desc)
	if first == "" {
		return nil, desc
	}
	if strings.TrimSpace(*desc) == first {
		return &first, nil
	}
	return &first, desc
}
