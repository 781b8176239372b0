// Package render turns document pages into markdown and HTML.
package render

import (
	"fmt"
	"strings"

	"github.com/jcdickinson/ferrisdoc/internal/doc"
	"github.com/jcdickinson/ferrisdoc/internal/markdown"
	"github.com/jcdickinson/ferrisdoc/internal/pass"
)

const maxHeading = 6

// Markdown renders one page. A crate page is titled after the crate; an
// item page after the item's qualified name.
func Markdown(p doc.Page) string {
	var w writer
	switch p := p.(type) {
	case doc.CratePage:
		top := p.Doc.TopMod
		w.heading(1, fmt.Sprintf("Crate `%s`", top.Item.Name))
		w.body(top, 1)
	case doc.ItemPage:
		if p.Tag != nil {
			w.item(p.Tag, 1)
		}
	}
	return w.String()
}

// Item renders a single item, with everything nested in it, as a standalone
// markdown document.
func Item(t doc.ItemTag) string {
	var w writer
	w.item(t, 1)
	return w.String()
}

// Title returns the plain-text title Markdown uses for p.
func Title(p doc.Page) string {
	switch p := p.(type) {
	case doc.CratePage:
		return "Crate " + p.Doc.TopMod.Item.Name
	case doc.ItemPage:
		if p.Tag != nil {
			return p.Tag.Kind().String() + " " + doc.QualifiedName(p.Tag)
		}
	}
	return ""
}

type writer struct {
	strings.Builder
}

func (w *writer) heading(level int, text string) {
	fmt.Fprintf(w, "%s %s\n\n", strings.Repeat("#", min(level, maxHeading)), text)
}

func (w *writer) para(s *string) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return
	}
	w.WriteString(strings.TrimSpace(*s))
	w.WriteString("\n\n")
}

func (w *writer) code(sig string) {
	if sig == "" {
		return
	}
	fmt.Fprintf(w, "```rust\n%s\n```\n\n", sig)
}

// item writes the heading of t followed by its body. Items below the page
// title get an anchor matching pass.Anchor.
func (w *writer) item(t doc.ItemTag, level int) {
	name := doc.Name(t)
	if level == 1 {
		name = doc.QualifiedName(t)
	} else {
		fmt.Fprintf(w, "<a id=\"%s\"></a>\n\n", pass.Anchor(t))
	}
	w.heading(level, fmt.Sprintf("%s `%s`", t.Kind(), name))
	w.body(t, level)
}

func (w *writer) body(t doc.ItemTag, level int) {
	it := t.AsItem()
	if it.Reexport && level > 1 {
		w.WriteString("*Re-exported.*\n\n")
	}

	w.code(Signature(t))

	w.para(it.Brief)
	w.para(it.Desc)
	for _, s := range it.Sections {
		w.heading(level+1, s.Header)
		w.para(&s.Body)
	}

	switch t := t.(type) {
	case doc.ModDoc:
		w.index(t.Index, level)
		for _, child := range t.Items {
			if child != nil {
				w.item(child, level+1)
			}
		}
	case doc.NmodDoc:
		w.index(t.Index, level)
		for _, fn := range t.Fns {
			w.item(fn, level+1)
		}
	case doc.StructDoc:
		if len(t.Fields) > 0 {
			w.heading(level+1, "Fields")
			for _, f := range t.Fields {
				fmt.Fprintf(w, "- `%s`\n", f)
			}
			w.WriteString("\n")
		}
	case doc.EnumDoc:
		w.variants(t.Variants, level)
	case doc.TraitDoc:
		w.methods("Required Methods", t.Methods, doc.Required, level)
		w.methods("Provided Methods", t.Methods, doc.Provided, level)
	case doc.ImplDoc:
		if len(t.Methods) > 0 {
			w.heading(level+1, "Methods")
			for _, m := range t.Methods {
				w.method(m, level+2)
			}
		}
	}
}

func (w *writer) index(idx *doc.Index, level int) {
	if idx == nil || len(idx.Entries) == 0 {
		return
	}
	w.heading(level+1, "Contents")
	w.WriteString("| Kind | Name | Description |\n|---|---|---|\n")
	for _, e := range idx.Entries {
		brief := ""
		if e.Brief != nil {
			brief = markdown.PlainText(*e.Brief)
		}
		fmt.Fprintf(w, "| %s | [`%s`](%s) | %s |\n", e.Kind, cell(e.Name), e.Link, cell(brief))
	}
	w.WriteString("\n")
}

func (w *writer) variants(vs []doc.VariantDoc, level int) {
	if len(vs) == 0 {
		return
	}
	w.heading(level+1, "Variants")
	for _, v := range vs {
		sig := v.Name
		if v.Sig != nil && *v.Sig != "" {
			sig = *v.Sig
		}
		fmt.Fprintf(w, "- `%s`", sig)
		if v.Desc != nil && *v.Desc != "" {
			fmt.Fprintf(w, ": %s", markdown.PlainText(markdown.FirstParagraph(*v.Desc)))
		}
		w.WriteString("\n")
	}
	w.WriteString("\n")
}

func (w *writer) methods(title string, ms []doc.MethodDoc, impl doc.Implementation, level int) {
	var matching []doc.MethodDoc
	for _, m := range ms {
		if m.Implementation == impl {
			matching = append(matching, m)
		}
	}
	if len(matching) == 0 {
		return
	}
	w.heading(level+1, title)
	for _, m := range matching {
		w.method(m, level+2)
	}
}

func (w *writer) method(m doc.MethodDoc, level int) {
	w.heading(level, fmt.Sprintf("`%s`", m.Name))
	w.code(doc.StringValue(m.Sig))
	w.para(m.Brief)
	w.para(m.Desc)
	for _, s := range m.Sections {
		w.heading(level+1, s.Header)
		w.para(&s.Body)
	}
}

// Signature returns the declaration shown above an item's docs. Impls are
// named by their first line, e.g. "impl<T: Clone> Display for Wrapper<T>";
// modules, enums and traits have none.
func Signature(t doc.ItemTag) string {
	switch t := t.(type) {
	case doc.ConstDoc:
		return doc.StringValue(t.Sig)
	case doc.FnDoc:
		return doc.StringValue(t.Sig)
	case doc.TyDoc:
		return doc.StringValue(t.Sig)
	case doc.StructDoc:
		return doc.StringValue(t.Sig)
	case doc.ImplDoc:
		return t.Item.Name
	}
	return ""
}

// cell escapes text for a markdown table cell.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
