package doc

import "fmt"

// Walk calls fn for t and then, depth first, for every item nested in it
// (module children and foreign module functions). It stops as soon as fn
// returns false and reports whether it ran to completion. fn receives the
// tree's own values and must not modify them.
func Walk(t ItemTag, fn func(ItemTag) bool) bool {
	if !fn(t) {
		return false
	}
	switch t := t.(type) {
	case ModDoc:
		for _, child := range t.Items {
			if child != nil && !Walk(child, fn) {
				return false
			}
		}
	case NmodDoc:
		for _, f := range t.Fns {
			if !Walk(f, fn) {
				return false
			}
		}
	}
	return true
}

// Mapper rebuilds a document bottom-up. Item is applied to every ItemDoc
// and Method to every trait and impl method; Mod and Nmod then see each
// container after its children were mapped. Nil funcs are identity.
//
// The input is never modified: Mapper works on copies.
type Mapper struct {
	Item   func(ItemDoc) ItemDoc
	Method func(MethodDoc) MethodDoc
	Mod    func(ModDoc) ModDoc
	Nmod   func(NmodDoc) NmodDoc
}

// Doc maps every page of d.
func (m Mapper) Doc(d Doc) Doc {
	pages := make(Pages, 0, len(d.Pages))
	for _, p := range d.Pages {
		switch p := p.(type) {
		case CratePage:
			pages = append(pages, CratePage{Doc: CrateDoc{TopMod: m.mod(p.Doc.TopMod)}})
		case ItemPage:
			pages = append(pages, ItemPage{Tag: m.Tag(p.Tag)})
		default:
			pages = append(pages, p)
		}
	}
	return Doc{Pages: pages}
}

// Tag maps a single item and everything under it.
func (m Mapper) Tag(t ItemTag) ItemTag {
	switch t := t.(type) {
	case nil:
		return nil
	case ModDoc:
		return m.mod(t)
	case NmodDoc:
		return m.nmod(t)
	case ConstDoc:
		return ConstDoc{m.simple(t.SimpleItemDoc)}
	case FnDoc:
		return m.fn(t)
	case EnumDoc:
		t = t.Clone()
		t.Item = m.item(t.Item)
		return t
	case TraitDoc:
		t = t.Clone()
		t.Item = m.item(t.Item)
		t.Methods = m.methods(t.Methods)
		return t
	case ImplDoc:
		t = t.Clone()
		t.Item = m.item(t.Item)
		t.Methods = m.methods(t.Methods)
		return t
	case TyDoc:
		return TyDoc{m.simple(t.SimpleItemDoc)}
	case StructDoc:
		t = t.Clone()
		t.Item = m.item(t.Item)
		return t
	default:
		panic(fmt.Sprintf("doc: unhandled item tag %T", t))
	}
}

func (m Mapper) mod(d ModDoc) ModDoc {
	out := ModDoc{Item: m.item(d.Item.Clone()), Index: d.Index.Clone()}
	if d.Items != nil {
		out.Items = make([]ItemTag, len(d.Items))
		for i, child := range d.Items {
			out.Items[i] = m.Tag(child)
		}
	}
	if m.Mod != nil {
		out = m.Mod(out)
	}
	return out
}

func (m Mapper) nmod(d NmodDoc) NmodDoc {
	out := NmodDoc{Item: m.item(d.Item.Clone()), Index: d.Index.Clone()}
	if d.Fns != nil {
		out.Fns = make([]FnDoc, len(d.Fns))
		for i, fn := range d.Fns {
			out.Fns[i] = m.fn(fn)
		}
	}
	if m.Nmod != nil {
		out = m.Nmod(out)
	}
	return out
}

func (m Mapper) fn(d FnDoc) FnDoc {
	return FnDoc{m.simple(d.SimpleItemDoc)}
}

func (m Mapper) simple(d SimpleItemDoc) SimpleItemDoc {
	d = d.Clone()
	d.Item = m.item(d.Item)
	return d
}

func (m Mapper) item(d ItemDoc) ItemDoc {
	if m.Item == nil {
		return d
	}
	return m.Item(d)
}

func (m Mapper) methods(ms []MethodDoc) []MethodDoc {
	if m.Method == nil {
		return ms
	}
	for i := range ms {
		ms[i] = m.Method(ms[i])
	}
	return ms
}
