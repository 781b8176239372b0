// Package doc is the in-memory document model for one crate: a sequence of
// pages holding a tree of modules, functions, types, traits and impls with
// their prose.
//
// The extractor builds a Doc once; everything after that reads it. All
// accessors and narrowing helpers return deep copies, so a Doc can be shared
// by any number of concurrent readers.
package doc

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrNoCratePage        = errors.New("doc: document has no crate page")
	ErrMultipleCratePages = errors.New("doc: document has more than one crate page")
	ErrDuplicateID        = errors.New("doc: id names two different items")
)

// Doc is the output of one documentation run.
type Doc struct {
	Pages Pages
}

// Pages is an ordered page sequence.
type Pages []Page

// Page is either a CratePage or an ItemPage.
type Page interface {
	isPage()
}

// CratePage holds the crate root. A well-formed Doc has exactly one.
type CratePage struct {
	Doc CrateDoc
}

// ItemPage holds a single item rendered on its own page.
type ItemPage struct {
	Tag ItemTag
}

func (CratePage) isPage() {}
func (ItemPage) isPage()  {}

// CrateDoc is the crate root. TopMod carries the crate's name.
type CrateDoc struct {
	TopMod ModDoc
}

func (c CrateDoc) Clone() CrateDoc       { return CrateDoc{TopMod: c.TopMod.Clone()} }
func (c CrateDoc) Equal(o CrateDoc) bool { return c.TopMod.Equal(o.TopMod) }

// CrateDoc returns the payload of the document's single crate page.
//
// A Doc without exactly one crate page is a producer bug, not input to
// recover from: CrateDoc panics with ErrNoCratePage or
// ErrMultipleCratePages. Producers can check with Validate first.
func (d Doc) CrateDoc() CrateDoc {
	c, err := d.crateDoc()
	if err != nil {
		panic(err)
	}
	return c
}

// CrateMod returns the crate's top-level module.
func (d Doc) CrateMod() ModDoc {
	return d.CrateDoc().TopMod
}

func (d Doc) crateDoc() (CrateDoc, error) {
	crates := filterMap([]Page(d.Pages), func(p Page) (CrateDoc, bool) {
		cp, ok := p.(CratePage)
		return cp.Doc, ok
	})
	switch len(crates) {
	case 0:
		return CrateDoc{}, ErrNoCratePage
	case 1:
		return crates[0].Clone(), nil
	default:
		return CrateDoc{}, fmt.Errorf("%w (found %d)", ErrMultipleCratePages, len(crates))
	}
}

// Validate checks the invariants renderers rely on: exactly one crate page,
// and no id naming two different non-reexported items. The same entity may
// appear on more than one page.
func (d Doc) Validate() error {
	if _, err := d.crateDoc(); err != nil {
		return err
	}
	seen := make(map[AstID]ItemTag)
	var err error
	d.Walk(func(t ItemTag) bool {
		item := t.AsItem()
		if item.Reexport {
			return true
		}
		if prev, ok := seen[item.ID]; ok && !TagsEqual(prev, t) {
			err = fmt.Errorf("%w: %d (%s and %s)", ErrDuplicateID, item.ID, QualifiedName(prev), QualifiedName(t))
			return false
		}
		seen[item.ID] = t
		return true
	})
	return err
}

// Walk visits every item on every page in document order, stopping as soon
// as fn returns false. See Walk.
func (d Doc) Walk(fn func(ItemTag) bool) {
	for _, p := range d.Pages {
		switch p := p.(type) {
		case CratePage:
			if !Walk(p.Doc.TopMod, fn) {
				return
			}
		case ItemPage:
			if p.Tag != nil && !Walk(p.Tag, fn) {
				return
			}
		}
	}
}

// FindByID returns a copy of the item with the given id. Reexported copies
// are never returned.
func (d Doc) FindByID(id AstID) (ItemTag, bool) {
	var found ItemTag
	d.Walk(func(t ItemTag) bool {
		item := t.AsItem()
		if item.ID == id && !item.Reexport {
			found = t.cloneTag()
			return false
		}
		return true
	})
	return found, found != nil
}

// FindModule looks up a module by its full path, searching the crate page
// first and then module pages.
func (d Doc) FindModule(path []string) (ModDoc, bool) {
	if m, ok := d.CrateMod().Find(path); ok {
		return m, true
	}
	for _, m := range d.Pages.Mods() {
		if found, ok := m.Find(path); ok {
			return found, true
		}
	}
	return ModDoc{}, false
}

// Find returns a copy of m or of the nested module whose full path equals
// path.
func (m ModDoc) Find(path []string) (ModDoc, bool) {
	full := append(slices.Clip(m.Item.Path), m.Item.Name)
	if slices.Equal(full, path) {
		return m.Clone(), true
	}
	if len(path) <= len(full) || !slices.Equal(full, path[:len(full)]) {
		return ModDoc{}, false
	}
	for _, it := range m.Items {
		if child, ok := it.(ModDoc); ok {
			if found, ok := child.Find(path); ok {
				return found, true
			}
		}
	}
	return ModDoc{}, false
}

func (d Doc) Equal(o Doc) bool {
	return slices.EqualFunc(d.Pages, o.Pages, pageEqual)
}

func pageEqual(a, b Page) bool {
	switch a := a.(type) {
	case CratePage:
		v, ok := b.(CratePage)
		return ok && a.Doc.Equal(v.Doc)
	case ItemPage:
		v, ok := b.(ItemPage)
		return ok && TagsEqual(a.Tag, v.Tag)
	default:
		return a == nil && b == nil
	}
}
