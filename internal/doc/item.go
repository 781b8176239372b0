package doc

import (
	"slices"
	"strings"
)

// AstID identifies an item. The extractor assigns it from the rustdoc item id;
// synthetic containers (foreign modules) get negative ids.
type AstID int

// Section is a block of documentation split out of a description at a
// top-level markdown heading.
type Section struct {
	Header string
	Body   string
}

// ItemDoc is the documentation shared by every documentable entity.
type ItemDoc struct {
	ID   AstID
	Name string
	// Path is the enclosing module path, crate name first. It does not
	// include Name; see FullPath.
	Path     []string
	Brief    *string
	Desc     *string
	Sections []Section
	// Reexport marks a copy of an item that is reachable through a `pub use`.
	Reexport bool
}

// Clone returns a deep copy of d.
func (d ItemDoc) Clone() ItemDoc {
	d.Path = slices.Clone(d.Path)
	d.Brief = cloneStr(d.Brief)
	d.Desc = cloneStr(d.Desc)
	d.Sections = slices.Clone(d.Sections)
	return d
}

// Equal reports whether d and o are structurally identical, including the
// reexport flag.
func (d ItemDoc) Equal(o ItemDoc) bool {
	return d.ID == o.ID &&
		d.Name == o.Name &&
		slices.Equal(d.Path, o.Path) &&
		strEqual(d.Brief, o.Brief) &&
		strEqual(d.Desc, o.Desc) &&
		slices.Equal(d.Sections, o.Sections) &&
		d.Reexport == o.Reexport
}

// Item is implemented by every entity variant and by ItemTag itself.
// AsItem returns a copy of the entity's ItemDoc.
type Item interface {
	AsItem() ItemDoc
}

func ID(it Item) AstID { return it.AsItem().ID }

func Name(it Item) string { return it.AsItem().Name }

func Path(it Item) []string { return it.AsItem().Path }

func Brief(it Item) *string { return it.AsItem().Brief }

func Desc(it Item) *string { return it.AsItem().Desc }

func Sections(it Item) []Section { return it.AsItem().Sections }

// FullPath returns the item's module path followed by its own name.
func FullPath(it Item) []string {
	d := it.AsItem()
	return append(d.Path, d.Name)
}

// QualifiedName joins FullPath with "::", e.g. "serde::de::Deserialize".
func QualifiedName(it Item) string {
	return strings.Join(FullPath(it), "::")
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}

func strEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
