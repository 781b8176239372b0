package doc

import "slices"

// ItemTag is the closed set of entity variants a module can hold:
// ModDoc, NmodDoc, ConstDoc, FnDoc, EnumDoc, TraitDoc, ImplDoc, TyDoc and
// StructDoc. The unexported methods keep the set closed to this package.
type ItemTag interface {
	Item
	Kind() Kind
	cloneTag() ItemTag
	equalTag(ItemTag) bool
}

// TagsEqual reports whether a and b hold the same variant with equal
// contents.
func TagsEqual(a, b ItemTag) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.equalTag(b)
}

// CloneTag returns a deep copy of t.
func CloneTag(t ItemTag) ItemTag {
	if t == nil {
		return nil
	}
	return t.cloneTag()
}

// ModDoc documents a module.
type ModDoc struct {
	Item  ItemDoc
	Items []ItemTag
	Index *Index
}

func (d ModDoc) AsItem() ItemDoc { return d.Item.Clone() }
func (ModDoc) Kind() Kind        { return KindMod }

func (d ModDoc) Clone() ModDoc {
	return ModDoc{Item: d.Item.Clone(), Items: cloneEach(d.Items, CloneTag), Index: d.Index.Clone()}
}

func (d ModDoc) Equal(o ModDoc) bool {
	return d.Item.Equal(o.Item) &&
		slices.EqualFunc(d.Items, o.Items, TagsEqual) &&
		d.Index.Equal(o.Index)
}

func (d ModDoc) cloneTag() ItemTag { return d.Clone() }

func (d ModDoc) equalTag(o ItemTag) bool {
	v, ok := o.(ModDoc)
	return ok && d.Equal(v)
}

// NmodDoc documents a foreign module (an extern block).
type NmodDoc struct {
	Item  ItemDoc
	Fns   []FnDoc
	Index *Index
}

func (d NmodDoc) AsItem() ItemDoc { return d.Item.Clone() }
func (NmodDoc) Kind() Kind        { return KindNmod }

func (d NmodDoc) Clone() NmodDoc {
	return NmodDoc{Item: d.Item.Clone(), Fns: cloneEach(d.Fns, FnDoc.Clone), Index: d.Index.Clone()}
}

func (d NmodDoc) Equal(o NmodDoc) bool {
	return d.Item.Equal(o.Item) &&
		slices.EqualFunc(d.Fns, o.Fns, FnDoc.Equal) &&
		d.Index.Equal(o.Index)
}

func (d NmodDoc) cloneTag() ItemTag { return d.Clone() }

func (d NmodDoc) equalTag(o ItemTag) bool {
	v, ok := o.(NmodDoc)
	return ok && d.Equal(v)
}

// SimpleItemDoc is the shape shared by constants, functions and type
// aliases: an item and its signature.
type SimpleItemDoc struct {
	Item ItemDoc
	Sig  *string
}

func (d SimpleItemDoc) AsItem() ItemDoc { return d.Item.Clone() }

func (d SimpleItemDoc) Clone() SimpleItemDoc {
	return SimpleItemDoc{Item: d.Item.Clone(), Sig: cloneStr(d.Sig)}
}

func (d SimpleItemDoc) Equal(o SimpleItemDoc) bool {
	return d.Item.Equal(o.Item) && strEqual(d.Sig, o.Sig)
}

// ConstDoc documents a constant or static.
type ConstDoc struct{ SimpleItemDoc }

// FnDoc documents a free function.
type FnDoc struct{ SimpleItemDoc }

// TyDoc documents a type alias.
type TyDoc struct{ SimpleItemDoc }

func NewConst(item ItemDoc, sig *string) ConstDoc {
	return ConstDoc{SimpleItemDoc{Item: item, Sig: sig}}
}

func NewFn(item ItemDoc, sig *string) FnDoc {
	return FnDoc{SimpleItemDoc{Item: item, Sig: sig}}
}

func NewTy(item ItemDoc, sig *string) TyDoc {
	return TyDoc{SimpleItemDoc{Item: item, Sig: sig}}
}

func (ConstDoc) Kind() Kind              { return KindConst }
func (d ConstDoc) Clone() ConstDoc       { return ConstDoc{d.SimpleItemDoc.Clone()} }
func (d ConstDoc) Equal(o ConstDoc) bool { return d.SimpleItemDoc.Equal(o.SimpleItemDoc) }
func (d ConstDoc) cloneTag() ItemTag     { return d.Clone() }
func (d ConstDoc) equalTag(o ItemTag) bool {
	v, ok := o.(ConstDoc)
	return ok && d.Equal(v)
}

func (FnDoc) Kind() Kind           { return KindFn }
func (d FnDoc) Clone() FnDoc       { return FnDoc{d.SimpleItemDoc.Clone()} }
func (d FnDoc) Equal(o FnDoc) bool { return d.SimpleItemDoc.Equal(o.SimpleItemDoc) }
func (d FnDoc) cloneTag() ItemTag  { return d.Clone() }
func (d FnDoc) equalTag(o ItemTag) bool {
	v, ok := o.(FnDoc)
	return ok && d.Equal(v)
}

func (TyDoc) Kind() Kind           { return KindTy }
func (d TyDoc) Clone() TyDoc       { return TyDoc{d.SimpleItemDoc.Clone()} }
func (d TyDoc) Equal(o TyDoc) bool { return d.SimpleItemDoc.Equal(o.SimpleItemDoc) }
func (d TyDoc) cloneTag() ItemTag  { return d.Clone() }
func (d TyDoc) equalTag(o ItemTag) bool {
	v, ok := o.(TyDoc)
	return ok && d.Equal(v)
}

// EnumDoc documents an enum and its variants.
type EnumDoc struct {
	Item     ItemDoc
	Variants []VariantDoc
}

type VariantDoc struct {
	Name string
	Desc *string
	Sig  *string
}

func (v VariantDoc) Clone() VariantDoc {
	return VariantDoc{Name: v.Name, Desc: cloneStr(v.Desc), Sig: cloneStr(v.Sig)}
}

func (v VariantDoc) Equal(o VariantDoc) bool {
	return v.Name == o.Name && strEqual(v.Desc, o.Desc) && strEqual(v.Sig, o.Sig)
}

func (d EnumDoc) AsItem() ItemDoc { return d.Item.Clone() }
func (EnumDoc) Kind() Kind        { return KindEnum }

func (d EnumDoc) Clone() EnumDoc {
	return EnumDoc{Item: d.Item.Clone(), Variants: cloneEach(d.Variants, VariantDoc.Clone)}
}

func (d EnumDoc) Equal(o EnumDoc) bool {
	return d.Item.Equal(o.Item) && slices.EqualFunc(d.Variants, o.Variants, VariantDoc.Equal)
}

func (d EnumDoc) cloneTag() ItemTag { return d.Clone() }

func (d EnumDoc) equalTag(o ItemTag) bool {
	v, ok := o.(EnumDoc)
	return ok && d.Equal(v)
}

// Implementation says whether a trait method must be written by implementors
// or comes with a default body.
type Implementation int

const (
	Required Implementation = iota
	Provided
)

func (i Implementation) String() string {
	if i == Provided {
		return "provided"
	}
	return "required"
}

// MethodDoc documents a method of a trait or impl. Methods carry their own
// prose but no ItemDoc.
type MethodDoc struct {
	Name           string
	Brief          *string
	Desc           *string
	Sections       []Section
	Sig            *string
	Implementation Implementation
}

func (m MethodDoc) Clone() MethodDoc {
	m.Brief = cloneStr(m.Brief)
	m.Desc = cloneStr(m.Desc)
	m.Sections = slices.Clone(m.Sections)
	m.Sig = cloneStr(m.Sig)
	return m
}

func (m MethodDoc) Equal(o MethodDoc) bool {
	return m.Name == o.Name &&
		strEqual(m.Brief, o.Brief) &&
		strEqual(m.Desc, o.Desc) &&
		slices.Equal(m.Sections, o.Sections) &&
		strEqual(m.Sig, o.Sig) &&
		m.Implementation == o.Implementation
}

// TraitDoc documents a trait.
type TraitDoc struct {
	Item    ItemDoc
	Methods []MethodDoc
}

func (d TraitDoc) AsItem() ItemDoc { return d.Item.Clone() }
func (TraitDoc) Kind() Kind        { return KindTrait }

func (d TraitDoc) Clone() TraitDoc {
	return TraitDoc{Item: d.Item.Clone(), Methods: cloneEach(d.Methods, MethodDoc.Clone)}
}

func (d TraitDoc) Equal(o TraitDoc) bool {
	return d.Item.Equal(o.Item) && slices.EqualFunc(d.Methods, o.Methods, MethodDoc.Equal)
}

func (d TraitDoc) cloneTag() ItemTag { return d.Clone() }

func (d TraitDoc) equalTag(o ItemTag) bool {
	v, ok := o.(TraitDoc)
	return ok && d.Equal(v)
}

// ImplDoc documents an impl block.
type ImplDoc struct {
	Item ItemDoc
	// BoundsStr is the rendered generic parameter list, e.g. "<T: Clone>".
	BoundsStr  *string
	TraitTypes []string
	SelfTy     *string
	Methods    []MethodDoc
}

func (d ImplDoc) AsItem() ItemDoc { return d.Item.Clone() }
func (ImplDoc) Kind() Kind        { return KindImpl }

func (d ImplDoc) Clone() ImplDoc {
	return ImplDoc{
		Item:       d.Item.Clone(),
		BoundsStr:  cloneStr(d.BoundsStr),
		TraitTypes: slices.Clone(d.TraitTypes),
		SelfTy:     cloneStr(d.SelfTy),
		Methods:    cloneEach(d.Methods, MethodDoc.Clone),
	}
}

func (d ImplDoc) Equal(o ImplDoc) bool {
	return d.Item.Equal(o.Item) &&
		strEqual(d.BoundsStr, o.BoundsStr) &&
		slices.Equal(d.TraitTypes, o.TraitTypes) &&
		strEqual(d.SelfTy, o.SelfTy) &&
		slices.EqualFunc(d.Methods, o.Methods, MethodDoc.Equal)
}

func (d ImplDoc) cloneTag() ItemTag { return d.Clone() }

func (d ImplDoc) equalTag(o ItemTag) bool {
	v, ok := o.(ImplDoc)
	return ok && d.Equal(v)
}

// StructDoc documents a struct. Fields holds field names in declaration
// order; tuple structs use their positional indexes.
type StructDoc struct {
	Item   ItemDoc
	Fields []string
	Sig    *string
}

func (d StructDoc) AsItem() ItemDoc { return d.Item.Clone() }
func (StructDoc) Kind() Kind        { return KindStruct }

func (d StructDoc) Clone() StructDoc {
	return StructDoc{Item: d.Item.Clone(), Fields: slices.Clone(d.Fields), Sig: cloneStr(d.Sig)}
}

func (d StructDoc) Equal(o StructDoc) bool {
	return d.Item.Equal(o.Item) && slices.Equal(d.Fields, o.Fields) && strEqual(d.Sig, o.Sig)
}

func (d StructDoc) cloneTag() ItemTag { return d.Clone() }

func (d StructDoc) equalTag(o ItemTag) bool {
	v, ok := o.(StructDoc)
	return ok && d.Equal(v)
}

// cloneEach maps clone over s, preserving nil.
func cloneEach[T any](s []T, clone func(T) T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	for i, v := range s {
		out[i] = clone(v)
	}
	return out
}
