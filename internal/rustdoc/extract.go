package rustdoc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/jcdickinson/ferrisdoc/internal/doc"
	"github.com/jcdickinson/ferrisdoc/internal/markdown"
)

// Extract parses rustdoc JSON bytes and builds the crate's document.
// crateName and version are used to build rsdoc:// URIs in resolved doc links.
func Extract(data []byte, crateName, version string) (*Crate, doc.Doc, error) {
	var crate Crate
	if err := json.Unmarshal(data, &crate); err != nil {
		return nil, doc.Doc{}, fmt.Errorf("unmarshaling rustdoc JSON: %w", err)
	}
	d, err := crate.Build(crateName, version)
	if err != nil {
		return nil, doc.Doc{}, err
	}
	return &crate, d, nil
}

// Build converts the crate into a single-page document whose crate module
// mirrors the crate's public module tree.
func (c *Crate) Build(crateName, version string) (doc.Doc, error) {
	root, ok := c.item(c.Root)
	if !ok {
		return doc.Doc{}, fmt.Errorf("root item %d missing from index", c.Root)
	}
	if kind := innerKind(root.Inner); kind != "module" {
		return doc.Doc{}, fmt.Errorf("root item %d is a %s, not a module", c.Root, kind)
	}

	b := &builder{crate: c, crateName: crateName, version: version, active: map[int]bool{}}
	top := b.module(root, nil, nameOf(root))

	d := doc.Doc{Pages: doc.Pages{doc.CratePage{Doc: doc.CrateDoc{TopMod: top}}}}
	if err := d.Validate(); err != nil {
		return doc.Doc{}, fmt.Errorf("building %s: %w", crateName, err)
	}
	return d, nil
}

type builder struct {
	crate     *Crate
	crateName string
	version   string
	// last synthetic id handed out; synthetic ids count down from -1
	synthetic doc.AstID
	// modules currently being built, guards against reexport cycles
	active map[int]bool
}

var markReexport = doc.Mapper{Item: func(it doc.ItemDoc) doc.ItemDoc {
	it.Reexport = true
	return it
}}

func (b *builder) module(it Item, path []string, name string) doc.ModDoc {
	m := doc.ModDoc{Item: b.itemDoc(it, path, name)}
	if b.active[it.ID] {
		return m
	}
	b.active[it.ID] = true
	defer delete(b.active, it.ID)

	childPath := append(slices.Clip(path), name)

	// Foreign functions are grouped per ABI into one NmodDoc, placed where
	// the first of them appeared.
	nmods := map[string]int{}
	for _, id := range moduleItems(it) {
		child, ok := b.crate.local(id)
		if !ok {
			continue
		}
		if abi, ok := foreignABI(child); ok {
			pos, seen := nmods[abi]
			if !seen {
				pos = len(m.Items)
				nmods[abi] = pos
				m.Items = append(m.Items, b.nmod(abi, childPath))
			}
			nmod := m.Items[pos].(doc.NmodDoc)
			nmod.Fns = append(nmod.Fns, b.fn(child, childPath, nameOf(child)))
			m.Items[pos] = nmod
			continue
		}
		m.Items = append(m.Items, b.child(child, childPath)...)
	}
	return m
}

func (b *builder) nmod(abi string, path []string) doc.NmodDoc {
	b.synthetic--
	return doc.NmodDoc{Item: doc.ItemDoc{
		ID:   b.synthetic,
		Name: fmt.Sprintf("extern %q", abi),
		Path: slices.Clone(path),
	}}
}

// child builds the entries a module item contributes: the entity itself,
// followed by the impls of a local type, or the copies made by a `pub use`.
func (b *builder) child(it Item, path []string) []doc.ItemTag {
	switch innerKind(it.Inner) {
	case "use":
		return b.reexport(it, path)
	case "impl":
		// reached through the type they implement
		return nil
	}

	tag := b.entity(it, path, nameOf(it))
	if tag == nil {
		return nil
	}
	tags := []doc.ItemTag{tag}
	for _, id := range typeImpls(it) {
		if impl, ok := b.impl(id, path); ok {
			tags = append(tags, impl)
		}
	}
	return tags
}

// entity builds the tag for a single item, or nil for kinds the document
// doesn't model (macros, primitives, extern crates, ...).
func (b *builder) entity(it Item, path []string, name string) doc.ItemTag {
	if name == "" {
		return nil
	}
	switch kind := innerKind(it.Inner); kind {
	case "module":
		return b.module(it, path, name)
	case "function":
		return b.fn(it, path, name)
	case "constant":
		return doc.NewConst(b.itemDoc(it, path, name), sig(b.crate.constSig(name, unwrapInner(it.Inner, kind))))
	case "static":
		return doc.NewConst(b.itemDoc(it, path, name), sig(b.crate.staticSig(name, unwrapInner(it.Inner, kind))))
	case "type_alias":
		return doc.NewTy(b.itemDoc(it, path, name), sig(b.crate.typeAliasSig(name, unwrapInner(it.Inner, kind))))
	case "struct":
		var s structInner
		decodeInner(it, kind, &s)
		shape := parseShape(s.Kind)
		return doc.StructDoc{
			Item:   b.itemDoc(it, path, name),
			Fields: b.crate.fieldNames(shape),
			Sig:    sig(b.crate.structSig(name, s, shape)),
		}
	case "union":
		var u struct {
			Generics          json.RawMessage `json:"generics"`
			Fields            []int           `json:"fields"`
			HasStrippedFields bool            `json:"has_stripped_fields"`
		}
		decodeInner(it, kind, &u)
		shape := structShape{stripped: u.HasStrippedFields}
		for _, id := range u.Fields {
			shape.fields = append(shape.fields, &id)
		}
		return doc.StructDoc{
			Item:   b.itemDoc(it, path, name),
			Fields: b.crate.fieldNames(shape),
			Sig:    sig("union " + name + b.crate.genericsStr(u.Generics) + b.crate.shapeBody(shape, "")),
		}
	case "enum":
		return b.enum(it, path, name)
	case "trait":
		return b.trait(it, path, name)
	default:
		return nil
	}
}

// decodeInner unmarshals the kind payload of it into v. A malformed payload
// leaves v zero and the item is documented without it.
func decodeInner(it Item, kind string, v any) {
	if err := json.Unmarshal(unwrapInner(it.Inner, kind), v); err != nil {
		slog.Debug("malformed item payload", "id", it.ID, "kind", kind, "error", err)
	}
}

func (b *builder) fn(it Item, path []string, name string) doc.FnDoc {
	return doc.NewFn(b.itemDoc(it, path, name), sig(b.crate.fnSig(name, unwrapInner(it.Inner, "function"))))
}

func (b *builder) enum(it Item, path []string, name string) doc.EnumDoc {
	var e struct {
		Variants []int `json:"variants"`
	}
	decodeInner(it, "enum", &e)

	d := doc.EnumDoc{Item: b.itemDoc(it, path, name)}
	for _, id := range e.Variants {
		v, ok := b.crate.item(id)
		if !ok || v.Name == nil {
			continue
		}
		d.Variants = append(d.Variants, doc.VariantDoc{
			Name: *v.Name,
			Desc: b.desc(&v),
			Sig:  sig(b.crate.variantSig(*v.Name, unwrapInner(v.Inner, "variant"))),
		})
	}
	return d
}

func (b *builder) trait(it Item, path []string, name string) doc.TraitDoc {
	var t struct {
		Items []int `json:"items"`
	}
	decodeInner(it, "trait", &t)

	return doc.TraitDoc{
		Item:    b.itemDoc(it, path, name),
		Methods: b.methods(t.Items, true),
	}
}

// methods builds method docs for the functions among ids. Trait methods
// without a default body are Required; everything else is Provided.
func (b *builder) methods(ids []int, inTrait bool) []doc.MethodDoc {
	var out []doc.MethodDoc
	for _, id := range ids {
		m, ok := b.crate.item(id)
		if !ok || m.Name == nil {
			continue
		}
		data := unwrapInner(m.Inner, "function")
		if data == nil {
			continue
		}
		var fn fnInner
		decodeInner(m, "function", &fn)

		impl := doc.Provided
		if inTrait && !fn.HasBody {
			impl = doc.Required
		}
		out = append(out, doc.MethodDoc{
			Name:           *m.Name,
			Desc:           b.desc(&m),
			Sig:            sig(b.crate.fnSig(*m.Name, data)),
			Implementation: impl,
		})
	}
	return out
}

// impl builds an impl block of a local type. Synthetic (auto trait),
// blanket and negative impls are skipped.
func (b *builder) impl(id int, path []string) (doc.ImplDoc, bool) {
	it, ok := b.crate.local(id)
	if !ok {
		return doc.ImplDoc{}, false
	}
	var impl struct {
		Generics    json.RawMessage `json:"generics"`
		Trait       json.RawMessage `json:"trait"`
		For         json.RawMessage `json:"for"`
		Items       []int           `json:"items"`
		IsNegative  bool            `json:"is_negative"`
		IsSynthetic bool            `json:"is_synthetic"`
		BlanketImpl json.RawMessage `json:"blanket_impl"`
	}
	data := unwrapInner(it.Inner, "impl")
	if data == nil || json.Unmarshal(data, &impl) != nil {
		return doc.ImplDoc{}, false
	}
	if impl.IsSynthetic || impl.IsNegative || !isNull(impl.BlanketImpl) {
		return doc.ImplDoc{}, false
	}

	// Impls are named by their header so they never share a path with the
	// type they implement: "impl<T: Clone> From<T> for Wrapper<T>".
	selfTy := b.crate.typeStr(impl.For)
	bounds := b.crate.genericsStr(impl.Generics)
	name := "impl" + bounds + " " + selfTy
	var traits []string
	if !isNull(impl.Trait) {
		trait := b.crate.pathStr(impl.Trait)
		traits = []string{trait}
		name = "impl" + bounds + " " + trait + " for " + selfTy
	}

	d := doc.ImplDoc{
		Item:       b.itemDoc(it, path, name),
		TraitTypes: traits,
		SelfTy:     doc.String(selfTy),
		Methods:    b.methods(impl.Items, false),
	}
	if bounds != "" {
		d.BoundsStr = doc.String(bounds)
	}
	return d, true
}

// reexport copies the local items a `pub use` names into the current
// module. External targets are recorded by Reexports instead.
func (b *builder) reexport(it Item, path []string) []doc.ItemTag {
	use, ok := parseUse(it)
	if !ok || use.ID == nil {
		return nil
	}
	target, ok := b.crate.local(*use.ID)
	if !ok {
		return nil
	}

	var tags []doc.ItemTag
	if use.IsGlob {
		if innerKind(target.Inner) != "module" || b.active[target.ID] {
			return nil
		}
		for _, id := range moduleItems(target) {
			child, ok := b.crate.local(id)
			if !ok {
				continue
			}
			switch innerKind(child.Inner) {
			case "use", "impl":
				continue
			}
			if tag := b.entity(child, path, nameOf(child)); tag != nil {
				tags = append(tags, tag)
			}
		}
	} else if tag := b.entity(target, path, use.Name); tag != nil {
		tags = append(tags, tag)
	}

	for i, tag := range tags {
		tags[i] = markReexport.Tag(tag)
	}
	return tags
}

func (b *builder) itemDoc(it Item, path []string, name string) doc.ItemDoc {
	return doc.ItemDoc{
		ID:   doc.AstID(it.ID),
		Name: name,
		Path: slices.Clone(path),
		Desc: b.desc(&it),
	}
}

// desc returns the item's docs with intra-doc and docs.rs links rewritten
// to rsdoc:// URIs, or nil when it has none.
func (b *builder) desc(it *Item) *string {
	if it.Docs == nil || strings.TrimSpace(*it.Docs) == "" {
		return nil
	}
	links := make(map[string]string)
	maps.Copy(links, b.crate.DocLinks(it, b.crateName, b.version))
	maps.Copy(links, ResolveDocsRsURLs(*it.Docs))
	return doc.String(markdown.RewriteLinks(*it.Docs, links))
}

func moduleItems(it Item) []int {
	var mod struct {
		Items []int `json:"items"`
	}
	if unwrapInner(it.Inner, "module") != nil {
		decodeInner(it, "module", &mod)
	}
	return mod.Items
}

// typeImpls lists the impl ids recorded on a struct, enum or union.
func typeImpls(it Item) []int {
	for _, kind := range []string{"struct", "enum", "union"} {
		if unwrapInner(it.Inner, kind) != nil {
			var t struct {
				Impls []int `json:"impls"`
			}
			decodeInner(it, kind, &t)
			return t.Impls
		}
	}
	return nil
}

// foreignABI reports the ABI of a function declared in an extern block:
// one without a body and with a non-Rust ABI.
func foreignABI(it Item) (string, bool) {
	data := unwrapInner(it.Inner, "function")
	if data == nil {
		return "", false
	}
	var fn fnInner
	if json.Unmarshal(data, &fn) != nil || fn.HasBody {
		return "", false
	}
	abi := abiName(fn.Header.ABI)
	return abi, abi != "Rust"
}

func sig(s string) *string {
	if s == "" {
		return nil
	}
	return doc.String(s)
}
