package pass

import (
	"testing"

	"github.com/jcdickinson/ferrisdoc/internal/config"
	"github.com/jcdickinson/ferrisdoc/internal/doc"
)

func item(id doc.AstID, name string, path ...string) doc.ItemDoc {
	return doc.ItemDoc{ID: id, Name: name, Path: path}
}

// sample builds:
//
//	demo
//	├── fn make
//	├── mod inner
//	│   ├── struct Widget
//	│   └── mod deep
//	└── extern "C" { fn abs }
func sample() doc.Doc {
	makeFn := doc.NewFn(item(1, "make", "demo"), doc.String("fn make()"))
	makeFn.Item.Desc = doc.String("Makes a widget.\n\n# Examples\n\n```\nmake();\n```")

	widget := doc.StructDoc{Item: item(3, "Widget", "demo", "inner"), Fields: []string{"x"}}
	widget.Item.Desc = doc.String("A widget.")

	deep := doc.ModDoc{Item: item(4, "deep", "demo", "inner")}
	inner := doc.ModDoc{
		Item:  item(2, "inner", "demo"),
		Items: []doc.ItemTag{widget, deep},
	}
	abs := doc.NewFn(item(6, "abs", "demo"), doc.String(`unsafe extern "C" fn abs(x: i32) -> i32`))
	nmod := doc.NmodDoc{Item: item(-1, `extern "C"`, "demo"), Fns: []doc.FnDoc{abs}}

	top := doc.ModDoc{
		Item:  item(0, "demo"),
		Items: []doc.ItemTag{makeFn, inner, nmod},
	}
	return doc.Doc{Pages: doc.Pages{doc.CratePage{Doc: doc.CrateDoc{TopMod: top}}}}
}

func TestSectionalize(t *testing.T) {
	t.Parallel()

	in := sample()
	out := Sectionalize(in)

	f := out.CrateMod().Fns()[0]
	if got := doc.StringValue(f.Item.Desc); got != "Makes a widget." {
		t.Errorf("desc = %q", got)
	}
	if len(f.Item.Sections) != 1 || f.Item.Sections[0].Header != "Examples" {
		t.Fatalf("sections = %+v", f.Item.Sections)
	}
	if in.CrateMod().Fns()[0].Item.Sections != nil {
		t.Error("input document was modified")
	}
}

func TestSectionalize_Methods(t *testing.T) {
	t.Parallel()

	tr := doc.TraitDoc{
		Item: item(1, "Shape", "demo"),
		Methods: []doc.MethodDoc{{
			Name: "area",
			Desc: doc.String("Area.\n\n# Panics\n\nNever."),
		}},
	}
	d := doc.Doc{Pages: doc.Pages{doc.CratePage{Doc: doc.CrateDoc{TopMod: doc.ModDoc{
		Item:  item(0, "demo"),
		Items: []doc.ItemTag{tr},
	}}}}}

	m := Sectionalize(d).CrateMod().Traits()[0].Methods[0]
	if doc.StringValue(m.Desc) != "Area." {
		t.Errorf("desc = %q", doc.StringValue(m.Desc))
	}
	if len(m.Sections) != 1 || m.Sections[0] != (doc.Section{Header: "Panics", Body: "Never."}) {
		t.Errorf("sections = %+v", m.Sections)
	}
}

func TestBrief(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		brief     *string
		desc      *string
		wantBrief *string
		wantDesc  *string
	}{
		{"no_desc", nil, nil, nil, nil},
		{"single_paragraph", nil, doc.String("A widget."), doc.String("A widget."), nil},
		{"two_paragraphs", nil, doc.String("A widget.\n\nMore."), doc.String("A widget."), doc.String("A widget.\n\nMore.")},
		{"keeps_existing", doc.String("Given."), doc.String("Other."), doc.String("Given."), doc.String("Other.")},
		{"code_first", nil, doc.String("```\nx\n```\n\nText."), doc.String("Text."), doc.String("```\nx\n```\n\nText.")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := item(1, "f", "demo")
			it.Brief, it.Desc = tt.brief, tt.desc
			d := doc.Doc{Pages: doc.Pages{doc.ItemPage{Tag: doc.NewFn(it, nil)}}}

			got := Brief(d).Pages.Fns()[0].Item
			if doc.StringValue(got.Brief) != doc.StringValue(tt.wantBrief) || (got.Brief == nil) != (tt.wantBrief == nil) {
				t.Errorf("brief = %v, want %v", got.Brief, tt.wantBrief)
			}
			if doc.StringValue(got.Desc) != doc.StringValue(tt.wantDesc) || (got.Desc == nil) != (tt.wantDesc == nil) {
				t.Errorf("desc = %v, want %v", got.Desc, tt.wantDesc)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	t.Parallel()

	d := Index(Brief(sample()), AnchorLink)
	top := d.CrateMod()
	if top.Index == nil {
		t.Fatal("top module has no index")
	}

	want := []doc.IndexEntry{
		{Kind: "Function", Name: "make", Link: "#function.make"},
		{Kind: "Module", Name: "inner", Link: "#module.inner"},
		{Kind: "Foreign module", Name: `extern "C"`, Link: "#foreign_module.extern-C"},
	}
	if len(top.Index.Entries) != len(want) {
		t.Fatalf("entries = %+v", top.Index.Entries)
	}
	for i, e := range top.Index.Entries {
		e.Brief = nil
		if !e.Equal(want[i]) {
			t.Errorf("entry %d = %+v, want %+v", i, e, want[i])
		}
	}

	inner := top.Mods()[0]
	if inner.Index == nil || len(inner.Index.Entries) != 2 {
		t.Fatalf("inner index = %+v", inner.Index)
	}
	if got := doc.StringValue(inner.Index.Entries[0].Brief); got != "A widget." {
		t.Errorf("widget brief = %q", got)
	}

	nmod := top.Nmods()[0]
	if nmod.Index == nil || len(nmod.Index.Entries) != 1 || nmod.Index.Entries[0].Name != "abs" {
		t.Errorf("nmod index = %+v", nmod.Index)
	}
}

func TestLinkFuncs(t *testing.T) {
	t.Parallel()

	widget := doc.StructDoc{Item: item(3, "Widget", "demo", "inner")}
	inner := doc.ModDoc{Item: item(2, "inner", "demo")}
	reexported := doc.ModDoc{Item: doc.ItemDoc{ID: 2, Name: "inner2", Path: []string{"demo"}, Reexport: true}}

	tests := []struct {
		name string
		link LinkFunc
		tag  doc.ItemTag
		want string
	}{
		{"anchor", AnchorLink, widget, "#struct.Widget"},
		{"uri", URILink("demo", "1.0.0"), widget, "rsdoc://demo/1.0.0/demo::inner::Widget"},
		{"file_mod", FileLink(".md"), inner, "demo.inner.md"},
		{"file_item", FileLink(".md"), widget, "#struct.Widget"},
		{"file_reexport", FileLink(".html"), reexported, "#module.inner2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.link(tt.tag); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPaginate_DocPerCrate(t *testing.T) {
	t.Parallel()

	in := sample()
	out := Paginate(in, config.DocPerCrate)
	if len(out.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(out.Pages))
	}
	if !out.Equal(in) {
		t.Error("doc-per-crate changed the document")
	}
}

func TestPaginate_DocPerMod(t *testing.T) {
	t.Parallel()

	in := Index(sample(), AnchorLink)
	out := Paginate(in, config.DocPerMod)

	var names []string
	for _, p := range out.Pages {
		switch p := p.(type) {
		case doc.CratePage:
			names = append(names, "crate")
		case doc.ItemPage:
			names = append(names, doc.QualifiedName(p.Tag))
		}
	}
	want := []string{"crate", "demo::inner", "demo::inner::deep", `demo::extern "C"`}
	if len(names) != len(want) {
		t.Fatalf("pages = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("page %d = %q, want %q", i, names[i], want[i])
		}
	}

	top := out.CrateMod()
	if len(top.Items) != 1 || top.Items[0].Kind() != doc.KindFn {
		t.Errorf("top children = %+v", top.Items)
	}
	if len(top.Index.Entries) != 3 {
		t.Errorf("top index lost entries: %+v", top.Index.Entries)
	}
	if err := out.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if len(in.CrateMod().Items) != 3 {
		t.Error("input document was modified")
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	out := Run(sample(), Options{Style: config.DocPerCrate, Link: URILink("demo", "1.0.0")})
	top := out.CrateMod()
	f := top.Fns()[0]
	if doc.StringValue(f.Item.Brief) != "Makes a widget." || f.Item.Desc != nil {
		t.Errorf("make = %+v", f.Item)
	}
	if top.Index.Entries[0].Link != "rsdoc://demo/1.0.0/demo::make" {
		t.Errorf("link = %q", top.Index.Entries[0].Link)
	}
}
