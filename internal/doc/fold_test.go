package doc

import (
	"strings"
	"testing"
)

func TestWalk_Order(t *testing.T) {
	t.Parallel()

	nmod := NmodDoc{Item: item(4, "extern \"C\"", "c"), Fns: []FnDoc{fn(5, "puts")}}
	sub := ModDoc{Item: item(2, "sub", "c"), Items: []ItemTag{fn(3, "g")}}
	top := ModDoc{Item: item(0, "c"), Items: []ItemTag{fn(1, "f"), sub, nmod}}

	var names []string
	Walk(top, func(t ItemTag) bool {
		names = append(names, Name(t))
		return true
	})
	got := strings.Join(names, ",")
	want := `c,f,sub,g,extern "C",puts`
	if got != want {
		t.Errorf("walk order = %s, want %s", got, want)
	}
}

func TestWalk_Stops(t *testing.T) {
	t.Parallel()

	top := ModDoc{Item: item(0, "c"), Items: []ItemTag{fn(1, "a"), fn(2, "b"), fn(3, "c")}}
	n := 0
	done := Walk(top, func(t ItemTag) bool {
		n++
		return Name(t) != "b"
	})
	if done {
		t.Error("expected Walk to report early stop")
	}
	if n != 3 {
		t.Errorf("visited %d items, want 3", n)
	}
}

func TestMapper_TransformsEveryItem(t *testing.T) {
	t.Parallel()

	trait := TraitDoc{Item: item(6, "T", "c"), Methods: []MethodDoc{{Name: "m"}}}
	nmod := NmodDoc{Item: item(4, "extern", "c"), Fns: []FnDoc{fn(5, "puts")}}
	d := crateDoc(fn(1, "f"), trait, nmod)
	d.Pages = append(d.Pages, ItemPage{Tag: StructDoc{Item: item(7, "S", "c")}})

	upper := Mapper{
		Item: func(it ItemDoc) ItemDoc {
			it.Name = strings.ToUpper(it.Name)
			return it
		},
		Method: func(m MethodDoc) MethodDoc {
			m.Brief = String("mapped")
			return m
		},
	}
	out := upper.Doc(d)

	var names []string
	out.Walk(func(t ItemTag) bool {
		names = append(names, Name(t))
		return true
	})
	if got := strings.Join(names, ","); got != "MYCRATE,F,T,EXTERN,PUTS,S" {
		t.Errorf("mapped names = %s", got)
	}
	if m := out.CrateMod().Traits()[0].Methods[0]; StringValue(m.Brief) != "mapped" {
		t.Errorf("method not mapped: %+v", m)
	}

	// input untouched
	if d.CrateMod().Fns()[0].Item.Name != "f" {
		t.Error("Mapper modified its input")
	}
	if d.CrateMod().Traits()[0].Methods[0].Brief != nil {
		t.Error("Mapper modified input methods")
	}
}

func TestMapper_ModHookSeesMappedChildren(t *testing.T) {
	t.Parallel()

	d := crateDoc(fn(1, "f"))
	var seen string
	m := Mapper{
		Item: func(it ItemDoc) ItemDoc {
			it.Name += "!"
			return it
		},
		Mod: func(md ModDoc) ModDoc {
			seen = md.Fns()[0].Item.Name
			return md
		},
	}
	m.Doc(d)
	if seen != "f!" {
		t.Errorf("Mod hook saw %q, want mapped child", seen)
	}
}
