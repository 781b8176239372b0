package rustdoc

import (
	"encoding/json"
	"testing"
)

func minimalCrate() *Crate {
	return &Crate{
		Paths: map[string]Summary{
			"10": {CrateID: 0, Path: []string{"mycrate", "MyType"}, Kind: "struct"},
		},
		Index:          map[string]Item{},
		ExternalCrates: map[string]ExternalCrate{},
	}
}

func TestTypeStr(t *testing.T) {
	t.Parallel()
	crate := minimalCrate()

	tests := []struct {
		name string
		json string
		want string
	}{
		{"resolved_path", `{"resolved_path":{"name":"MyType","id":10,"args":null}}`, "MyType"},
		{"resolved_path_new_field", `{"resolved_path":{"path":"std::fmt::Display","id":11,"args":null}}`, "std::fmt::Display"},
		{"resolved_path_from_paths", `{"resolved_path":{"name":"","id":10,"args":null}}`, "MyType"},
		{
			"resolved_path_with_args",
			`{"resolved_path":{"path":"Vec","id":1,"args":{"angle_bracketed":{"args":[{"type":{"primitive":"u8"}}],"constraints":[]}}}}`,
			"Vec<u8>",
		},
		{
			"parenthesized_args",
			`{"resolved_path":{"path":"Fn","id":2,"args":{"parenthesized":{"inputs":[{"primitive":"u32"}],"output":{"primitive":"bool"}}}}}`,
			"Fn(u32) -> bool",
		},
		{"primitive", `{"primitive":"u32"}`, "u32"},
		{"generic", `{"generic":"T"}`, "T"},
		{"borrowed_ref_immutable", `{"borrowed_ref":{"lifetime":null,"is_mutable":false,"type":{"primitive":"str"}}}`, "&str"},
		{"borrowed_ref_mutable", `{"borrowed_ref":{"lifetime":null,"is_mutable":true,"type":{"primitive":"str"}}}`, "&mut str"},
		{"borrowed_ref_with_lifetime", `{"borrowed_ref":{"lifetime":"'a","is_mutable":false,"type":{"primitive":"str"}}}`, "&'a str"},
		{"raw_pointer", `{"raw_pointer":{"is_mutable":false,"type":{"primitive":"u8"}}}`, "*const u8"},
		{"raw_pointer_mut", `{"raw_pointer":{"is_mutable":true,"type":{"primitive":"u8"}}}`, "*mut u8"},
		{"slice", `{"slice":{"primitive":"u8"}}`, "[u8]"},
		{"array", `{"array":{"type":{"primitive":"u8"},"len":"32"}}`, "[u8; 32]"},
		{"tuple", `{"tuple":[{"primitive":"u32"},{"primitive":"bool"}]}`, "(u32, bool)"},
		{"unit", `{"tuple":[]}`, "()"},
		{"one_tuple", `{"tuple":[{"primitive":"u32"}]}`, "(u32,)"},
		{
			"qualified_path_with_trait",
			`{"qualified_path":{"name":"Item","self_type":{"generic":"I"},"trait":{"name":"Iterator","id":99}}}`,
			"<I as Iterator>::Item",
		},
		{
			"qualified_path_without_trait",
			`{"qualified_path":{"name":"Output","self_type":{"primitive":"u32"},"trait":null}}`,
			"u32::Output",
		},
		{"dyn_trait", `{"dyn_trait":{"traits":[{"trait":{"name":"Debug","id":99}}],"lifetime":null}}`, "dyn Debug"},
		{
			"dyn_trait_multiple",
			`{"dyn_trait":{"traits":[{"trait":{"name":"Debug","id":99}},{"trait":{"name":"Send","id":98}}],"lifetime":"'static"}}`,
			"dyn Debug + Send + 'static",
		},
		{
			"impl_trait_with_constraint",
			`{"impl_trait":[{"trait_bound":{"trait":{"path":"Iterator","id":5,"args":{"angle_bracketed":{"args":[],"constraints":[{"name":"Item","args":null,"binding":{"equality":{"type":{"primitive":"u8"}}}}]}}},"generic_params":[],"modifier":"none"}}]}`,
			"impl Iterator<Item = u8>",
		},
		{
			"function_pointer",
			`{"function_pointer":{"sig":{"inputs":[["_",{"primitive":"i32"}]],"output":{"primitive":"bool"},"is_c_variadic":false},"generic_params":[],"header":{"is_const":false,"is_unsafe":false,"is_async":false,"abi":"Rust"}}}`,
			"fn(i32) -> bool",
		},
		{"infer", `"infer"`, "_"},
		{"invalid_json", `not json`, "_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := crate.typeStr(json.RawMessage(tt.json))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenericArgsStr(t *testing.T) {
	t.Parallel()
	crate := minimalCrate()

	tests := []struct {
		name string
		json string
		want string
	}{
		{"types", `{"angle_bracketed":{"args":[{"type":{"primitive":"u32"}},{"type":{"primitive":"bool"}}]}}`, "<u32, bool>"},
		{"lifetime", `{"angle_bracketed":{"args":[{"lifetime":"'a"}]}}`, "<'a>"},
		{"empty_args", `{"angle_bracketed":{"args":[]}}`, ""},
		{"no_angle_bracketed", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := crate.genericArgsStr(json.RawMessage(tt.json))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenericsStr(t *testing.T) {
	t.Parallel()
	crate := minimalCrate()

	tests := []struct {
		name string
		json string
		want string
	}{
		{"none", `{"params":[],"where_predicates":[]}`, ""},
		{"empty", ``, ""},
		{"bare_name", `{"params":[{"name":"T","kind":{}}]}`, "<T>"},
		{
			"mixed",
			`{"params":[
				{"name":"'a","kind":{"lifetime":{"outlives":[]}}},
				{"name":"T","kind":{"type":{"bounds":[{"trait_bound":{"trait":{"path":"Clone","id":3,"args":null},"generic_params":[],"modifier":"none"}}],"default":null,"is_synthetic":false}}},
				{"name":"impl Read","kind":{"type":{"bounds":[],"default":null,"is_synthetic":true}}},
				{"name":"N","kind":{"const":{"type":{"primitive":"usize"},"default":null}}}
			],"where_predicates":[]}`,
			"<'a, T: Clone, const N: usize>",
		},
		{
			"maybe_sized",
			`{"params":[{"name":"T","kind":{"type":{"bounds":[{"trait_bound":{"trait":{"path":"Sized","id":3,"args":null},"generic_params":[],"modifier":"maybe"}}],"default":null,"is_synthetic":false}}}]}`,
			"<T: ?Sized>",
		},
		{
			"outlives",
			`{"params":[{"name":"'a","kind":{"lifetime":{"outlives":[]}}},{"name":"'b","kind":{"lifetime":{"outlives":["'a"]}}}]}`,
			"<'a, 'b: 'a>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := crate.genericsStr(json.RawMessage(tt.json))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWhereStr(t *testing.T) {
	t.Parallel()
	crate := minimalCrate()

	got := crate.whereStr(json.RawMessage(`{"params":[],"where_predicates":[
		{"bound_predicate":{"type":{"generic":"T"},"bounds":[{"trait_bound":{"trait":{"path":"Send","id":4,"args":null},"generic_params":[],"modifier":"none"}}],"generic_params":[]}},
		{"lifetime_predicate":{"lifetime":"'a","outlives":["'b"]}}
	]}`))
	if want := " where T: Send"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := crate.whereStr(json.RawMessage(`{"params":[],"where_predicates":[]}`)); got != "" {
		t.Errorf("expected empty where clause, got %q", got)
	}
}
