package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jcdickinson/ferrisdoc/internal/config"
	"github.com/jcdickinson/ferrisdoc/internal/db"
)

const (
	noGenerics = `{"params":[],"where_predicates":[]}`
	rustHeader = `{"is_const":false,"is_unsafe":false,"is_async":false,"abi":"Rust"}`
)

// demoJSON re-exports inner::Widget locally and other::Thing from a
// dependency.
var demoJSON = `{
	"root": 0,
	"crate_version": "1.2.3",
	"format_version": 39,
	"index": {
		"0": {"id": 0, "crate_id": 0, "name": "demo", "docs": "The demo crate.",
			"inner": {"module": {"is_crate": true, "items": [1, 2, 5, 7]}}},
		"1": {"id": 1, "crate_id": 0, "name": "make", "docs": "Makes a widget.\n\n# Examples\n\n` + "```" + `\nlet w = make();\n` + "```" + `",
			"inner": {"function": {"sig": {"inputs": [], "output": null, "is_c_variadic": false},
				"generics": ` + noGenerics + `, "header": ` + rustHeader + `, "has_body": true}}},
		"2": {"id": 2, "crate_id": 0, "name": "inner", "docs": null,
			"inner": {"module": {"is_crate": false, "items": [3]}}},
		"3": {"id": 3, "crate_id": 0, "name": "Widget", "docs": "A widget.",
			"inner": {"struct": {"kind": {"plain": {"fields": [], "has_stripped_fields": true}},
				"generics": ` + noGenerics + `, "impls": []}}},
		"5": {"id": 5, "crate_id": 0, "name": null, "docs": null,
			"inner": {"use": {"source": "inner::Widget", "name": "Widget", "id": 3, "is_glob": false}}},
		"7": {"id": 7, "crate_id": 0, "name": null, "docs": null,
			"inner": {"use": {"source": "other::Thing", "name": "Thing", "id": 50, "is_glob": false}}}
	},
	"paths": {
		"0": {"crate_id": 0, "path": ["demo"], "kind": "module"},
		"2": {"crate_id": 0, "path": ["demo", "inner"], "kind": "module"},
		"3": {"crate_id": 0, "path": ["demo", "inner", "Widget"], "kind": "struct"},
		"50": {"crate_id": 1, "path": ["other", "Thing"], "kind": "struct"}
	},
	"external_crates": {
		"1": {"name": "other", "html_root_url": "https://docs.rs/other/1.0.0/"}
	}
}`

var otherJSON = `{
	"root": 0,
	"crate_version": "1.0.0",
	"format_version": 39,
	"index": {
		"0": {"id": 0, "crate_id": 0, "name": "other", "docs": null,
			"inner": {"module": {"is_crate": true, "items": [50]}}},
		"50": {"id": 50, "crate_id": 0, "name": "Thing", "docs": "A thing from elsewhere.",
			"inner": {"struct": {"kind": "unit", "generics": ` + noGenerics + `, "impls": []}}}
	},
	"paths": {
		"0": {"crate_id": 0, "path": ["other"], "kind": "module"},
		"50": {"crate_id": 0, "path": ["other", "Thing"], "kind": "struct"}
	},
	"external_crates": {}
}`

type fakeSource struct {
	calls atomic.Int32
}

func (f *fakeSource) Fetch(ctx context.Context, name, version string) ([]byte, error) {
	f.calls.Add(1)
	switch name {
	case "demo":
		return []byte(demoJSON), nil
	case "other":
		return []byte(otherJSON), nil
	}
	return nil, fmt.Errorf("docs.rs returned 404 for %s/%s", name, version)
}

func testLibrary(t *testing.T) (*Library, *fakeSource) {
	t.Helper()
	cfg := config.Default()
	cfg.Cache.Dir = t.TempDir()

	database, err := db.New(cfg.DBPath())
	if err != nil {
		t.Fatalf("creating test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	src := &fakeSource{}
	return NewWithSource(cfg, database, src), src
}

func TestLoad_ResolvesLatestAndCaches(t *testing.T) {
	l, src := testLibrary(t)
	ctx := context.Background()

	c, err := l.Load(ctx, "demo", "")
	if err != nil {
		t.Fatal(err)
	}
	if c.Version != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", c.Version)
	}
	if !l.json.Has("demo", "1.2.3") {
		t.Error("rustdoc json not cached under the resolved version")
	}

	again, err := l.Load(ctx, "demo", "1.2.3")
	if err != nil {
		t.Fatal(err)
	}
	if again != c {
		t.Error("second load did not reuse the loaded crate")
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("fetched %d times, want 1", n)
	}

	top := c.Doc.CrateMod()
	if top.Index == nil || len(top.Index.Entries) == 0 {
		t.Fatal("passes did not run")
	}
	if link := top.Index.Entries[0].Link; link != "rsdoc://demo/1.2.3/demo::make" {
		t.Errorf("index link = %q", link)
	}
}

func TestLoad_FromDiskCache(t *testing.T) {
	l, src := testLibrary(t)
	if err := l.json.Save([]byte(demoJSON), "demo", "1.2.3"); err != nil {
		t.Fatal(err)
	}

	if _, err := l.Load(context.Background(), "demo", "1.2.3"); err != nil {
		t.Fatal(err)
	}
	if n := src.calls.Load(); n != 0 {
		t.Errorf("fetched %d times, want 0", n)
	}
}

func TestLoad_Concurrent(t *testing.T) {
	l, _ := testLibrary(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Load(context.Background(), "demo", "1.2.3"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestLoad_FetchError(t *testing.T) {
	l, _ := testLibrary(t)

	if _, err := l.Load(context.Background(), "missing", "1.0.0"); err == nil {
		t.Fatal("expected error")
	}
}

func TestIndexAndItems(t *testing.T) {
	l, _ := testLibrary(t)
	ctx := context.Background()

	res, err := l.Index(ctx, "demo", "1.2.3")
	if err != nil {
		t.Fatal(err)
	}
	// demo, make, inner, inner::Widget and the reexported Widget copy
	if res.Items != 5 || res.Reexports != 2 {
		t.Errorf("Index() = %+v", res)
	}
	if len(res.Kinds) != 3 || res.Kinds["module"] != 2 || res.Kinds["function"] != 1 || res.Kinds["struct"] != 2 {
		t.Errorf("Index() kinds = %v", res.Kinds)
	}

	items, err := l.Items(ctx, "demo", "1.2.3", ItemQuery{Kind: "struct"})
	if err != nil {
		t.Fatal(err)
	}
	var paths []string
	for _, it := range items {
		paths = append(paths, it.Path)
	}
	if strings.Join(paths, ",") != "demo::inner::Widget,demo::Widget" {
		t.Errorf("struct items = %v", paths)
	}

	inner, err := l.Items(ctx, "demo", "1.2.3", ItemQuery{Module: "inner"})
	if err != nil {
		t.Fatal(err)
	}
	if len(inner) != 1 || inner[0].Brief != "A widget." {
		t.Errorf("inner items = %+v", inner)
	}

	if _, err := l.Items(ctx, "demo", "1.2.3", ItemQuery{Kind: "gadget"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestGet(t *testing.T) {
	l, _ := testLibrary(t)
	ctx := context.Background()

	it, err := l.Get(ctx, "demo", "1.2.3", "make")
	if err != nil {
		t.Fatal(err)
	}
	if it.Path != "demo::make" || it.Kind != "function" {
		t.Errorf("Get() = %+v", it)
	}
	for _, want := range []string{"---\nkind: function\nuri: rsdoc://demo/1.2.3/demo::make\n---\n\n", "# Function `demo::make`", "```rust\nfn make()\n```", "## Examples"} {
		if !strings.Contains(it.Markdown, want) {
			t.Errorf("markdown missing %q:\n%s", want, it.Markdown)
		}
	}

	top, err := l.Get(ctx, "demo", "1.2.3", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(top.Markdown, "| Module | [`inner`](rsdoc://demo/1.2.3/demo::inner) |") {
		t.Errorf("crate module markdown:\n%s", top.Markdown)
	}
	if strings.Contains(top.Markdown, "## Function `make`") {
		t.Error("module stored with its children")
	}
}

func TestGet_FollowsExternalReexport(t *testing.T) {
	l, _ := testLibrary(t)

	it, err := l.Get(context.Background(), "demo", "1.2.3", "demo::Thing")
	if err != nil {
		t.Fatal(err)
	}
	if it.Crate != "other" || it.Version != "1.0.0" || it.Path != "other::Thing" {
		t.Errorf("Get() = %+v", it)
	}
	if !strings.Contains(it.Markdown, "A thing from elsewhere.") {
		t.Errorf("markdown = %s", it.Markdown)
	}
}

func TestGet_ExternalReexportPrefersCataloguedVersion(t *testing.T) {
	l, src := testLibrary(t)
	ctx := context.Background()

	if _, err := l.Index(ctx, "other", "0.9.0"); err != nil {
		t.Fatal(err)
	}
	it, err := l.Get(ctx, "demo", "1.2.3", "demo::Thing")
	if err != nil {
		t.Fatal(err)
	}
	if it.Crate != "other" || it.Version != "0.9.0" {
		t.Errorf("Get() landed on %s@%s, want other@0.9.0", it.Crate, it.Version)
	}
	// other@0.9.0 and demo@1.2.3; no fetch of other@latest
	if n := src.calls.Load(); n != 2 {
		t.Errorf("fetches = %d, want 2", n)
	}
}

func TestGet_NotFound(t *testing.T) {
	l, _ := testLibrary(t)

	_, err := l.Get(context.Background(), "demo", "1.2.3", "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStatusAndClearCache(t *testing.T) {
	l, _ := testLibrary(t)
	ctx := context.Background()
	if _, err := l.Index(ctx, "demo", "1.2.3"); err != nil {
		t.Fatal(err)
	}

	st, err := l.Status()
	if err != nil {
		t.Fatal(err)
	}
	if len(st) != 1 || st[0].Name != "demo" || st[0].Items != 5 || !st[0].Loaded || st[0].ProcessedAt == nil {
		t.Errorf("Status() = %+v", st)
	}

	if err := l.ClearCache(); err != nil {
		t.Fatal(err)
	}
	st, err = l.Status()
	if err != nil {
		t.Fatal(err)
	}
	if len(st) != 0 {
		t.Errorf("Status() after clear = %+v", st)
	}
	if l.json.Has("demo", "1.2.3") {
		t.Error("json cache survived ClearCache")
	}
	if len(l.Loaded()) != 0 {
		t.Error("loaded crates survived ClearCache")
	}
}

func TestForget(t *testing.T) {
	l, _ := testLibrary(t)
	ctx := context.Background()
	for _, name := range []string{"demo", "other"} {
		if _, err := l.Index(ctx, name, "latest"); err != nil {
			t.Fatal(err)
		}
	}

	if err := l.Forget("demo", "latest"); err != nil {
		t.Fatal(err)
	}
	st, err := l.Status()
	if err != nil {
		t.Fatal(err)
	}
	if len(st) != 1 || st[0].Name != "other" {
		t.Errorf("Status() after Forget = %+v", st)
	}
	if l.json.Has("demo", "1.2.3") || !l.json.Has("other", "1.0.0") {
		t.Error("Forget removed the wrong json cache entries")
	}
	loaded := l.Loaded()
	if loaded["demo@1.2.3"] || !loaded["other@1.0.0"] {
		t.Errorf("Loaded() after Forget = %v", loaded)
	}

	if err := l.Forget("demo", "latest"); !errors.Is(err, ErrNotFound) {
		t.Errorf("forgetting an unknown crate = %v, want ErrNotFound", err)
	}
}

func TestRender(t *testing.T) {
	l, _ := testLibrary(t)
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := l.Render(context.Background(), "demo", "1.2.3", dir, RenderOptions{Style: config.DocPerMod})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "demo.md"), filepath.Join(dir, "demo.inner.md")}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[`inner`](demo.inner.md)") {
		t.Errorf("crate page does not link the module page:\n%s", data)
	}
}

func TestQualify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		crate, path, want string
	}{
		{"serde-json", "", "serde_json"},
		{"serde-json", "Value", "serde_json::Value"},
		{"serde-json", "serde_json::Value", "serde_json::Value"},
		{"serde-json", "serde-json::Value", "serde_json::Value"},
		{"demo", "::inner::Widget", "demo::inner::Widget"},
		{"demo", "demo", "demo"},
	}
	for _, tt := range tests {
		if got := qualify(tt.crate, tt.path); got != tt.want {
			t.Errorf("qualify(%q, %q) = %q, want %q", tt.crate, tt.path, got, tt.want)
		}
	}
}
