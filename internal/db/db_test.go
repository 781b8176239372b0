package db

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("creating test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertCrate(t *testing.T) {
	db := testDB(t)

	c1, err := db.UpsertCrate("serde", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	c2, err := db.UpsertCrate("serde", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if c1.ID != c2.ID {
		t.Errorf("upsert created a second row: %d vs %d", c1.ID, c2.ID)
	}

	other, err := db.UpsertCrate("serde", "1.0.1")
	if err != nil {
		t.Fatal(err)
	}
	if other.ID == c1.ID {
		t.Error("different versions share an id")
	}

	crates, err := db.ListCrates()
	if err != nil {
		t.Fatal(err)
	}
	if len(crates) != 2 {
		t.Errorf("ListCrates() = %d rows, want 2", len(crates))
	}
}

func TestGetCrate_Missing(t *testing.T) {
	db := testDB(t)

	c, err := db.GetCrate("nope", "0.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Errorf("GetCrate() = %+v, want nil", c)
	}
}

func TestMarkCrateProcessed_Latest(t *testing.T) {
	db := testDB(t)

	c, err := db.UpsertCrate("anyhow", "1.0.80")
	if err != nil {
		t.Fatal(err)
	}
	if latest, err := db.GetLatestCrate("anyhow"); err != nil || latest != nil {
		t.Fatalf("GetLatestCrate() before processing = %+v, %v", latest, err)
	}

	if err := db.MarkCrateFetched(c.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkCrateProcessed(c.ID); err != nil {
		t.Fatal(err)
	}

	latest, err := db.GetLatestCrate("anyhow")
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.ID != c.ID || latest.ProcessedAt == nil || latest.FetchedAt == nil {
		t.Errorf("GetLatestCrate() = %+v", latest)
	}
}

func sampleItems() []Item {
	return []Item{
		{AstID: 0, Name: "demo", Module: "", Path: "demo", Kind: "module", ContentHash: "h0"},
		{AstID: 1, Name: "make", Module: "demo", Path: "demo::make", Kind: "function", Signature: "fn make()", ContentHash: "h1"},
		{AstID: 2, Name: "inner", Module: "demo", Path: "demo::inner", Kind: "module", ContentHash: "h2"},
		{AstID: 3, Name: "Widget", Module: "demo::inner", Path: "demo::inner::Widget", Kind: "struct", Brief: "A widget.", ContentHash: "h3"},
		{AstID: 3, Name: "Widget", Module: "demo", Path: "demo::Widget", Kind: "struct", Reexport: true, ContentHash: "h3"},
	}
}

func TestReplaceItems(t *testing.T) {
	db := testDB(t)
	c, err := db.UpsertCrate("demo", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}

	items := sampleItems()
	if err := db.ReplaceItems(c.ID, items); err != nil {
		t.Fatal(err)
	}
	for _, it := range items {
		if it.ID == 0 || it.CrateID != c.ID {
			t.Errorf("item %s not filled in: %+v", it.Path, it)
		}
	}

	// Replacing again must not duplicate rows.
	if err := db.ReplaceItems(c.ID, sampleItems()); err != nil {
		t.Fatal(err)
	}
	n, err := db.CountItems(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(items) {
		t.Errorf("CountItems() = %d, want %d", n, len(items))
	}
}

func TestGetItemByPath(t *testing.T) {
	db := testDB(t)
	c, _ := db.UpsertCrate("demo", "1.0.0")
	if err := db.ReplaceItems(c.ID, sampleItems()); err != nil {
		t.Fatal(err)
	}

	it, err := db.GetItemByPath(c.ID, "demo::inner::Widget")
	if err != nil {
		t.Fatal(err)
	}
	if it == nil || it.Brief != "A widget." || it.Reexport {
		t.Errorf("GetItemByPath() = %+v", it)
	}

	re, err := db.GetItemByPath(c.ID, "demo::Widget")
	if err != nil {
		t.Fatal(err)
	}
	if re == nil || !re.Reexport || re.AstID != 3 {
		t.Errorf("reexported item = %+v", re)
	}

	missing, err := db.GetItemByPath(c.ID, "demo::nope")
	if err != nil || missing != nil {
		t.Errorf("missing item = %+v, %v", missing, err)
	}
}

func TestListItems(t *testing.T) {
	db := testDB(t)
	c, _ := db.UpsertCrate("demo", "1.0.0")
	if err := db.ReplaceItems(c.ID, sampleItems()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter ItemFilter
		want   []string
	}{
		{"all", ItemFilter{}, []string{"demo", "demo::make", "demo::inner", "demo::inner::Widget", "demo::Widget"}},
		{"module", ItemFilter{Module: "demo"}, []string{"demo::make", "demo::inner", "demo::Widget"}},
		{"recursive", ItemFilter{Module: "demo::inner", Recursive: true}, []string{"demo::inner::Widget"}},
		{"kind", ItemFilter{Kind: "struct"}, []string{"demo::inner::Widget", "demo::Widget"}},
		{"module_and_kind", ItemFilter{Module: "demo", Kind: "module"}, []string{"demo::inner"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := db.ListItems(c.ID, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, it := range items {
				got = append(got, it.Path)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestResolveReexport(t *testing.T) {
	db := testDB(t)
	c, _ := db.UpsertCrate("tokio", "1.0.0")

	err := db.ReplaceReexports(c.ID, []Reexport{
		{LocalPrefix: "tokio::io", SourceCrate: "tokio_io", SourcePrefix: "tokio_io"},
		{LocalPrefix: "tokio::io::util", SourceCrate: "tokio_util", SourcePrefix: "tokio_util::io"},
	})
	if err != nil {
		t.Fatal(err)
	}
	// Replacing with the same keys must succeed.
	err = db.ReplaceReexports(c.ID, []Reexport{
		{LocalPrefix: "tokio::io", SourceCrate: "tokio_io", SourcePrefix: "tokio_io"},
		{LocalPrefix: "tokio::io::util", SourceCrate: "tokio_util", SourcePrefix: "tokio_util::io"},
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path      string
		wantCrate string
		wantPath  string
		wantFound bool
	}{
		{"tokio::io", "tokio_io", "tokio_io", true},
		{"tokio::io::AsyncRead", "tokio_io", "tokio_io::AsyncRead", true},
		{"tokio::io::util::copy", "tokio_util", "tokio_util::io::copy", true},
		{"tokio::iox", "", "", false},
		{"tokio::net", "", "", false},
	}
	for _, tt := range tests {
		gotCrate, gotPath, found := db.ResolveReexport(c.ID, tt.path)
		if gotCrate != tt.wantCrate || gotPath != tt.wantPath || found != tt.wantFound {
			t.Errorf("ResolveReexport(%q) = %q, %q, %v", tt.path, gotCrate, gotPath, found)
		}
	}
}

func TestDeleteCrateAndReset(t *testing.T) {
	db := testDB(t)
	a, _ := db.UpsertCrate("a", "1.0.0")
	b, _ := db.UpsertCrate("b", "1.0.0")
	if err := db.ReplaceItems(a.ID, sampleItems()); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceItems(b.ID, sampleItems()); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteCrate(a.ID); err != nil {
		t.Fatal(err)
	}
	if c, _ := db.GetCrate("a", "1.0.0"); c != nil {
		t.Error("crate a survived DeleteCrate")
	}
	if n, _ := db.CountItems(a.ID); n != 0 {
		t.Errorf("crate a still has %d items", n)
	}
	if n, _ := db.CountItems(b.ID); n != len(sampleItems()) {
		t.Errorf("crate b has %d items", n)
	}

	if err := db.Reset(); err != nil {
		t.Fatal(err)
	}
	crates, err := db.ListCrates()
	if err != nil {
		t.Fatal(err)
	}
	if len(crates) != 0 {
		t.Errorf("ListCrates() after Reset = %+v", crates)
	}
}
