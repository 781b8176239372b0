package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jcdickinson/ferrisdoc/internal/db"
	"github.com/jcdickinson/ferrisdoc/internal/doc"
	"github.com/jcdickinson/ferrisdoc/internal/markdown"
	"github.com/jcdickinson/ferrisdoc/internal/render"
	"github.com/jcdickinson/ferrisdoc/internal/rustdoc"
)

// IndexResult reports what Index stored for a crate.
type IndexResult struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Items     int            `json:"items"`
	Reexports int            `json:"reexports"`
	Kinds     map[string]int `json:"kinds,omitempty"`
}

// Index loads the crate, renders every item into the content store and
// records it in the catalogue, replacing whatever was recorded before.
func (l *Library) Index(ctx context.Context, name, version string) (*IndexResult, error) {
	c, err := l.Load(ctx, name, version)
	if err != nil {
		return nil, err
	}
	v, err, _ := l.indexGroup.Do(key(c.Name, c.Version), func() (interface{}, error) {
		return l.index(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return v.(*IndexResult), nil
}

func (l *Library) index(ctx context.Context, c *Crate) (*IndexResult, error) {
	if l.db == nil {
		return nil, fmt.Errorf("indexing %s: no catalogue", c.Name)
	}
	row, err := l.db.UpsertCrate(c.Name, c.Version)
	if err != nil {
		return nil, fmt.Errorf("recording crate: %w", err)
	}

	var items []db.Item
	var tags []doc.ItemTag
	var walkErr error
	c.Doc.Walk(func(t doc.ItemTag) bool {
		if err := ctx.Err(); err != nil {
			walkErr = err
			return false
		}
		it, err := l.catalogue(c, t)
		if err != nil {
			walkErr = err
			return false
		}
		items = append(items, it)
		tags = append(tags, shallow(t))
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}

	if err := l.db.ReplaceItems(row.ID, items); err != nil {
		return nil, err
	}

	var reexports []db.Reexport
	for _, r := range c.Rustdoc.Reexports(c.Name) {
		reexports = append(reexports, db.Reexport{
			LocalPrefix:  r.LocalPrefix,
			SourceCrate:  r.SourceCrate,
			SourcePrefix: r.SourcePrefix,
		})
	}
	if err := l.db.ReplaceReexports(row.ID, reexports); err != nil {
		return nil, err
	}
	if err := l.db.MarkCrateProcessed(row.ID); err != nil {
		return nil, fmt.Errorf("marking crate processed: %w", err)
	}

	slog.Info("indexed crate", "crate", c.Name, "version", c.Version, "items", len(items), "reexports", len(reexports))
	return &IndexResult{
		Name:      c.Name,
		Version:   c.Version,
		Items:     len(items),
		Reexports: len(reexports),
		Kinds:     kindCounts(tags),
	}, nil
}

// kindCounts tallies items by kind slug, leaving out kinds with none.
func kindCounts(tags []doc.ItemTag) map[string]int {
	counts := make(map[string]int)
	for _, k := range doc.Kinds {
		if n := len(doc.OfKind(tags, k)); n > 0 {
			counts[k.Slug()] = n
		}
	}
	return counts
}

// catalogue stores the rendered markdown of t and returns its catalogue row.
// Modules are stored without their children; their index still lists them.
func (l *Library) catalogue(c *Crate, t doc.ItemTag) (db.Item, error) {
	content := markdown.AddFrontMatter(render.Item(shallow(t)), map[string]string{
		"uri":  rustdoc.ItemURI(c.Name, c.Version, doc.QualifiedName(t)),
		"kind": t.Kind().Slug(),
	})
	hash, err := l.cas.Write(content)
	if err != nil {
		return db.Item{}, err
	}
	item := t.AsItem()
	return db.Item{
		AstID:       int(item.ID),
		Name:        item.Name,
		Module:      strings.Join(item.Path, "::"),
		Path:        doc.QualifiedName(t),
		Kind:        t.Kind().Slug(),
		Brief:       markdown.PlainText(doc.StringValue(item.Brief)),
		Signature:   render.Signature(t),
		Reexport:    item.Reexport,
		ContentHash: hash,
	}, nil
}

func shallow(t doc.ItemTag) doc.ItemTag {
	switch t := t.(type) {
	case doc.ModDoc:
		t.Items = nil
		return t
	case doc.NmodDoc:
		t.Fns = nil
		return t
	}
	return t
}

// ensureIndexed returns the catalogue row of a processed crate, indexing it
// first when needed. "latest" is resolved through Load.
func (l *Library) ensureIndexed(ctx context.Context, name, version string) (*db.Crate, error) {
	if l.db == nil {
		return nil, fmt.Errorf("%s: no catalogue", name)
	}
	version = normalizeVersion(version)
	if version == "latest" {
		c, err := l.Load(ctx, name, version)
		if err != nil {
			return nil, err
		}
		version = c.Version
	}

	row, err := l.db.GetCrate(name, version)
	if err != nil {
		return nil, err
	}
	if row != nil && row.ProcessedAt != nil {
		if err := l.db.TouchCrate(row.ID); err != nil {
			slog.Debug("failed to touch crate", "crate", name, "error", err)
		}
		return row, nil
	}

	if _, err := l.Index(ctx, name, version); err != nil {
		return nil, err
	}
	row, err = l.db.GetCrate(name, version)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("%s@%s: %w", name, version, ErrNotFound)
	}
	return row, nil
}
