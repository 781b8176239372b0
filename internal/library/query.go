package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/jcdickinson/ferrisdoc/internal/config"
	"github.com/jcdickinson/ferrisdoc/internal/db"
	"github.com/jcdickinson/ferrisdoc/internal/doc"
	"github.com/jcdickinson/ferrisdoc/internal/pass"
	"github.com/jcdickinson/ferrisdoc/internal/render"
)

// maxRedirects bounds how many reexports Get follows.
const maxRedirects = 8

// rootName is the name rustdoc gives a crate's top module.
func rootName(crateName string) string {
	return strings.ReplaceAll(crateName, "-", "_")
}

// qualify turns a path relative to the crate root into a qualified one.
// Paths that already start at the root, with or without the crate name, are
// returned unchanged.
func qualify(crateName, path string) string {
	root := rootName(crateName)
	path = strings.Trim(path, ":")
	switch {
	case path == "":
		return root
	case path == root || strings.HasPrefix(path, root+"::"):
		return path
	case path == crateName || strings.HasPrefix(path, crateName+"::"):
		return root + path[len(crateName):]
	}
	return root + "::" + path
}

// ItemQuery narrows Items. Module is a module path, relative to the crate
// root or qualified; Kind is anything doc.ParseKind accepts.
type ItemQuery struct {
	Module    string
	Kind      string
	Recursive bool
}

// Items lists the catalogue rows of an indexed crate, indexing it first when
// needed.
func (l *Library) Items(ctx context.Context, name, version string, q ItemQuery) ([]db.Item, error) {
	filter := db.ItemFilter{Recursive: q.Recursive}
	if q.Module != "" {
		filter.Module = qualify(name, q.Module)
	}
	if q.Kind != "" {
		k, err := doc.ParseKind(q.Kind)
		if err != nil {
			return nil, err
		}
		filter.Kind = k.Slug()
	}

	row, err := l.ensureIndexed(ctx, name, version)
	if err != nil {
		return nil, err
	}
	return l.db.ListItems(row.ID, filter)
}

// Item is the stored documentation of one item.
type Item struct {
	Crate    string
	Version  string
	Path     string
	Kind     string
	Markdown string
}

// Get returns the markdown of the item at path. When the crate has no item
// there, reexport redirects are followed, possibly into other crates.
func (l *Library) Get(ctx context.Context, name, version, path string) (*Item, error) {
	for range maxRedirects {
		row, err := l.ensureIndexed(ctx, name, version)
		if err != nil {
			return nil, err
		}
		path = qualify(name, path)

		it, err := l.db.GetItemByPath(row.ID, path)
		if err != nil {
			return nil, err
		}
		if it != nil {
			content, err := l.cas.Read(it.ContentHash)
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%s: content missing from store, rebuild %s: %w", path, name, ErrNotFound)
			}
			if err != nil {
				return nil, err
			}
			return &Item{Crate: row.Name, Version: row.Version, Path: it.Path, Kind: it.Kind, Markdown: content}, nil
		}

		srcCrate, srcPath, ok := l.db.ResolveReexport(row.ID, path)
		if !ok {
			return nil, fmt.Errorf("%s in %s@%s: %w", path, row.Name, row.Version, ErrNotFound)
		}
		if srcCrate == row.Name && srcPath == path {
			return nil, fmt.Errorf("%s: reexport of itself: %w", path, ErrNotFound)
		}
		if srcCrate == row.Name {
			version = row.Version
		} else {
			version = l.catalogedVersion(srcCrate)
		}
		name, path = srcCrate, srcPath
	}
	return nil, fmt.Errorf("%s: too many reexport redirects: %w", path, ErrNotFound)
}

// catalogedVersion picks the version a redirect into another crate lands on:
// the most recently processed one, or "latest" when none is catalogued.
func (l *Library) catalogedVersion(name string) string {
	c, err := l.db.GetLatestCrate(name)
	if err != nil {
		slog.Debug("failed to look up catalogued crate", "crate", name, "error", err)
		return "latest"
	}
	if c == nil {
		return "latest"
	}
	return c.Version
}

// CrateStatus describes one catalogued crate.
type CrateStatus struct {
	Name        string
	Version     string
	Items       int
	FetchedAt   *time.Time
	ProcessedAt *time.Time
	LastUsedAt  time.Time
	Loaded      bool
}

func (l *Library) Status() ([]CrateStatus, error) {
	if l.db == nil {
		return nil, nil
	}
	crates, err := l.db.ListCrates()
	if err != nil {
		return nil, fmt.Errorf("listing crates: %w", err)
	}
	loaded := l.Loaded()
	out := make([]CrateStatus, 0, len(crates))
	for _, c := range crates {
		n, err := l.db.CountItems(c.ID)
		if err != nil {
			return nil, fmt.Errorf("counting items of %s: %w", c.Name, err)
		}
		out = append(out, CrateStatus{
			Name:        c.Name,
			Version:     c.Version,
			Items:       n,
			FetchedAt:   c.FetchedAt,
			ProcessedAt: c.ProcessedAt,
			LastUsedAt:  c.LastUsedAt,
			Loaded:      loaded[key(c.Name, c.Version)],
		})
	}
	return out, nil
}

// RenderOptions overrides the configured render settings; zero fields keep
// the configuration's value.
type RenderOptions struct {
	Format  config.OutputFormat
	Style   config.OutputStyle
	Workers int
}

// Render writes the crate's documentation into dir and returns the written
// files.
func (l *Library) Render(ctx context.Context, name, version, dir string, opts RenderOptions) ([]string, error) {
	c, err := l.Load(ctx, name, version)
	if err != nil {
		return nil, err
	}

	rc := l.cfg.Render
	if opts.Format != "" {
		rc.Format = opts.Format
	}
	if opts.Style != "" {
		rc.Style = opts.Style
	}
	if opts.Workers > 0 {
		rc.Workers = opts.Workers
	}

	link := pass.AnchorLink
	if rc.Style == config.DocPerMod {
		link = pass.FileLink(rc.Format.Ext())
	}
	d := pass.Run(c.Raw, pass.Options{Style: rc.Style, Link: link})
	return render.WriteAll(ctx, d, dir, render.Options{Format: rc.Format, Workers: rc.Workers})
}
