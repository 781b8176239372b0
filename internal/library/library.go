// Package library loads crate documentation and keeps the on-disk caches and
// catalogue in step with it.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jcdickinson/ferrisdoc/internal/cas"
	"github.com/jcdickinson/ferrisdoc/internal/config"
	"github.com/jcdickinson/ferrisdoc/internal/db"
	"github.com/jcdickinson/ferrisdoc/internal/doc"
	"github.com/jcdickinson/ferrisdoc/internal/pass"
	"github.com/jcdickinson/ferrisdoc/internal/rustdoc"
)

// ErrNotFound is returned when a crate or item cannot be found.
var ErrNotFound = errors.New("not found")

// Source fetches raw rustdoc JSON. *rustdoc.Fetcher implements it.
type Source interface {
	Fetch(ctx context.Context, name, version string) ([]byte, error)
}

// Crate is a loaded crate. Raw is the extracted document; Doc has had the
// passes applied with rsdoc:// index links on a single page.
type Crate struct {
	Name    string
	Version string
	Rustdoc *rustdoc.Crate
	Raw     doc.Doc
	Doc     doc.Doc
}

type Library struct {
	cfg    *config.Config
	source Source
	json   rustdoc.JSONCache
	cas    *cas.Store
	db     *db.DB

	loadGroup  singleflight.Group
	indexGroup singleflight.Group

	mu     sync.RWMutex
	crates map[string]*Crate
}

// New returns a Library fetching from docs.rs as configured.
func New(cfg *config.Config, database *db.DB) *Library {
	fetcher := rustdoc.NewFetcher(cfg.DocsRs.BaseURL, cfg.DocsRs.UserAgent, cfg.DocsRs.Timeout())
	return NewWithSource(cfg, database, fetcher)
}

func NewWithSource(cfg *config.Config, database *db.DB, source Source) *Library {
	return &Library{
		cfg:    cfg,
		source: source,
		json:   rustdoc.JSONCache{Dir: cfg.JSONCacheDir()},
		cas:    cas.New(cfg.CASDir()),
		db:     database,
		crates: make(map[string]*Crate),
	}
}

func key(name, version string) string {
	return name + "@" + version
}

func normalizeVersion(version string) string {
	if version == "" || version == "*" {
		return "latest"
	}
	return version
}

// Load returns the crate's documentation, reading the JSON cache or fetching
// from docs.rs as needed. Concurrent loads of the same crate version share
// one fetch.
func (l *Library) Load(ctx context.Context, name, version string) (*Crate, error) {
	version = normalizeVersion(version)
	k := key(name, version)

	l.mu.RLock()
	c, ok := l.crates[k]
	l.mu.RUnlock()
	if ok {
		return c, nil
	}

	v, err, _ := l.loadGroup.Do(k, func() (interface{}, error) {
		c, err := l.load(ctx, name, version)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.crates[k] = c
		l.crates[key(name, c.Version)] = c
		l.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Crate), nil
}

func (l *Library) load(ctx context.Context, name, version string) (*Crate, error) {
	if version != "latest" && l.json.Has(name, version) {
		crate, err := l.json.Load(name, version)
		if err == nil {
			slog.Debug("loaded rustdoc json from cache", "crate", name, "version", version)
			return l.build(name, version, crate)
		}
		slog.Warn("discarding unreadable cache entry", "crate", name, "version", version, "error", err)
	}

	data, err := l.source.Fetch(ctx, name, version)
	if err != nil {
		return nil, fmt.Errorf("fetching %s@%s: %w", name, version, err)
	}
	crate, _, err := rustdoc.Extract(data, name, version)
	if err != nil {
		return nil, err
	}
	if version == "latest" {
		if crate.CrateVersion == nil || *crate.CrateVersion == "" {
			return nil, fmt.Errorf("%s@latest: rustdoc JSON carries no crate version", name)
		}
		version = *crate.CrateVersion
	}

	if err := l.json.Save(data, name, version); err != nil {
		slog.Warn("failed to cache rustdoc json", "crate", name, "version", version, "error", err)
	}
	if l.db != nil {
		if c, err := l.db.UpsertCrate(name, version); err != nil {
			slog.Warn("failed to record crate", "crate", name, "error", err)
		} else if err := l.db.MarkCrateFetched(c.ID); err != nil {
			slog.Warn("failed to mark crate fetched", "crate", name, "error", err)
		}
	}
	return l.build(name, version, crate)
}

func (l *Library) build(name, version string, crate *rustdoc.Crate) (*Crate, error) {
	raw, err := crate.Build(name, version)
	if err != nil {
		return nil, err
	}
	processed := pass.Run(raw, pass.Options{
		Style: config.DocPerCrate,
		Link:  pass.URILink(name, version),
	})
	return &Crate{Name: name, Version: version, Rustdoc: crate, Raw: raw, Doc: processed}, nil
}

// Loaded lists the crates held in memory, keyed "name@version".
func (l *Library) Loaded() map[string]bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]bool, len(l.crates))
	for _, c := range l.crates {
		out[key(c.Name, c.Version)] = true
	}
	return out
}

// Forget drops one crate version: its loaded copy, cached JSON and catalogue
// rows. Rendered items stay in the content store, which is shared. "latest"
// forgets the most recently processed version.
func (l *Library) Forget(name, version string) error {
	version = normalizeVersion(version)
	if version == "latest" && l.db != nil {
		c, err := l.db.GetLatestCrate(name)
		if err != nil {
			return fmt.Errorf("looking up %s: %w", name, err)
		}
		if c == nil {
			return fmt.Errorf("%s@latest: %w", name, ErrNotFound)
		}
		version = c.Version
	}

	l.mu.Lock()
	for k, c := range l.crates {
		if c.Name == name && c.Version == version {
			delete(l.crates, k)
		}
	}
	l.mu.Unlock()

	var errs []error
	if err := l.json.Remove(name, version); err != nil {
		errs = append(errs, err)
	}
	if l.db != nil {
		row, err := l.db.GetCrate(name, version)
		switch {
		case err != nil:
			errs = append(errs, err)
		case row != nil:
			if err := l.db.DeleteCrate(row.ID); err != nil {
				errs = append(errs, err)
			}
		}
	}
	slog.Info("forgot crate", "crate", name, "version", version)
	return errors.Join(errs...)
}

// ClearCache drops everything: loaded crates, cached JSON, rendered items and
// the catalogue.
func (l *Library) ClearCache() error {
	l.mu.Lock()
	l.crates = make(map[string]*Crate)
	l.mu.Unlock()

	var errs []error
	if err := l.json.Clear(); err != nil {
		errs = append(errs, err)
	}
	if err := l.cas.Clear(); err != nil {
		errs = append(errs, err)
	}
	if l.db != nil {
		if err := l.db.Reset(); err != nil {
			errs = append(errs, fmt.Errorf("resetting catalogue: %w", err))
		}
	}
	return errors.Join(errs...)
}
