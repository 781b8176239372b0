package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/jcdickinson/ferrisdoc/internal/config"
	"github.com/jcdickinson/ferrisdoc/internal/doc"
	"github.com/jcdickinson/ferrisdoc/internal/markdown"
	"github.com/jcdickinson/ferrisdoc/internal/pass"
)

// HTML renders one page as a standalone HTML document.
func HTML(p doc.Page) string {
	return markdown.Page(Title(p), markdown.ToHTML(Markdown(p)))
}

// Page renders p in the given format.
func Page(p doc.Page, format config.OutputFormat) string {
	if format == config.FormatHTML {
		return HTML(p)
	}
	return Markdown(p)
}

// FileName is the name WriteAll gives the file for p.
func FileName(p doc.Page, format config.OutputFormat) string {
	switch p := p.(type) {
	case doc.CratePage:
		return pass.PageFile(p.Doc.TopMod, format.Ext())
	case doc.ItemPage:
		if p.Tag != nil {
			return pass.PageFile(p.Tag, format.Ext())
		}
	}
	return ""
}

type Options struct {
	Format  config.OutputFormat
	Workers int
}

// WriteAll renders every page of d into dir, at most opts.Workers at a time,
// and returns the written paths in page order.
func WriteAll(ctx context.Context, d doc.Doc, dir string, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	paths := make([]string, len(d.Pages))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for i, p := range d.Pages {
		name := FileName(p, opts.Format)
		if name == "" {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(Page(p, opts.Format)), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
			slog.Debug("wrote page", "path", path)
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	written := paths[:0]
	for _, p := range paths {
		if p != "" {
			written = append(written, p)
		}
	}
	return written, nil
}
