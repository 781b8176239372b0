package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jcdickinson/ferrisdoc/internal/doc"
	"github.com/jcdickinson/ferrisdoc/internal/library"
	"github.com/jcdickinson/ferrisdoc/internal/markdown"
	"github.com/jcdickinson/ferrisdoc/internal/rustdoc"
)

type crateResult struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Items     int    `json:"items"`
	Processed bool   `json:"processed"`
	Loaded    bool   `json:"loaded"`
}

type itemResult struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Kind      string `json:"kind"`
	Brief     string `json:"brief,omitempty"`
	Signature string `json:"signature,omitempty"`
	Reexport  bool   `json:"reexport,omitempty"`
	URI       string `json:"uri"`
}

func (s *Server) handleListCrates(w http.ResponseWriter, r *http.Request) {
	crates, err := s.lib.Status()
	if err != nil {
		jsonError(w, "failed to list crates: "+err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]crateResult, 0, len(crates))
	for _, c := range crates {
		out = append(out, crateResult{
			Name:      c.Name,
			Version:   c.Version,
			Items:     c.Items,
			Processed: c.ProcessedAt != nil,
			Loaded:    c.Loaded,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"crates": out})
}

func (s *Server) handleBuildCrate(w http.ResponseWriter, r *http.Request) {
	res, err := s.lib.Index(r.Context(), chi.URLParam(r, "crate"), chi.URLParam(r, "version"))
	if err != nil {
		jsonError(w, "build failed: "+err.Error(), statusOf(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	crateName, version := chi.URLParam(r, "crate"), chi.URLParam(r, "version")

	query := r.URL.Query()
	q := library.ItemQuery{
		Module: query.Get("module"),
		Kind:   query.Get("kind"),
	}
	if q.Kind != "" {
		if _, err := doc.ParseKind(q.Kind); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if v := query.Get("recursive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, "recursive must be a boolean", http.StatusBadRequest)
			return
		}
		q.Recursive = b
	}

	items, err := s.lib.Items(r.Context(), crateName, version, q)
	if err != nil {
		jsonError(w, "listing items failed: "+err.Error(), statusOf(err))
		return
	}

	out := make([]itemResult, 0, len(items))
	for _, it := range items {
		out = append(out, itemResult{
			Name:      it.Name,
			Path:      it.Path,
			Kind:      it.Kind,
			Brief:     it.Brief,
			Signature: it.Signature,
			Reexport:  it.Reexport,
			URI:       rustdoc.ItemURI(crateName, version, it.Path),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

// handleDoc serves an item's markdown, or a standalone HTML page when the
// client asks for format=html.
func (s *Server) handleDoc(w http.ResponseWriter, r *http.Request) {
	path, err := url.PathUnescape(chi.URLParam(r, "path"))
	if err != nil {
		jsonError(w, "invalid item path", http.StatusBadRequest)
		return
	}

	it, err := s.lib.Get(r.Context(), chi.URLParam(r, "crate"), chi.URLParam(r, "version"), path)
	if err != nil {
		jsonError(w, err.Error(), statusOf(err))
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(it.Markdown))
	case "html":
		body := markdown.ToHTML(markdown.StripFrontMatter(it.Markdown))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(markdown.Page(it.Path, body)))
	default:
		jsonError(w, "format must be markdown or html", http.StatusBadRequest)
	}
}

func statusOf(err error) int {
	if errors.Is(err, library.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
