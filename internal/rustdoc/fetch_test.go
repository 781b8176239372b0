package rustdoc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
)

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"root":0}`)
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	compressed := enc.EncodeAll(payload, nil)
	enc.Close()

	var gotPath, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		w.Write(compressed)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL+"/", "test-agent", time.Second)
	data, err := f.Fetch(context.Background(), "serde", "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("data = %q", data)
	}
	if gotPath != "/crate/serde/latest/json" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAgent != "test-agent" {
		t.Errorf("user agent = %q", gotAgent)
	}
}

func TestFetcher_Status(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such crate", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.URL, "", 0).Fetch(context.Background(), "nope", "1.0.0")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected 404 error, got %v", err)
	}
}

func TestNewFetcher_Defaults(t *testing.T) {
	t.Parallel()

	f := NewFetcher("", "", 0)
	if f.BaseURL != DefaultBaseURL || f.UserAgent != DefaultUserAgent || f.Client.Timeout != 60*time.Second {
		t.Errorf("defaults = %+v", f)
	}
}
