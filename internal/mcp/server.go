// Package mcp exposes the documentation library over the Model Context
// Protocol.
package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/jcdickinson/ferrisdoc/internal/db"
	"github.com/jcdickinson/ferrisdoc/internal/library"
	"github.com/jcdickinson/ferrisdoc/internal/rustdoc"
)

//go:embed instructions.md
var instructions string

// maxConcurrentBuilds bounds how many crates build_crates builds at once.
const maxConcurrentBuilds = 4

// Library is the part of *library.Library the server uses.
type Library interface {
	Index(ctx context.Context, name, version string) (*library.IndexResult, error)
	Items(ctx context.Context, name, version string, q library.ItemQuery) ([]db.Item, error)
	Get(ctx context.Context, name, version, path string) (*library.Item, error)
}

type Server struct {
	mcpServer *server.MCPServer
	lib       Library
}

func NewServer(lib Library, version string) *Server {
	s := &Server{lib: lib}

	mcpServer := server.NewMCPServer(
		"ferrisdoc",
		version,
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("build_crates",
			mcp.WithDescription("Fetch Rust crate documentation from docs.rs, build it and index every item. Synchronous: returns when complete. Version defaults to \"latest\"."),
			buildCratesSchema,
		),
		s.handleBuildCrates,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_items",
			mcp.WithDescription("List the documented items of a crate, optionally narrowed to a module and an item kind. Builds the crate first if needed. Each item carries an rsdoc:// URI that can be read as a resource."),
			mcp.WithString("crate",
				mcp.Description("Crate name (e.g., \"serde\")"),
				mcp.Required(),
			),
			mcp.WithString("version",
				mcp.Description("Version (default: \"latest\")"),
			),
			mcp.WithString("module",
				mcp.Description("Module path, relative to the crate root or qualified (e.g., \"de\" or \"serde::de\")"),
			),
			mcp.WithString("kind",
				mcp.Description("Item kind: module, function, struct, enum, trait, impl, constant, type_alias or foreign_module"),
			),
			mcp.WithBoolean("recursive",
				mcp.Description("Include items of nested modules (default false)"),
			),
		),
		s.handleListItems,
	)
}

func buildCratesSchema(t *mcp.Tool) {
	t.InputSchema.Required = append(t.InputSchema.Required, "crates")
	t.InputSchema.Properties["crates"] = map[string]any{
		"type":        "array",
		"description": "List of crates to build",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Crate name (e.g., \"serde\")",
				},
				"version": map[string]any{
					"type":        "string",
					"description": "Version (default: \"latest\")",
				},
			},
			"required": []string{"name"},
		},
	}
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			rustdoc.URIScheme+"{crate}/{version}/{path}",
			"Rust documentation item",
			mcp.WithTemplateDescription("Read a specific Rust documentation item as markdown. list_items returns these URIs."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadResource,
	)
}

type crateSpec struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type buildResult struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Items     int            `json:"items,omitempty"`
	Reexports int            `json:"reexports,omitempty"`
	Kinds     map[string]int `json:"kinds,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func (s *Server) handleBuildCrates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	cratesRaw, ok := args["crates"]
	if !ok {
		return mcp.NewToolResultError("missing required parameter: crates"), nil
	}

	cratesJSON, err := json.Marshal(cratesRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid crates parameter: %v", err)), nil
	}

	var specs []crateSpec
	if err := json.Unmarshal(cratesJSON, &specs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid crates format: %v", err)), nil
	}

	results := make([]buildResult, len(specs))
	var g errgroup.Group
	g.SetLimit(maxConcurrentBuilds)
	for i, spec := range specs {
		g.Go(func() error {
			r := buildResult{Name: spec.Name, Version: spec.Version}
			if r.Version == "" {
				r.Version = "latest"
			}
			if spec.Name == "" {
				r.Error = "missing crate name"
			} else if res, err := s.lib.Index(ctx, spec.Name, r.Version); err != nil {
				r.Error = err.Error()
			} else {
				r.Version, r.Items, r.Reexports, r.Kinds = res.Version, res.Items, res.Reexports, res.Kinds
			}
			results[i] = r
			return nil
		})
	}
	g.Wait()

	resultJSON, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
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

func (s *Server) handleListItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	crateName, _ := args["crate"].(string)
	if crateName == "" {
		return mcp.NewToolResultError("missing required parameter: crate"), nil
	}
	version, _ := args["version"].(string)
	if version == "" {
		version = "latest"
	}

	var q library.ItemQuery
	q.Module, _ = args["module"].(string)
	q.Kind, _ = args["kind"].(string)
	q.Recursive, _ = args["recursive"].(bool)

	items, err := s.lib.Items(ctx, crateName, version, q)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing items failed: %v", err)), nil
	}

	results := make([]itemResult, 0, len(items))
	for _, it := range items {
		results = append(results, itemResult{
			Name:      it.Name,
			Path:      it.Path,
			Kind:      it.Kind,
			Brief:     it.Brief,
			Signature: it.Signature,
			Reexport:  it.Reexport,
			URI:       rustdoc.ItemURI(crateName, version, it.Path),
		})
	}

	resultJSON, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	crateName, version, path, err := rustdoc.ParseURI(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid resource URI: %w", err)
	}
	// Fragments name a section of the page; the whole item is returned.
	if idx := strings.LastIndex(path, "#"); idx >= 0 {
		path = path[:idx]
	}

	it, err := s.lib.Get(ctx, crateName, version, path)
	if err != nil {
		return nil, fmt.Errorf("getting doc: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     it.Markdown,
		},
	}, nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(_ context.Context) error {
	return nil
}
