// Package mcp provides the MCP (Model Context Protocol) server for foodweb.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Benny93/foodweb-go/internal/foodweb"
	"github.com/Benny93/foodweb-go/internal/loader"
	"github.com/Benny93/foodweb-go/internal/report"
	"github.com/Benny93/foodweb-go/internal/storage"
)

// Bounds for chain searches made through foodweb_chains.
const (
	defaultChainLinks = 10
	maxChainResults   = 100
)

// ErrNoStore is returned by snapshot tools when the server has no store.
var ErrNoStore = errors.New("no snapshot store configured")

// Server represents the MCP server.
type Server struct {
	web    *foodweb.FoodWeb
	store  SnapshotStore
	impl   *mcp.Implementation
	server *mcp.Server
	logger *slog.Logger
}

// SnapshotStore is the read side of a storage backend.
type SnapshotStore interface {
	Get(ctx context.Context, name string) (*storage.Snapshot, error)
	List(ctx context.Context) ([]string, error)
}

// Config holds the optional collaborators of a Server.
type Config struct {
	// Version is reported to clients during initialize.
	Version string

	// Store enables the snapshot tools. May be nil.
	Store SnapshotStore

	// Logger receives request diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server answering questions about web.
func NewServer(web *foodweb.FoodWeb, cfg Config) *Server {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		web:    web,
		store:  cfg.Store,
		logger: cfg.Logger,
		impl: &mcp.Implementation{
			Name:    "foodweb-go",
			Version: cfg.Version,
		},
	}
	s.server = mcp.NewServer(s.impl, &mcp.ServerOptions{Logger: cfg.Logger})
	s.register()

	return s
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	tools := []Tool{
		{
			Name:        "foodweb_metrics",
			Description: "Structural metrics of the food web: node and edge counts, density, strong and weak connectivity.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"snapshot": {Type: "string", Description: "Name of a stored snapshot to report on instead of the loaded web"},
				},
			},
		},
		{
			Name:        "foodweb_organism",
			Description: "Describe one organism: its trophic tier, in- and out-degree, what it eats and what eats it.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name": {Type: "string", Description: "Organism name, e.g. Rabbit"},
				},
				Required: []string{"name"},
			},
		},
		{
			Name:        "foodweb_tier",
			Description: "List the organisms of a trophic tier.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"tier": {
						Type:        "string",
						Description: "Tier key, e.g. primary_consumers",
						Enum:        tierKeys(),
					},
				},
				Required: []string{"tier"},
			},
		},
		{
			Name:        "foodweb_roles",
			Description: "Top predators (nothing eats them) and base organisms (they eat nothing).",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
		{
			Name:        "foodweb_chains",
			Description: "Food chains from base organisms, or from one organism, up to the organisms nothing eats.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"organism":  {Type: "string", Description: "Start the chains at this organism instead of the base organisms"},
					"max_links": {Type: "integer", Description: "Cut chains after this many links (default 10)"},
				},
			},
		},
	}

	if s.store != nil {
		tools = append(tools, Tool{
			Name:        "foodweb_snapshots",
			Description: "List the names of stored food web snapshots.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		})
	}
	return tools
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "foodweb://overview",
			Name:        "Food Web Analysis",
			Description: "The console analysis report of the loaded food web",
			MimeType:    "text/plain",
		},
		{
			URI:         "foodweb://dataset",
			Name:        "Food Web Dataset",
			Description: "The loaded dataset as YAML",
			MimeType:    "application/yaml",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "foodweb_metrics":
		return s.handleMetrics(ctx, stringArg(args, "snapshot"))
	case "foodweb_organism":
		return handleOrganism(s.web, stringArg(args, "name"))
	case "foodweb_tier":
		return handleTier(s.web, stringArg(args, "tier"))
	case "foodweb_roles":
		return handleRoles(s.web), nil
	case "foodweb_chains":
		return handleChains(s.web, stringArg(args, "organism"), intArg(args, "max_links"))
	case "foodweb_snapshots":
		return s.handleSnapshots(ctx)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	var buf bytes.Buffer
	switch uri {
	case "foodweb://overview":
		if err := report.Write(&buf, s.web, report.Options{NoColor: true}); err != nil {
			return "", err
		}
	case "foodweb://dataset":
		if err := loader.Encode(&buf, s.web.Dataset(), loader.FormatYAML); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
	return buf.String(), nil
}

// Run serves the tools and resources over newline-delimited JSON-RPC on stdin
// and stdout until stdin is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	transport := &mcp.IOTransport{
		Reader: readCloser(stdin),
		Writer: writeCloser(stdout),
	}
	return s.server.Run(ctx, transport)
}

// register publishes the tools and resources on the SDK server.
func (s *Server) register() {
	for _, tool := range s.ListTools() {
		s.server.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}, s.toolHandler(tool.Name))
	}
	for _, res := range s.ListResources() {
		s.server.AddResource(&mcp.Resource{
			URI:         res.URI,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MimeType,
		}, s.resourceHandler(res.MimeType))
	}
}

// toolHandler adapts CallTool to the SDK. Tool failures are reported in the
// result with IsError set, not as protocol errors.
func (s *Server) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args map[string]any
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return nil, fmt.Errorf("decoding %s arguments: %w", name, err)
			}
		}

		s.logger.Debug("mcp tool call", "tool", name)
		text, err := s.CallTool(ctx, name, args)
		if err != nil {
			s.logger.Debug("tool failed", "tool", name, "error", err)
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
			}, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil
	}
}

func (s *Server) resourceHandler(mimeType string) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI
		text, err := s.ReadResource(ctx, uri)
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeType, Text: text}},
		}, nil
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// readCloser and writeCloser leave plain readers and writers open when the
// transport shuts down.
func readCloser(r io.Reader) io.ReadCloser {
	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}
	return io.NopCloser(r)
}

func writeCloser(w io.Writer) io.WriteCloser {
	if wc, ok := w.(io.WriteCloser); ok {
		return wc
	}
	return nopWriteCloser{w}
}

// Tool Handlers

func (s *Server) handleMetrics(ctx context.Context, snapshot string) (string, error) {
	if snapshot == "" {
		return formatMetrics(s.web.Name(), s.web.Metrics()), nil
	}
	if s.store == nil {
		return "", ErrNoStore
	}

	snap, err := s.store.Get(ctx, snapshot)
	if err != nil {
		return "", fmt.Errorf("loading snapshot: %w", err)
	}
	if snap == nil {
		return fmt.Sprintf("Snapshot '%s' not found", snapshot), nil
	}
	return formatMetrics(snap.Name, snap.Metrics), nil
}

func formatMetrics(name string, m foodweb.Metrics) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Metrics for food web: **%s**\n\n", name)
	fmt.Fprintf(&sb, "- Nodes: %d\n", m.Nodes)
	fmt.Fprintf(&sb, "- Edges: %d\n", m.Edges)
	fmt.Fprintf(&sb, "- Density: %.3f\n", m.Density)
	fmt.Fprintf(&sb, "- Strongly connected: %t\n", m.StronglyConnected)
	fmt.Fprintf(&sb, "- Weakly connected: %t\n", m.WeaklyConnected)
	return sb.String()
}

func handleOrganism(web *foodweb.FoodWeb, name string) (string, error) {
	if name == "" {
		return "No organism provided", nil
	}

	tier, err := web.TierOf(name)
	if errors.Is(err, foodweb.ErrNotFound) {
		return fmt.Sprintf("Organism '%s' not found in food web", name), nil
	}
	if err != nil {
		return "", err
	}

	// The lookups below cannot miss once TierOf succeeded.
	in, _ := web.InDegree(name)
	out, _ := web.OutDegree(name)
	prey, _ := web.Prey(name)
	predators, _ := web.Predators(name)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Organism: **%s**\n\n", name)
	fmt.Fprintf(&sb, "- Tier: %s\n", tier)
	fmt.Fprintf(&sb, "- In-degree: %d\n", in)
	fmt.Fprintf(&sb, "- Out-degree: %d\n", out)
	fmt.Fprintf(&sb, "- Eats: %s\n", listOrNone(prey))
	fmt.Fprintf(&sb, "- Eaten by: %s\n", listOrNone(predators))
	return sb.String(), nil
}

func handleTier(web *foodweb.FoodWeb, tierArg string) (string, error) {
	if tierArg == "" {
		return "No tier provided", nil
	}

	tier, err := foodweb.ParseTier(tierArg)
	if err != nil {
		return "", err
	}

	members := web.Members(tier)
	return fmt.Sprintf("%s (%d): %s\n", tier, len(members), listOrNone(members)), nil
}

func handleRoles(web *foodweb.FoodWeb) string {
	var sb strings.Builder
	sb.WriteString("## Top predators (no outgoing edges)\n")
	for _, name := range web.TopPredators() {
		fmt.Fprintf(&sb, "- %s\n", name)
	}
	sb.WriteString("\n## Base organisms (no incoming edges)\n")
	for _, name := range web.BaseOrganisms() {
		fmt.Fprintf(&sb, "- %s\n", name)
	}
	return sb.String()
}

func handleChains(web *foodweb.FoodWeb, organism string, maxLinks int) (string, error) {
	if maxLinks <= 0 {
		maxLinks = defaultChainLinks
	}
	chains, truncated, err := web.FindChains(foodweb.ChainQuery{
		From:     organism,
		MaxLinks: maxLinks,
		Limit:    maxChainResults,
	})
	if errors.Is(err, foodweb.ErrNotFound) {
		return fmt.Sprintf("Organism '%s' not found in food web", organism), nil
	}
	if err != nil {
		return "", err
	}

	if len(chains) == 0 {
		return "No food chains found", nil
	}

	heading := "Food chains"
	if organism != "" {
		heading += " from " + organism
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s (%d)\n", heading, len(chains))
	for _, c := range chains {
		fmt.Fprintf(&sb, "- %s\n", c)
	}
	if truncated {
		fmt.Fprintf(&sb, "\nShowing the first %d chains; pass a smaller max_links or an organism to narrow the search.\n", maxChainResults)
	}
	return sb.String(), nil
}

func (s *Server) handleSnapshots(ctx context.Context) (string, error) {
	if s.store == nil {
		return "", ErrNoStore
	}

	names, err := s.store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("listing snapshots: %w", err)
	}
	if len(names) == 0 {
		return "No snapshots stored", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Snapshots (%d)\n", len(names))
	for _, name := range names {
		fmt.Fprintf(&sb, "- %s\n", name)
	}
	return sb.String(), nil
}

// Helper functions

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

// intArg reads a JSON number argument. Missing or non-numeric values give 0.
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func tierKeys() []any {
	tiers := foodweb.Tiers()
	keys := make([]any, len(tiers))
	for i, t := range tiers {
		keys[i] = t.Key()
	}
	return keys
}
