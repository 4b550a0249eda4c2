// Package cmd provides CLI command implementations for foodweb.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/Benny93/foodweb-go/internal/foodweb"
	"github.com/Benny93/foodweb-go/internal/layout"
	"github.com/Benny93/foodweb-go/internal/loader"
	"github.com/Benny93/foodweb-go/internal/logging"
	"github.com/Benny93/foodweb-go/internal/render"
	"github.com/Benny93/foodweb-go/internal/report"
	"github.com/Benny93/foodweb-go/internal/storage"
	"github.com/Benny93/foodweb-go/internal/watch"
	"github.com/Benny93/foodweb-go/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// DefaultStorePath is where snapshots are kept unless --store says otherwise.
const DefaultStorePath = ".foodweb/badger"

// ErrSnapshotNotFound is returned when a named snapshot is not in the store.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrSVGNeedsFile is returned when watch --svg is given a directory.
var ErrSVGNeedsFile = errors.New("--svg needs a single dataset file, not a directory")

// Globals are the flags and streams shared by every command.
type Globals struct {
	LogLevel  string `help:"Log level (debug|info|warn|error)" enum:"debug,info,warn,error" default:"warn"`
	LogFormat string `help:"Log format (text|json)" enum:"text,json" default:"text"`
	NoColor   bool   `help:"Disable coloured output"`

	// Stdin, Stdout and Stderr are the process streams, swapped out in tests.
	Stdin  io.Reader `kong:"-"`
	Stdout io.Writer `kong:"-"`
	Stderr io.Writer `kong:"-"`

	// Logger is built from LogLevel and LogFormat once flags are parsed.
	Logger *slog.Logger `kong:"-"`
}

// success prints a green status line to stdout.
func (g *Globals) success(format string, args ...any) {
	c := color.New(color.FgGreen)
	if g.NoColor {
		c.DisableColor()
	}
	_, _ = c.Fprintf(g.Stdout, format+"\n", args...)
}

func (g *Globals) reportOptions() report.Options {
	return report.Options{NoColor: g.NoColor}
}

// DatasetFlag selects the dataset a command works on.
type DatasetFlag struct {
	Dataset string `short:"d" help:"Dataset file (.yaml, .yml or .json); the built-in ecosystem when omitted" type:"path"`
}

// load builds the selected food web.
func (f DatasetFlag) load(g *Globals) (*foodweb.FoodWeb, error) {
	return loadWeb(g.Logger, f.Dataset)
}

// StoreFlag selects the snapshot store directory.
type StoreFlag struct {
	Store string `help:"Snapshot store directory" default:"${store}" type:"path"`
}

// AnalyzeCmd prints the food web analysis.
type AnalyzeCmd struct {
	DatasetFlag `embed:""`

	SVG      string `help:"Also render the web to this SVG file" type:"path"`
	Chains   bool   `help:"Also list the food chains starting at base organisms"`
	MaxLinks int    `help:"Cut food chains after this many links (0 = no limit)" default:"0"`
}

// Run executes the analyze command.
func (c *AnalyzeCmd) Run(g *Globals) error {
	web, err := c.load(g)
	if err != nil {
		return err
	}

	if err := report.Write(g.Stdout, web, g.reportOptions()); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if c.Chains {
		if err := report.WriteChains(g.Stdout, web.Chains(c.MaxLinks), g.reportOptions()); err != nil {
			return fmt.Errorf("writing food chains: %w", err)
		}
	}

	if c.SVG != "" {
		if err := renderFile(c.SVG, web, layout.DefaultOptions(), render.DefaultOptions()); err != nil {
			return err
		}
		g.success("\n✓ Rendered %s", c.SVG)
	}
	return nil
}

// RenderCmd draws the food web as an SVG image.
type RenderCmd struct {
	DatasetFlag `embed:""`

	Out        string  `short:"o" help:"Output SVG file" default:"foodweb.svg" type:"path"`
	Seed       int64   `help:"Layout random seed" default:"42"`
	K          float64 `help:"Optimal distance between organisms in the spring layout" default:"3"`
	Iterations int     `help:"Spring layout iterations" default:"50"`
	Width      int     `help:"Canvas width in pixels" default:"1400"`
	Height     int     `help:"Canvas height in pixels" default:"1000"`
	Title      string  `help:"Figure title" default:"Directed Ecosystem Food Web (Trophic Levels)"`
}

// Run executes the render command.
func (c *RenderCmd) Run(g *Globals) error {
	web, err := c.load(g)
	if err != nil {
		return err
	}

	layoutOpts := layout.Options{K: c.K, Iterations: c.Iterations, Seed: c.Seed}
	renderOpts := render.DefaultOptions()
	renderOpts.Width = c.Width
	renderOpts.Height = c.Height
	renderOpts.Title = c.Title

	if err := renderFile(c.Out, web, layoutOpts, renderOpts); err != nil {
		return err
	}

	g.success("✓ Rendered %s (%d organisms, %d edges)", c.Out, web.NodeCount(), web.EdgeCount())
	return nil
}

// ExportCmd writes a dataset in YAML or JSON.
type ExportCmd struct {
	DatasetFlag `embed:""`

	Format string `short:"f" help:"Output format (yaml|json). Defaults to the --out extension, or yaml on stdout"`
	Out    string `short:"o" help:"Write to this file instead of stdout" type:"path"`
}

// Run executes the export command.
func (c *ExportCmd) Run(g *Globals) error {
	format, err := c.format()
	if err != nil {
		return err
	}

	web, err := c.load(g)
	if err != nil {
		return err
	}

	if c.Out == "" {
		return loader.Encode(g.Stdout, web.Dataset(), format)
	}
	if err := loader.SaveAs(c.Out, web.Dataset(), format); err != nil {
		return fmt.Errorf("exporting dataset: %w", err)
	}
	g.success("✓ Exported %s to %s", web.Name(), c.Out)
	return nil
}

// format resolves the output format: an explicit --format wins over the
// extension of --out.
func (c *ExportCmd) format() (loader.Format, error) {
	switch {
	case c.Format != "":
		return loader.ParseFormat(c.Format)
	case c.Out != "":
		return loader.FormatFromPath(c.Out)
	default:
		return loader.FormatYAML, nil
	}
}

// SaveCmd stores a snapshot of a dataset and its analysis.
type SaveCmd struct {
	DatasetFlag `embed:""`
	StoreFlag   `embed:""`

	Name string `arg:"" optional:"" help:"Snapshot name (defaults to the dataset name)"`
}

// Run executes the save command.
func (c *SaveCmd) Run(g *Globals) error {
	web, err := c.load(g)
	if err != nil {
		return err
	}

	store, err := openStore(g.Logger, c.Store, false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	snap := storage.NewSnapshot(c.Name, web, time.Now())
	if err := store.Put(context.Background(), snap); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	g.success("✓ Saved snapshot %q (%d organisms, %d edges)", snap.Name, snap.Metrics.Nodes, snap.Metrics.Edges)
	return nil
}

// ListCmd lists stored snapshots.
type ListCmd struct {
	StoreFlag `embed:""`
}

// Run executes the list command.
func (c *ListCmd) Run(g *Globals) error {
	ctx := context.Background()

	if _, err := os.Stat(c.Store); os.IsNotExist(err) {
		fmt.Fprintln(g.Stdout, "No snapshots stored")
		return nil
	}

	store, err := openStore(g.Logger, c.Store, true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	names, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}
	if len(names) == 0 {
		fmt.Fprintln(g.Stdout, "No snapshots stored")
		return nil
	}

	fmt.Fprintln(g.Stdout, "Stored snapshots:")
	for _, name := range names {
		snap, err := store.Get(ctx, name)
		if err != nil {
			return fmt.Errorf("reading snapshot %q: %w", name, err)
		}
		if snap == nil {
			continue
		}
		fmt.Fprintf(g.Stdout, "\n  %s\n", snap.Name)
		fmt.Fprintf(g.Stdout, "    Organisms: %d\n", snap.Metrics.Nodes)
		fmt.Fprintf(g.Stdout, "    Edges:     %d\n", snap.Metrics.Edges)
		fmt.Fprintf(g.Stdout, "    Saved:     %s\n", snap.SavedAt.Format(time.RFC3339))
	}
	return nil
}

// ShowCmd prints a stored snapshot.
type ShowCmd struct {
	StoreFlag `embed:""`

	Name   string `arg:"" help:"Snapshot name"`
	Format string `short:"f" help:"Output format (report|yaml|json)" enum:"report,yaml,json" default:"report"`
}

// Run executes the show command.
func (c *ShowCmd) Run(g *Globals) error {
	store, err := openStore(g.Logger, c.Store, true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	snap, err := store.Get(context.Background(), c.Name)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	if snap == nil {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, c.Name)
	}

	if c.Format == "report" {
		if err := report.WriteMetrics(g.Stdout, snap.Metrics, g.reportOptions()); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(g.Stdout, "\nSaved: %s\n", snap.SavedAt.Format(time.RFC3339))
		return nil
	}

	format, err := loader.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	return loader.Encode(g.Stdout, snap.Dataset, format)
}

// DeleteCmd removes a stored snapshot.
type DeleteCmd struct {
	StoreFlag `embed:""`

	Name string `arg:"" help:"Snapshot name"`
}

// Run executes the delete command.
func (c *DeleteCmd) Run(g *Globals) error {
	store, err := openStore(g.Logger, c.Store, false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	removed, err := store.Delete(context.Background(), c.Name)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, c.Name)
	}

	g.success("✓ Deleted snapshot %q", c.Name)
	return nil
}

// WatchCmd re-analyses dataset files whenever they change.
type WatchCmd struct {
	Path     string        `arg:"" help:"Dataset file, or a directory of dataset files" type:"path"`
	SVG      string        `help:"Re-render this SVG file on every change (single file only)" type:"path"`
	Debounce time.Duration `help:"Quiet period before reloading" default:"300ms"`
}

// Run executes the watch command.
func (c *WatchCmd) Run(g *Globals) error {
	if c.SVG != "" {
		if info, err := os.Stat(c.Path); err == nil && info.IsDir() {
			return fmt.Errorf("%w: %s", ErrSVGNeedsFile, c.Path)
		}
	}

	// Handle Ctrl+C
	ctx, stop := signalContext(func() {
		fmt.Fprintln(g.Stderr, "\nStopping watch mode...")
	})
	defer stop()

	fmt.Fprintf(g.Stdout, "Watching %s for changes (Ctrl+C to stop)\n", c.Path)

	err := watch.Watch(ctx, c.Path, watch.Options{
		Debounce: c.Debounce,
		Initial:  true,
		Logger:   g.Logger,
	}, c.onChange(g))
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Fprintln(g.Stdout, "Watch mode stopped.")
	return nil
}

func (c *WatchCmd) onChange(g *Globals) watch.Handler {
	return func(path string, web *foodweb.FoodWeb) error {
		fmt.Fprintf(g.Stdout, "\n# %s (%s)\n", path, time.Now().Format(time.TimeOnly))
		if err := report.Write(g.Stdout, web, g.reportOptions()); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}

		if c.SVG == "" {
			return nil
		}
		if err := renderFile(c.SVG, web, layout.DefaultOptions(), render.DefaultOptions()); err != nil {
			g.Logger.Warn("render failed", "path", c.SVG, "error", err)
			return nil
		}
		g.success("✓ Rendered %s", c.SVG)
		return nil
	}
}

// MCPCmd starts the MCP server.
type MCPCmd struct {
	DatasetFlag `embed:""`

	Store string `help:"Snapshot store to expose through the snapshot tools" type:"path"`
}

// Run executes the mcp command.
func (c *MCPCmd) Run(g *Globals) error {
	web, err := c.load(g)
	if err != nil {
		return err
	}

	cfg := mcp.Config{Version: Version, Logger: g.Logger}
	if c.Store != "" {
		store, err := openStore(g.Logger, c.Store, true)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		cfg.Store = store
	}

	ctx, stop := signalContext(nil)
	defer stop()

	// Note: stdout carries JSON-RPC only; diagnostics go to the stderr logger.
	err = mcp.NewServer(web, cfg).Run(ctx, g.Stdin, g.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Helper functions

// signalContext returns a context cancelled on SIGINT or SIGTERM. onSignal, if
// set, runs first. The returned stop cancels the context and releases the
// signal handler.
func signalContext(onSignal func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			if onSignal != nil {
				onSignal()
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// loadWeb builds the web from a dataset file, or the built-in dataset when
// path is empty.
func loadWeb(logger *slog.Logger, path string) (*foodweb.FoodWeb, error) {
	if path == "" {
		return foodweb.New(foodweb.Default())
	}

	ds, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	web, err := foodweb.New(ds)
	if err != nil {
		return nil, err
	}

	logger.Debug("dataset loaded", "path", path, "name", web.Name(), "nodes", web.NodeCount(), "edges", web.EdgeCount())
	return web, nil
}

// openStore opens the badger snapshot store. A writable store is created on
// demand; a read-only one must already exist.
func openStore(logger *slog.Logger, path string, readOnly bool) (*storage.BadgerBackend, error) {
	if readOnly {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("no snapshot store at %s. Run 'foodweb save' first", path)
		}
	} else if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	store := storage.NewBadgerBackend(logger)
	if err := store.Initialize(path, readOnly); err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// renderFile lays out web by trophic level and writes it as SVG to path.
func renderFile(path string, web *foodweb.FoodWeb, layoutOpts layout.Options, renderOpts render.Options) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	positions := layout.Trophic(web, layoutOpts, layout.DefaultLevels())
	if err := render.SVG(f, web, positions, renderOpts); err != nil {
		_ = f.Close()
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return f.Close()
}

// CLI is the root Kong command structure.
type CLI struct {
	Globals `embed:""`

	Version kong.VersionFlag `help:"Show version information"`

	// Commands
	Analyze AnalyzeCmd `cmd:"" default:"withargs" help:"Print the food web analysis (default)"`
	Render  RenderCmd  `cmd:"" help:"Render the food web as an SVG image"`
	Export  ExportCmd  `cmd:"" help:"Write a dataset as YAML or JSON"`
	Save    SaveCmd    `cmd:"" help:"Store a snapshot of a dataset and its analysis"`
	List    ListCmd    `cmd:"" help:"List stored snapshots"`
	Show    ShowCmd    `cmd:"" help:"Print a stored snapshot"`
	Delete  DeleteCmd  `cmd:"" help:"Delete a stored snapshot"`
	Watch   WatchCmd   `cmd:"" help:"Re-analyse dataset files on change"`
	MCP     MCPCmd     `cmd:"" help:"Start MCP server (stdio transport)"`
}

// NewCLI creates a new CLI instance bound to the process streams.
func NewCLI() *CLI {
	return &CLI{
		Globals: Globals{
			Stdin:  os.Stdin,
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		},
	}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("foodweb"),
		kong.Description("Directed food web analysis and rendering"),
		kong.UsageOnError(),
		kong.Writers(c.Stdout, c.Stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
			"store":   DefaultStorePath,
		},
	)
	if err != nil {
		return fmt.Errorf("building CLI: %w", err)
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	c.Logger = logging.New(c.LogLevel, c.LogFormat, c.Stderr)
	return kongCtx.Run(&c.Globals)
}
