package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/foodweb-go/internal/foodweb"
	"github.com/Benny93/foodweb-go/internal/loader"
	"github.com/Benny93/foodweb-go/internal/logging"
)

const pondYAML = `name: pond
producers: [Algae]
primary_consumers: [Tadpole, Snail]
secondary_consumers: [Dragonfly]
tertiary_consumers: [Heron]
edges:
  - {prey: Algae, predator: Tadpole}
  - {prey: Algae, predator: Snail}
  - {prey: Tadpole, predator: Dragonfly}
  - {prey: Dragonfly, predator: Heron}
  - {prey: Snail, predator: Heron}
`

// execute runs the CLI with args and captured streams.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cli := &CLI{
		Globals: Globals{
			Stdin:  strings.NewReader(stdin),
			Stdout: &stdout,
			Stderr: &stderr,
		},
	}
	err := cli.Execute(args)
	return stdout.String(), err
}

func writeDataset(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testGlobals(out *bytes.Buffer) *Globals {
	return &Globals{
		NoColor: true,
		Stdout:  out,
		Stderr:  &bytes.Buffer{},
		Logger:  logging.Discard(),
	}
}

func TestAnalyzeCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("DefaultCommand", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, "", "--no-color")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(out, "\n"+strings.Repeat("=", 50)+"\nFOOD WEB ANALYSIS\n"))
		assert.Contains(t, out, "Number of nodes: 8\nNumber of edges: 10\nGraph density: 0.179\n")
		assert.Contains(t, out, "Is strongly connected: false\nIs weakly connected: true\n")
		assert.Contains(t, out, "Level 1: Rabbit, Deer, Frog\n")
		assert.True(t, strings.HasSuffix(out, "Base organisms (no incoming edges):\nGrass, Frog\n"))
	})

	t.Run("ExplicitMatchesDefault", func(t *testing.T) {
		t.Parallel()
		implicit, err := execute(t, "", "--no-color")
		require.NoError(t, err)
		explicit, err := execute(t, "", "analyze", "--no-color")
		require.NoError(t, err)

		assert.Equal(t, implicit, explicit)
	})

	t.Run("DatasetFile", func(t *testing.T) {
		t.Parallel()
		path := writeDataset(t, "pond.yaml", pondYAML)

		out, err := execute(t, "", "analyze", "--no-color", "--dataset", path)
		require.NoError(t, err)

		assert.Contains(t, out, "Number of nodes: 5")
		assert.Contains(t, out, "Number of edges: 5")
		assert.Contains(t, out, "Top predators (no outgoing edges):\nHeron\n")
		assert.Contains(t, out, "Base organisms (no incoming edges):\nAlgae\n")
	})

	t.Run("WithChains", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, "", "--no-color", "--chains")
		require.NoError(t, err)

		assert.Contains(t, out, "Base organisms (no incoming edges):\nGrass, Frog\n\nFood chains (6):\n")
		assert.Contains(t, out, "4. Grass -> Deer -> Tiger -> Lion\n")
	})

	t.Run("WithChainsLimited", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, "", "analyze", "--no-color", "--chains", "--max-links", "1")
		require.NoError(t, err)

		assert.True(t, strings.HasSuffix(out, "Food chains (3):\n1. Grass -> Rabbit\n2. Grass -> Deer\n3. Frog -> Snake\n"))
	})

	t.Run("WithSVG", func(t *testing.T) {
		t.Parallel()
		svgPath := filepath.Join(t.TempDir(), "out", "web.svg")

		out, err := execute(t, "", "--no-color", "--svg", svgPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Rendered "+svgPath)

		content, err := os.ReadFile(svgPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), "<svg")
		assert.Contains(t, string(content), "Directed Ecosystem Food Web (Trophic Levels)")
	})

	t.Run("UnknownOrganism", func(t *testing.T) {
		t.Parallel()
		path := writeDataset(t, "bad.json", `{
			"producers": ["Grass"],
			"primary_consumers": ["Rabbit"],
			"edges": [{"prey": "Grass", "predator": "Wolf"}]
		}`)

		_, err := execute(t, "", "analyze", "-d", path)
		assert.ErrorIs(t, err, foodweb.ErrUnknownOrganism)
		assert.Contains(t, err.Error(), "Wolf")
	})

	t.Run("MissingDataset", func(t *testing.T) {
		t.Parallel()
		_, err := execute(t, "", "analyze", "-d", filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("InvalidLogLevel", func(t *testing.T) {
		t.Parallel()
		_, err := execute(t, "", "--log-level", "loud")
		assert.Error(t, err)
	})
}

func TestRenderCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("CustomOptions", func(t *testing.T) {
		t.Parallel()
		outPath := filepath.Join(t.TempDir(), "custom.svg")

		out, err := execute(t, "", "render", "--no-color", "-o", outPath,
			"--seed", "7", "--iterations", "10", "--width", "800", "--height", "600", "--title", "Savanna")
		require.NoError(t, err)
		assert.Contains(t, out, "(8 organisms, 10 edges)")

		content, err := os.ReadFile(outPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), `width="800"`)
		assert.Contains(t, string(content), "Savanna")
	})

	t.Run("Deterministic", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		a := filepath.Join(dir, "a.svg")
		b := filepath.Join(dir, "b.svg")

		_, err := execute(t, "", "render", "-o", a)
		require.NoError(t, err)
		_, err = execute(t, "", "render", "-o", b)
		require.NoError(t, err)

		contentA, err := os.ReadFile(a)
		require.NoError(t, err)
		contentB, err := os.ReadFile(b)
		require.NoError(t, err)
		assert.Equal(t, string(contentA), string(contentB))
	})

	t.Run("InvalidSize", func(t *testing.T) {
		t.Parallel()
		_, err := execute(t, "", "render", "-o", filepath.Join(t.TempDir(), "x.svg"), "--width", "0")
		assert.Error(t, err)
	})
}

func TestExportCmd_Run(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"yaml", "json"} {
		t.Run(strings.ToUpper(format), func(t *testing.T) {
			t.Parallel()
			out, err := execute(t, "", "export", "--format", format)
			require.NoError(t, err)

			f, err := loader.ParseFormat(format)
			require.NoError(t, err)
			ds, err := loader.Decode(strings.NewReader(out), f)
			require.NoError(t, err)

			if diff := cmp.Diff(foodweb.Default(), ds); diff != "" {
				t.Errorf("exported dataset mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("ToFile", func(t *testing.T) {
		t.Parallel()
		src := writeDataset(t, "pond.yaml", pondYAML)
		dst := filepath.Join(t.TempDir(), "pond.json")

		out, err := execute(t, "", "export", "--no-color", "-d", src, "-o", dst)
		require.NoError(t, err)
		assert.Contains(t, out, "Exported pond to "+dst)

		ds, err := loader.Load(dst)
		require.NoError(t, err)
		assert.Equal(t, "pond", ds.Name)
		assert.Len(t, ds.Edges, 5)
	})

	t.Run("FormatOverridesExtension", func(t *testing.T) {
		t.Parallel()
		dst := filepath.Join(t.TempDir(), "web.yaml")

		_, err := execute(t, "", "export", "-f", "json", "-o", dst)
		require.NoError(t, err)

		content, err := os.ReadFile(dst)
		require.NoError(t, err)
		ds, err := loader.Decode(bytes.NewReader(content), loader.FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, foodweb.Default(), ds)
	})

	t.Run("FormatWithUnknownExtension", func(t *testing.T) {
		t.Parallel()
		dst := filepath.Join(t.TempDir(), "web.txt")

		_, err := execute(t, "", "export", "--format", "yaml", "-o", dst)
		require.NoError(t, err)

		content, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(content), "name: ecosystem\n"))
	})

	t.Run("UnknownExtensionWithoutFormat", func(t *testing.T) {
		t.Parallel()
		_, err := execute(t, "", "export", "-o", filepath.Join(t.TempDir(), "web.txt"))
		assert.ErrorIs(t, err, loader.ErrUnsupportedFormat)
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		t.Parallel()
		_, err := execute(t, "", "export", "-f", "xml")
		assert.ErrorIs(t, err, loader.ErrUnsupportedFormat)
	})
}

func TestSnapshotCommands(t *testing.T) {
	t.Parallel()

	store := filepath.Join(t.TempDir(), "badger")
	pond := writeDataset(t, "pond.yaml", pondYAML)

	t.Run("ListMissingStore", func(t *testing.T) {
		out, err := execute(t, "", "list", "--store", store)
		require.NoError(t, err)
		assert.Equal(t, "No snapshots stored\n", out)
	})

	t.Run("ShowMissingStore", func(t *testing.T) {
		_, err := execute(t, "", "show", "eco", "--store", store)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no snapshot store")
	})

	t.Run("Save", func(t *testing.T) {
		out, err := execute(t, "", "save", "eco", "--no-color", "--store", store)
		require.NoError(t, err)
		assert.Contains(t, out, `Saved snapshot "eco" (8 organisms, 10 edges)`)

		out, err = execute(t, "", "save", "--no-color", "--store", store, "-d", pond)
		require.NoError(t, err)
		assert.Contains(t, out, `Saved snapshot "pond" (5 organisms, 5 edges)`)
	})

	t.Run("List", func(t *testing.T) {
		out, err := execute(t, "", "list", "--store", store)
		require.NoError(t, err)

		assert.Contains(t, out, "Stored snapshots:")
		eco := strings.Index(out, "  eco\n")
		pondIdx := strings.Index(out, "  pond\n")
		require.NotEqual(t, -1, eco)
		require.NotEqual(t, -1, pondIdx)
		assert.Less(t, eco, pondIdx, "snapshots are listed by name")
		assert.Contains(t, out, "Organisms: 5")
	})

	t.Run("ShowReport", func(t *testing.T) {
		out, err := execute(t, "", "show", "eco", "--no-color", "--store", store)
		require.NoError(t, err)

		assert.Contains(t, out, "FOOD WEB ANALYSIS")
		assert.Contains(t, out, "Graph density: 0.179")
		assert.Contains(t, out, "\nSaved: ")
	})

	t.Run("ShowDataset", func(t *testing.T) {
		out, err := execute(t, "", "show", "pond", "--format", "json", "--store", store)
		require.NoError(t, err)

		ds, err := loader.Decode(strings.NewReader(out), loader.FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, []string{"Tadpole", "Snail"}, ds.PrimaryConsumers)
	})

	t.Run("ShowUnknown", func(t *testing.T) {
		_, err := execute(t, "", "show", "reef", "--store", store)
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		out, err := execute(t, "", "delete", "eco", "--no-color", "--store", store)
		require.NoError(t, err)
		assert.Contains(t, out, `Deleted snapshot "eco"`)

		_, err = execute(t, "", "show", "eco", "--store", store)
		assert.ErrorIs(t, err, ErrSnapshotNotFound)

		_, err = execute(t, "", "delete", "eco", "--store", store)
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
	})
}

func TestMCPCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("ServesOverStdio", func(t *testing.T) {
		t.Parallel()
		stdin := strings.Join([]string{
			`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
			`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
			`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"foodweb_roles","arguments":{}}}`,
		}, "\n") + "\n"

		out, err := execute(t, stdin, "mcp")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], `"name":"foodweb-go"`)
		assert.Contains(t, lines[1], `- Lion`)
	})

	t.Run("MissingStore", func(t *testing.T) {
		t.Parallel()
		_, err := execute(t, "", "mcp", "--store", filepath.Join(t.TempDir(), "absent"))
		assert.Error(t, err)
	})
}

func TestWatchCmd_OnChange(t *testing.T) {
	t.Parallel()

	web := foodweb.MustNew(foodweb.Default())

	t.Run("PrintsReport", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		handler := (&WatchCmd{}).onChange(testGlobals(&out))

		require.NoError(t, handler("web.yaml", web))
		assert.Contains(t, out.String(), "# web.yaml (")
		assert.Contains(t, out.String(), "Number of nodes: 8")
	})

	t.Run("RendersSVG", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		svgPath := filepath.Join(t.TempDir(), "live.svg")
		handler := (&WatchCmd{SVG: svgPath}).onChange(testGlobals(&out))

		require.NoError(t, handler("web.yaml", web))
		assert.FileExists(t, svgPath)
		assert.Contains(t, out.String(), "Rendered "+svgPath)
	})

	t.Run("ReportWriteFailure", func(t *testing.T) {
		t.Parallel()
		g := testGlobals(&bytes.Buffer{})
		g.Stdout = failingWriter{}
		handler := (&WatchCmd{}).onChange(g)

		assert.Error(t, handler("web.yaml", web))
	})
}

func TestWatchCmd_MissingPath(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "", "watch", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch error")
}

func TestWatchCmd_SVGNeedsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := execute(t, "", "watch", dir, "--svg", filepath.Join(dir, "web.svg"))
	assert.ErrorIs(t, err, ErrSVGNeedsFile)
	assert.NoFileExists(t, filepath.Join(dir, "web.svg"))
}

func TestSignalContext(t *testing.T) {
	t.Parallel()

	ctx, stop := signalContext(func() { t.Error("no signal was sent") })
	require.NoError(t, ctx.Err())

	stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.NotPanics(t, stop, "stop is idempotent")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }
