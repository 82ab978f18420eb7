package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "github.com/matzehuels/boardviz/pkg/errors"
)

func quietStatus(t *testing.T) {
	t.Helper()
	old := statusOut
	statusOut = io.Discard
	t.Cleanup(func() { statusOut = old })
}

func testCLI() (*CLI, context.Context) {
	c := New(io.Discard, LogInfo)
	c.Logger = quietLogger()
	return c, withLogger(context.Background(), c.Logger)
}

func writeConnections(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "connections.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderDOT(t *testing.T) {
	c, ctx := testCLI()
	path := writeConnections(t, "05 06\n05 99\nnonsense\n12,13\n")

	var out bytes.Buffer
	err := c.render(ctx, nil, &out, renderOpts{connections: path, format: formatDOT})
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	dot := out.String()
	if !strings.Contains(dot, `"05" -- "06"`) || !strings.Contains(dot, `"12" -- "13"`) {
		t.Errorf("DOT missing connections:\n%s", dot)
	}
	if strings.Contains(dot, `"99"`) {
		t.Error("DOT contains an unknown contact")
	}
}

func TestRenderStdin(t *testing.T) {
	c, ctx := testCLI()
	var out bytes.Buffer
	err := c.render(ctx, strings.NewReader("01 02\n"), &out, renderOpts{connections: "-", format: formatJSON})
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if !strings.Contains(out.String(), `"first": "01"`) {
		t.Errorf("JSON output missing connection:\n%s", out.String())
	}
}

func TestRenderSVGToFile(t *testing.T) {
	quietStatus(t)
	c, ctx := testCLI()
	output := filepath.Join(t.TempDir(), "board.svg")

	err := c.render(ctx, nil, io.Discard, renderOpts{
		connections: writeConnections(t, "05 06\n"),
		output:      output,
		format:      formatSVG,
	})
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	svg := string(data)
	if !strings.Contains(svg, "<svg") {
		t.Fatal("output is not SVG")
	}
	if got := strings.Count(svg, `class="node"`); got != 24 {
		t.Errorf("node count = %d, want 24", got)
	}
	if got := strings.Count(svg, `class="edge"`); got != 1 {
		t.Errorf("edge count = %d, want 1", got)
	}
}

func TestRenderMissingConnections(t *testing.T) {
	c, ctx := testCLI()
	err := c.render(ctx, nil, io.Discard, renderOpts{
		connections: filepath.Join(t.TempDir(), "missing.txt"),
		format:      formatDOT,
	})
	if !errs.Is(err, errs.ErrCodeIO) {
		t.Errorf("render() error = %v, want IO_FAILED", err)
	}
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c, ctx := testCLI()
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestRootCommandRenderFormat(t *testing.T) {
	_, err := executeRoot(t, "render", "--format", "png")
	if !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("render --format png error = %v, want INVALID_FORMAT", err)
	}
}

func TestRootCommandContacts(t *testing.T) {
	out, err := executeRoot(t, "contacts")
	if err != nil {
		t.Fatalf("contacts error = %v", err)
	}
	for _, want := range []string{"Contact", "05", "(0, 4)", "8×8 grid"} {
		if !strings.Contains(out, want) {
			t.Errorf("contacts output missing %q:\n%s", want, out)
		}
	}
}

func TestRootCommandConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "board.yaml")
	if err := os.WriteFile(cfg, []byte("grid_size: 2\ncoord_size: 1\ncontacts:\n  A: [0, 0]\n  B: [1, 1]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := executeRoot(t, "--config", cfg, "render", "--format", "dot")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	if !strings.Contains(out, `"A" [label="A", pos="0,0!"]`) || !strings.Contains(out, `"B" [label="B", pos="0.5,0.5!"]`) {
		t.Errorf("DOT does not reflect the config:\n%s", out)
	}
}

func TestRootCommandCachePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "renders")
	cfgPath := filepath.Join(t.TempDir(), "board.toml")
	if err := os.WriteFile(cfgPath, []byte("[cache]\nkind = \"file\"\ndir = \""+filepath.ToSlash(dir)+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := executeRoot(t, "cache", "path", "-c", cfgPath)
	if err != nil {
		t.Fatalf("cache path error = %v", err)
	}
	if strings.TrimSpace(out) != filepath.ToSlash(dir) {
		t.Errorf("cache path = %q, want %q", out, dir)
	}
}
