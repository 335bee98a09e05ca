package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/portlayout/pkg/errors"
	"github.com/matzehuels/portlayout/pkg/graph"
)

const boardYAML = `vertices:
  - id: cpu
    labels: [CPU]
    ports:
      - id: cpu.d0
      - id: cpu.d1
  - id: ram
    labels: [RAM]
    ports:
      - id: ram.d0
      - id: ram.d1
edges:
  - id: bus0
    ports: [cpu.d0, ram.d0]
  - id: bus1
    ports: [cpu.d1, ram.d1]
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// execute runs the CLI with an isolated cache and returns its command output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv(redisEnv, "")

	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCacheDirHonorsXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	dir, err := cacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, "portlayout"), dir)
}

func TestCacheDirDefault(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	dir, err := cacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cache", "portlayout"), dir)
}

func TestLayoutPath(t *testing.T) {
	assert.Equal(t, filepath.Join("dir", "board.layout.json"), layoutPath(filepath.Join("dir", "board.yaml")))
	assert.Equal(t, "board.layout.json", layoutPath("board.json"))
}

func TestRenderPath(t *testing.T) {
	tests := []struct {
		input, format, want string
	}{
		{"board.layout.json", "svg", "board.svg"},
		{"board.layout.json", "dot", "board.dot"},
		{"board.layout.json", "json", "board.drawing.json"},
		{"board.layout.yaml", "yaml", "board.drawing.yaml"},
		{"drawing.json", "svg", "drawing.svg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, renderPath(tt.input, tt.format), "%s as %s", tt.input, tt.format)
	}
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), "{}")
	writeFile(t, filepath.Join(dir, "a.layout.json"), "{}")
	writeFile(t, filepath.Join(dir, "nested", "b.yaml"), "{}")
	writeFile(t, filepath.Join(dir, "nested", "deeper", "c.json"), "{}")

	got, err := expandInputs([]string{filepath.Join(dir, "**", "*.json")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "nested", "deeper", "c.json"),
	}, got)

	got, err = expandInputs([]string{
		filepath.Join(dir, "nested", "*.yaml"),
		filepath.Join(dir, "nested", "b.yaml"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "nested", "b.yaml")}, got)

	_, err = expandInputs([]string{filepath.Join(dir, "*.toml")})
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))

	got, err = expandInputs([]string{filepath.Join(dir, "missing.json")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "missing.json")}, got)
}

func TestLayoutRenderInspect(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "board.yaml")
	writeFile(t, input, boardYAML)

	_, err := execute(t, "layout", "--direction", "bfs", input)
	require.NoError(t, err)

	layoutFile := filepath.Join(dir, "board.layout.json")
	d, err := graph.ReadDrawingFile(layoutFile)
	require.NoError(t, err)
	assert.Len(t, d.Vertices, 2)
	assert.Len(t, d.Ranks, 2)
	assert.Equal(t, 0, d.Crossings)

	_, err = execute(t, "render", layoutFile)
	require.NoError(t, err)
	svg, err := os.ReadFile(filepath.Join(dir, "board.svg"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(svg), "<svg"))

	_, err = execute(t, "render", "-f", "dot", "-o", filepath.Join(dir, "out.dot"), layoutFile)
	require.NoError(t, err)
	dot, err := os.ReadFile(filepath.Join(dir, "out.dot"))
	require.NoError(t, err)
	assert.Contains(t, string(dot), `"v:cpu"`)

	out, err := execute(t, "inspect", "--plain", layoutFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Rank 0")
	assert.Contains(t, out, "Rank 1")
	assert.Contains(t, out, "cpu.d0")
}

// captureStdout returns what fn prints to the process stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	out := make(chan string)
	go func() {
		b, _ := io.ReadAll(r)
		out <- string(b)
	}()
	fn()
	w.Close()
	return <-out
}

func TestLayoutReportsCacheHit(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "board.yaml")
	writeFile(t, input, boardYAML)
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv(redisEnv, "")

	run := func() string {
		return captureStdout(t, func() {
			root := New(io.Discard, LogInfo).RootCommand()
			root.SetArgs([]string{"layout", "--direction", "bfs", input})
			require.NoError(t, root.ExecuteContext(context.Background()))
		})
	}

	first := run()
	assert.Contains(t, first, "Laid out "+input)
	assert.NotContains(t, first, "Reused cached layout")

	second := run()
	assert.Contains(t, second, "Laid out "+input)
	assert.Contains(t, second, "Reused cached layout")
}

func TestLayoutUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "board.yaml")
	writeFile(t, input, boardYAML)
	config := filepath.Join(dir, "layout.toml")
	writeFile(t, config, "direction = \"bfs\"\n\n[drawing]\nvertex_height = 50\n")

	_, err := execute(t, "layout", "--config", config, "-o", filepath.Join(dir, "out.json"), input)
	require.NoError(t, err)

	d, err := graph.ReadDrawingFile(filepath.Join(dir, "out.json"))
	require.NoError(t, err)
	v, ok := d.Vertex("cpu")
	require.True(t, ok)
	assert.Equal(t, 50.0, v.Rect.H)
}

func TestLayoutErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `{"vertices": [{"id": "a"}]}`)
	writeFile(t, filepath.Join(dir, "b.json"), `{"vertices": [{"id": "b"}]}`)

	_, err := execute(t, "layout", "-o", filepath.Join(dir, "x.json"), filepath.Join(dir, "*.json"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)

	_, err = execute(t, "layout", "--crossing", "nope", filepath.Join(dir, "a.json"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "got %v", err)

	_, err = execute(t, "layout", filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)
}

func TestCachePath(t *testing.T) {
	out, err := execute(t, "cache", "path")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "portlayout"))
}
