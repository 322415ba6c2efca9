package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns what it wrote.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "cardforge", rootCmd.Use)

	expected := []string{
		"new", "build", "serve", "export", "publish", "templates",
		"themes", "normalize", "list", "config", "mcp", "version",
	}
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, names[name], "missing subcommand %q", name)
	}

	for _, name := range []string{"config", "verbose"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "missing persistent flag %q", name)
	}
}

func TestBuildFlags(t *testing.T) {
	for _, name := range []string{"drafts", "destination", "workers", "inline-images", "no-cache"} {
		assert.NotNil(t, buildCmd.Flags().Lookup(name), "missing flag %q", name)
	}

	flag := buildCmd.Flags().ShorthandLookup("d")
	require.NotNil(t, flag)
	assert.Equal(t, "destination", flag.Name)
}

func TestServeFlags(t *testing.T) {
	for _, name := range []string{"port", "bind", "no-live-reload", "drafts", "debounce"} {
		assert.NotNil(t, serveCmd.Flags().Lookup(name), "missing flag %q", name)
	}
	assert.Equal(t, "1414", serveCmd.Flags().Lookup("port").DefValue)
	assert.Equal(t, "localhost", serveCmd.Flags().Lookup("bind").DefValue)
}

func TestExportFlags(t *testing.T) {
	for _, name := range []string{"preset", "page", "html", "drafts", "output", "rasterizer"} {
		assert.NotNil(t, exportCmd.Flags().Lookup(name), "missing flag %q", name)
	}
	flag := exportCmd.Flags().ShorthandLookup("o")
	require.NotNil(t, flag)
	assert.Equal(t, "output", flag.Name)
}

func TestNewSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range newCmd.Commands() {
		names[cmd.Name()] = true
		assert.NotNil(t, cmd.Args, "new %s should validate its arguments", cmd.Name())
	}
	assert.True(t, names["catalog"])
	assert.True(t, names["page"])
}

func TestVersionOutput(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cardforge dev")
	assert.Contains(t, out, "commit:")
}

func TestTemplatesCommand(t *testing.T) {
	out, err := execute(t, "", "templates", "--category", "card", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "greeting-card")
	assert.Contains(t, out, "condolence-card")
	assert.NotContains(t, out, "dark-tech")

	_, err = execute(t, "", "templates", "--category", "posters")
	assert.Error(t, err)
}

func TestNormalizeStdin(t *testing.T) {
	out, err := execute(t, "sub_title: Pump\nbody: Quiet\n", "normalize", "--format", "yaml", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"subtitle": "Pump"`)
	assert.Contains(t, out, `"body": "Quiet"`)

	_, err = execute(t, "title: x\n", "normalize", "--format", "yaml", "-o", "xml")
	assert.Error(t, err)
}

func TestCatalogLifecycle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spring")
	configPath := filepath.Join(dir, "cardforge.yaml")

	out, err := execute(t, "", "new", "catalog", dir, "--title", "Spring Catalog", "--seed=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog created")
	require.FileExists(t, configPath)

	out, err = execute(t, "", "--config", configPath, "new", "page", "Gate Valve",
		"--template", "tech-data-sheet", "--draft", "--order", "2", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "pages", "gate-valve.yaml"))

	out, err = execute(t, "", "--config", configPath, "list", "drafts")
	require.NoError(t, err)
	assert.Contains(t, out, "gate-valve")
	assert.NotContains(t, out, "welcome")

	out, err = execute(t, "", "--config", configPath, "list", "pages")
	require.NoError(t, err)
	assert.Contains(t, out, "welcome")
	assert.Contains(t, out, "gate-valve")

	out, err = execute(t, "", "--config", configPath, "build", "--drafts=false", "--destination", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Build complete: 1 pages")
	assert.FileExists(t, filepath.Join(dir, "public", "welcome.html"))
	_, statErr := os.Stat(filepath.Join(dir, "public", "gate-valve.html"))
	assert.True(t, os.IsNotExist(statErr), "drafts are not built by default")

	out, err = execute(t, "", "--config", configPath, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "title: Spring Catalog")
}
