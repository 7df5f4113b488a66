package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/gocontract/internal/annotate"
	"github.com/Aman-CERP/gocontract/internal/config"
	"github.com/Aman-CERP/gocontract/internal/output"
)

// isolate points the user config at an empty directory and clears
// CONTRACTGEN_* overrides.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("CONTRACTGEN_CONFIG_DIR", t.TempDir())
	for _, name := range []string{
		"CONTRACTGEN_IMPORT_PATH", "CONTRACTGEN_PACKAGE_NAME", "CONTRACTGEN_TYPECHECK",
		"CONTRACTGEN_PRUNE", "CONTRACTGEN_TESTS", "CONTRACTGEN_WORKERS",
		"CONTRACTGEN_TAGS", "CONTRACTGEN_DEBOUNCE", "CONTRACTGEN_LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
}

// execute runs the CLI with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	// Given: the root command
	cmd := NewRootCmd()

	// Then: every subcommand is registered
	names := make(map[string]bool)
	for _, sc := range cmd.Commands() {
		names[sc.Name()] = true
	}
	for _, want := range []string{"generate", "check", "strip", "list", "watch", "config", "doctor", "logs", "version"} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"debug", "config-dir", "profile-cpu", "profile-mem", "profile-trace"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	// The root command doubles as generate.
	for _, name := range []string{"dry-run", "no-typecheck", "no-prune"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestRootCmd_VersionFlag(t *testing.T) {
	isolate(t)
	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "contractgen version ")
}

func TestRootCmd_ConfigErrorFails(t *testing.T) {
	// Given: a module whose project config has an unknown key
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ProjectFileName), []byte("generate:\n  typechek: true\n"), 0o644))
	t.Chdir(dir)

	// When: running generate
	_, _, err := execute(t, "generate")

	// Then: the config error surfaces before any loading
	require.Error(t, err)
	assert.Contains(t, err.Error(), "typechek")
}

func TestGeneratorOptions_FromConfig(t *testing.T) {
	// Given: a config with every generate setting changed
	cfg := config.NewConfig()
	cfg.Runtime.ImportPath = "example.com/rt"
	cfg.Runtime.PackageName = "rt"
	cfg.Generate.Typecheck = false
	cfg.Generate.Prune = false
	cfg.Generate.Workers = 3
	cfg.Generate.BuildTags = []string{"integration"}
	cfg.Generate.IncludeTests = true
	cfg.Generate.CacheSize = 10

	// When: mapping to generator options
	opts := generatorOptions(cfg, annotate.ModeStrip)

	// Then: every setting carries over
	assert.Equal(t, "example.com/rt", opts.Annotate.ImportPath)
	assert.Equal(t, "rt", opts.Annotate.PackageName)
	assert.Equal(t, annotate.ModeStrip, opts.Annotate.Mode)
	assert.False(t, opts.Annotate.Prune)
	assert.False(t, opts.Typecheck)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, []string{"integration"}, opts.BuildTags)
	assert.True(t, opts.Tests)
	assert.Equal(t, 10, opts.CacheSize)

	assert.Equal(t, output.StateWritten, stateFor(opts))
	opts.DryRun = true
	assert.Equal(t, output.StateWouldChange, stateFor(opts))
}

func TestDoctorCmd_OutsideModuleFails(t *testing.T) {
	// Given: a directory with a malformed go.mod
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module\n"), 0o644))
	t.Chdir(dir)

	// When: running doctor
	stdout, _, err := execute(t, "doctor")

	// Then: the module check fails and so does the command
	require.Error(t, err)
	assert.Contains(t, stdout, "[FAIL] go_module")
	assert.Contains(t, stdout, "Status: FAILED")
}

func TestPatterns_DefaultsToCurrentPackage(t *testing.T) {
	assert.Equal(t, []string{"."}, patterns(nil))
	assert.Equal(t, []string{"./..."}, patterns([]string{"./..."}))
}

func TestPackagePatterns(t *testing.T) {
	// Given: a tree with Go files at the root and in one subdirectory
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "deep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "deep", "b.go"), []byte("package deep\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	// When: turning changed directories into patterns
	got := packagePatterns(root, []string{
		root,
		filepath.Join(root, "sub", "deep"),
		filepath.Join(root, "empty"),
		filepath.Join(root, "gone"),
	})

	// Then: only directories still holding Go files remain
	assert.Equal(t, []string{".", "./sub/deep"}, got)
}
