package generator

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/gocontract/internal/annotate"
	cerrors "github.com/Aman-CERP/gocontract/internal/errors"
)

const runtimeSrc = `package contract

func Require(ok bool, method, predicate string) {
	if !ok {
		panic(method + ": " + predicate)
	}
}
`

const counterSrc = `package counter

type Counter struct{ value int }

func (c *Counter) Valid() bool { return c.value >= 1 && c.value <= 20 }

//contract:require Valid
func (c *Counter) Increment() {
	c.value++
}
`

const guard = `contract.Require(c.Valid(), "(*Counter).Increment", "Valid")`

// fixture writes a throwaway module whose own contract package stands in for
// the runtime, so rewritten files keep compiling without external modules.
func fixture(t *testing.T, files map[string]string) (string, Options) {
	t.Helper()
	if testing.Short() {
		t.Skip("runs the go command")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not available")
	}

	dir := t.TempDir()
	all := map[string]string{
		"go.mod":               "module example.com/demo\n\ngo 1.21\n",
		"contract/contract.go": runtimeSrc,
	}
	for k, v := range files {
		all[k] = v
	}
	for name, content := range all {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	opts := DefaultOptions()
	opts.Dir = dir
	opts.LockDir = t.TempDir()
	opts.Workers = 2
	opts.Annotate.ImportPath = "example.com/demo/contract"
	return dir, opts
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestGenerator_Run_WritesGuards(t *testing.T) {
	// Given: a package with an unguarded annotated method
	dir, opts := fixture(t, map[string]string{"counter/counter.go": counterSrc})
	g := New(opts)

	// When: generating
	report, err := g.Run(context.Background(), "./...")

	// Then: the guard and the runtime import are written
	require.NoError(t, err)
	out := read(t, filepath.Join(dir, "counter", "counter.go"))
	assert.Contains(t, out, guard)
	assert.Contains(t, out, `"example.com/demo/contract"`)
	assert.Equal(t, 1, report.FilesChanged)
	assert.Equal(t, 1, report.FilesWritten)
	assert.Equal(t, 1, report.Inserted)
	assert.Positive(t, report.BytesWritten)
	assert.Equal(t, 2, report.Packages)
	require.Len(t, report.Files, 1)
	assert.Equal(t, "example.com/demo/counter", report.Files[0].Package)
}

func TestGenerator_Run_Idempotent(t *testing.T) {
	dir, opts := fixture(t, map[string]string{"counter/counter.go": counterSrc})
	g := New(opts)
	_, err := g.Run(context.Background(), "./...")
	require.NoError(t, err)
	first := read(t, filepath.Join(dir, "counter", "counter.go"))

	// Same generator: the file is known to be in sync.
	report, err := g.Run(context.Background(), "./...")
	require.NoError(t, err)
	assert.Equal(t, 0, report.FilesChanged)
	assert.Equal(t, report.FilesScanned, report.FilesCached)

	// Fresh generator: parsed again, still nothing to do.
	report, err = New(opts).Run(context.Background(), "./...")
	require.NoError(t, err)
	assert.Equal(t, 0, report.FilesChanged)
	assert.Equal(t, 0, report.FilesCached)
	assert.Equal(t, first, read(t, filepath.Join(dir, "counter", "counter.go")))
}

func TestGenerator_Run_UpdatesGuardAfterPredicateRename(t *testing.T) {
	// Given: a generated guard whose predicate was then renamed, so the
	// package no longer compiles
	dir, opts := fixture(t, map[string]string{"counter/counter.go": counterSrc})
	_, err := New(opts).Run(context.Background(), "./...")
	require.NoError(t, err)

	path := filepath.Join(dir, "counter", "counter.go")
	renamed := strings.ReplaceAll(read(t, path), "func (c *Counter) Valid()", "func (c *Counter) IsValid()")
	renamed = strings.ReplaceAll(renamed, "//contract:require Valid", "//contract:require IsValid")
	require.Contains(t, renamed, "c.Valid()")
	require.NoError(t, os.WriteFile(path, []byte(renamed), 0o644))

	// When: generating again with type checking on
	report, err := New(opts).Run(context.Background(), "./...")

	// Then: the stale guard is updated
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Updated)
	out := read(t, path)
	assert.Contains(t, out, `contract.Require(c.IsValid(), "(*Counter).Increment", "IsValid")`)
	assert.NotContains(t, out, "c.Valid()")
}

func TestGenerator_Run_GuardsCompileWhenRuntimeNameIsTaken(t *testing.T) {
	// Given: a parameter and a package variable in another file both named
	// like the runtime package
	src := "package counter\n\ntype Counter struct{ value int }\n\n" +
		"func (c *Counter) Valid() bool { return c.value >= 1 && c.value <= 20 }\n\n" +
		"//contract:require Valid\nfunc (c *Counter) Sign(contract string) string {\n\treturn contract\n}\n"
	dir, opts := fixture(t, map[string]string{
		"counter/counter.go": src,
		"counter/terms.go":   "package counter\n\nvar contract = \"terms\"\n\nvar _ = contract\n",
	})

	// When: generating
	_, err := New(opts).Run(context.Background(), "./...")

	// Then: the runtime is imported under a free name and the module builds
	require.NoError(t, err)
	out := read(t, filepath.Join(dir, "counter", "counter.go"))
	assert.Contains(t, out, `gocontract.Require(c.Valid(), "(*Counter).Sign", "Valid")`)
	build := exec.Command("go", "build", "./...")
	build.Dir = dir
	output, err := build.CombinedOutput()
	assert.NoError(t, err, "go build:\n%s", output)
}

func TestGenerator_Run_MissingPredicateFailsAtGenerateTime(t *testing.T) {
	// Given: a directive naming a predicate that does not exist
	src := "package counter\n\ntype Counter struct{ value int }\n\n" +
		"//contract:require IsValid\nfunc (c *Counter) Increment() {\n\tc.value++\n}\n"
	dir, opts := fixture(t, map[string]string{"counter/counter.go": src})

	// When: generating
	report, err := New(opts).Run(context.Background(), "./...")

	// Then: the run fails with a positioned diagnostic and the file is untouched
	require.Error(t, err)
	require.NotNil(t, report)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, cerrors.ErrCodePredicateNotFound, cerrors.GetCode(report.Diagnostics[0]))
	assert.Contains(t, err.Error(), "counter.go:5:1")
	assert.Equal(t, src, read(t, filepath.Join(dir, "counter", "counter.go")))
}

func TestGenerator_Run_WithoutTypecheckStillRewrites(t *testing.T) {
	src := "package counter\n\ntype Counter struct{ value int }\n\n" +
		"//contract:require IsValid\nfunc (c *Counter) Increment() {\n\tc.value++\n}\n"
	dir, opts := fixture(t, map[string]string{"counter/counter.go": src})
	opts.Typecheck = false

	_, err := New(opts).Run(context.Background(), "./...")

	require.NoError(t, err)
	assert.Contains(t, read(t, filepath.Join(dir, "counter", "counter.go")), "c.IsValid()")
}

func TestGenerator_Run_DirectiveErrorsReported(t *testing.T) {
	src := "package counter\n\n//contract:require Valid\nfunc Reset() {}\n"
	_, opts := fixture(t, map[string]string{"counter/counter.go": src})

	report, err := New(opts).Run(context.Background(), "./...")

	require.Error(t, err)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, cerrors.ErrCodeMisappliedDirective, cerrors.GetCode(report.Diagnostics[0]))
}

func TestGenerator_Run_CheckMode(t *testing.T) {
	// Given: an out-of-date file
	dir, opts := fixture(t, map[string]string{"counter/counter.go": counterSrc})
	opts.Check = true

	// When: checking
	report, err := New(opts).Run(context.Background(), "./...")

	// Then: it fails without writing
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeOutOfDate, cerrors.GetCode(err))
	assert.Equal(t, 1, report.FilesChanged)
	assert.Equal(t, 0, report.FilesWritten)
	assert.Equal(t, counterSrc, read(t, filepath.Join(dir, "counter", "counter.go")))

	// And: passes once generated
	opts.Check = false
	_, err = New(opts).Run(context.Background(), "./...")
	require.NoError(t, err)
	opts.Check = true
	_, err = New(opts).Run(context.Background(), "./...")
	assert.NoError(t, err)
}

func TestGenerator_Run_DryRun(t *testing.T) {
	dir, opts := fixture(t, map[string]string{"counter/counter.go": counterSrc})
	opts.DryRun = true

	report, err := New(opts).Run(context.Background(), "./...")

	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesChanged)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 0, report.FilesWritten)
	assert.Equal(t, counterSrc, read(t, filepath.Join(dir, "counter", "counter.go")))
}

func TestGenerator_Run_Strip(t *testing.T) {
	dir, opts := fixture(t, map[string]string{"counter/counter.go": counterSrc})
	_, err := New(opts).Run(context.Background(), "./...")
	require.NoError(t, err)

	opts.Annotate.Mode = annotate.ModeStrip
	report, err := New(opts).Run(context.Background(), "./...")

	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	out := read(t, filepath.Join(dir, "counter", "counter.go"))
	assert.NotContains(t, out, "Require(")
	assert.NotContains(t, out, "example.com/demo/contract")
	assert.Contains(t, out, "//contract:require Valid")
}

func TestGenerator_Run_SkipsGeneratedFiles(t *testing.T) {
	src := "// Code generated by hand; DO NOT EDIT.\n\n" + counterSrc
	dir, opts := fixture(t, map[string]string{"counter/counter.go": src})

	report, err := New(opts).Run(context.Background(), "./...")

	require.NoError(t, err)
	assert.Equal(t, 0, report.FilesChanged)
	assert.Equal(t, src, read(t, filepath.Join(dir, "counter", "counter.go")))
}

func TestGenerator_Run_IncludesTestFiles(t *testing.T) {
	testSrc := "package counter\n\ntype probe struct{ ok bool }\n\nfunc (p *probe) ready() bool { return p.ok }\n\n" +
		"//contract:require ready\nfunc (p *probe) fire() {}\n"
	dir, opts := fixture(t, map[string]string{
		"counter/counter.go":      counterSrc,
		"counter/counter_test.go": testSrc,
	})

	_, err := New(opts).Run(context.Background(), "./...")
	require.NoError(t, err)
	assert.Equal(t, testSrc, read(t, filepath.Join(dir, "counter", "counter_test.go")))

	opts.Tests = true
	_, err = New(opts).Run(context.Background(), "./...")
	require.NoError(t, err)
	assert.Contains(t, read(t, filepath.Join(dir, "counter", "counter_test.go")),
		`contract.Require(p.ready(), "(*probe).fire", "ready")`)
}

func TestGenerator_List(t *testing.T) {
	_, opts := fixture(t, map[string]string{"counter/counter.go": counterSrc})

	methods, err := New(opts).List(context.Background(), "./...")

	require.NoError(t, err)
	require.Len(t, methods, 1)
	m := methods[0]
	assert.Equal(t, "example.com/demo/counter", m.Package)
	assert.Equal(t, "(*Counter).Increment", m.Method)
	assert.Equal(t, "Valid", m.Predicate)
	assert.Equal(t, "c", m.Receiver)
	assert.Equal(t, 8, m.Line)
	assert.Equal(t, "func (c *Counter) Increment()", m.Signature)
	assert.False(t, m.Guarded)
	assert.False(t, m.InSync)
}

func TestGenerator_Run_BadPattern(t *testing.T) {
	_, opts := fixture(t, map[string]string{"counter/counter.go": counterSrc})

	report, err := New(opts).Run(context.Background(), "./nope")

	require.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, cerrors.ErrCodePackageLoad, cerrors.GetCode(err))
}

func TestOptions_WithDefaults(t *testing.T) {
	o := Options{}.WithDefaults()

	assert.Positive(t, o.Workers)
	assert.Equal(t, DefaultCacheSize, o.CacheSize)
	assert.Equal(t, DefaultLockDir(), o.LockDir)
	assert.Equal(t, annotate.DefaultImportPath, o.Annotate.ImportPath)
}
