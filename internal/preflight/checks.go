package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/modfile"

	"github.com/Aman-CERP/gocontract/internal/config"
	cerrors "github.com/Aman-CERP/gocontract/internal/errors"
	"github.com/Aman-CERP/gocontract/internal/generator"
)

var lookPathFunc = exec.LookPath

// Module is a parsed go.mod.
type Module struct {
	// Root is the directory holding go.mod.
	Root string
	// Path is the module path.
	Path string
	File *modfile.File
}

// Provides reports whether importPath is inside this module or one of its
// requirements, and which module supplies it.
func (m *Module) Provides(importPath string) (string, bool) {
	if within(importPath, m.Path) {
		return m.Path, true
	}
	for _, r := range m.File.Require {
		if within(importPath, r.Mod.Path) {
			return r.Mod.Path + " " + r.Mod.Version, true
		}
	}
	return "", false
}

func within(importPath, modulePath string) bool {
	return importPath == modulePath || strings.HasPrefix(importPath, modulePath+"/")
}

// CheckGoToolchain checks that the go command is available. Package loading
// runs it to list and type-check packages.
func (c *Checker) CheckGoToolchain(ctx context.Context) CheckResult {
	result := CheckResult{Name: "go_toolchain", Required: true}

	path, err := c.lookPath("go")
	if err != nil {
		result.Status = StatusFail
		result.Message = "go command not found on PATH"
		result.Details = "Install Go from https://go.dev/dl/ and make sure it is on PATH"
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, "env", "GOVERSION").Output()
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("found %s but 'go env' failed: %v", path, err)
		return result
	}

	result.Status = StatusPass
	result.Message = strings.TrimSpace(string(out))
	result.Details = path
	return result
}

// CheckModule finds and parses the go.mod governing dir.
func (c *Checker) CheckModule(dir string) (*Module, CheckResult) {
	result := CheckResult{Name: "go_module", Required: true}

	mod, err := LoadModule(dir)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		result.Details = "Run contractgen inside a Go module, or create one with 'go mod init'"
		return nil, result
	}

	result.Status = StatusPass
	result.Message = mod.Path
	result.Details = mod.Root
	return mod, result
}

// LoadModule walks up from dir to the nearest go.mod and parses it.
func LoadModule(dir string) (*Module, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for d := abs; ; {
		path := filepath.Join(d, "go.mod")
		data, err := os.ReadFile(path)
		if err == nil {
			f, err := modfile.Parse(path, data, nil)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			if f.Module == nil {
				return nil, fmt.Errorf("%s has no module directive", path)
			}
			return &Module{Root: d, Path: f.Module.Mod.Path, File: f}, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		parent := filepath.Dir(d)
		if parent == d {
			return nil, fmt.Errorf("no go.mod found in %s or any parent", abs)
		}
		d = parent
	}
}

// CheckConfig loads and validates the configuration for the module at root.
func (c *Checker) CheckConfig(root string) (*config.Config, CheckResult) {
	result := CheckResult{Name: "config", Required: true}

	cfg, err := config.LoadFrom(root, c.userConfigPath)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		var ge *cerrors.GenError
		if errors.As(err, &ge) {
			result.Details = ge.Suggestion
		}
		return nil, result
	}

	result.Status = StatusPass
	if path := config.ProjectConfigPath(root); path != "" {
		result.Message = path
	} else {
		result.Message = "defaults (no " + config.ProjectFileName + ")"
	}
	return cfg, result
}

// CheckRuntimeImport checks that the runtime package guards import can be
// resolved by the module. Without it rewritten files do not build.
func (c *Checker) CheckRuntimeImport(mod *Module, cfg *config.Config) CheckResult {
	result := CheckResult{Name: "runtime_import"}

	if mod == nil || cfg == nil {
		result.Status = StatusWarn
		result.Message = "skipped: module or config unavailable"
		return result
	}

	importPath := cfg.Runtime.ImportPath
	if by, ok := mod.Provides(importPath); ok {
		result.Status = StatusPass
		result.Message = fmt.Sprintf("%s (from %s)", importPath, by)
		return result
	}

	result.Status = StatusWarn
	result.Message = fmt.Sprintf("%s is not required by %s", importPath, filepath.Join(mod.Root, "go.mod"))
	result.Details = "Run 'go get " + importPath + "' so generated guards compile"
	return result
}

// CheckLockDir checks that the per-package lock files can be created.
func (c *Checker) CheckLockDir() CheckResult {
	result := CheckResult{Name: "lock_dir", Required: true}

	dir := c.lockDir
	if dir == "" {
		dir = generator.DefaultLockDir()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot create %s: %v", dir, err)
		return result
	}
	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot write to %s: %v", dir, err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	result.Status = StatusPass
	result.Message = dir
	return result
}
