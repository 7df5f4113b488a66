// Package preflight checks that contractgen can run in a project before it
// touches any file.
//
// The package validates:
//   - The go command is on PATH (package loading shells out to it)
//   - The directory is inside a Go module
//   - The contractgen configuration loads and validates
//   - The runtime package that guards import is resolvable from the module
//   - The lock directory is writable
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New(preflight.WithUserConfig(path))
//	results := checker.RunAll(ctx, dir)
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
