// Package version reports build information for contractgen.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the contractgen release. Release builds set it with
// -ldflags "-X github.com/Aman-CERP/gocontract/pkg/version.Version=v1.2.3";
// binaries built by `go install module@version` fall back to the module
// version recorded in the build info.
var Version = "dev"

var (
	// Commit is the git commit hash, set via ldflags.
	Commit = "unknown"

	// Date is the build date in RFC3339 format, set via ldflags.
	Date = "unknown"

	// GoVersion is the Go version the binary was built with.
	GoVersion = runtime.Version()
)

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// String returns the version line with all build info.
func String() string {
	return fmt.Sprintf("contractgen %s (commit: %s, built: %s, go: %s)",
		Short(), Commit, Date, GoVersion)
}

// Short returns just the version.
func Short() string {
	return resolve(Version, debug.ReadBuildInfo)
}

// GetInfo returns structured version information.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Short(),
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

func resolve(v string, read func() (*debug.BuildInfo, bool)) string {
	if v != "dev" {
		return v
	}
	if info, ok := read(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return v
}
