package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/gocontract/internal/config"
	"github.com/Aman-CERP/gocontract/pkg/version"
)

// versionInfo is the JSON form of the version command: the build plus the
// runtime package guards in the current module call.
type versionInfo struct {
	version.BuildInfo
	Runtime config.RuntimeConfig `json:"runtime"`
	Source  string               `json:"runtime_source"`
}

func newVersionCmd(a *app) *cobra.Command {
	var jsonOutput, shortOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the contractgen build (version, commit, Go version) and the
contract runtime package that guards generated in the current module import.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if shortOutput {
				_, err := fmt.Fprintln(out, version.Short())
				return err
			}

			info := versionInfo{BuildInfo: version.GetInfo(), Source: "defaults"}
			info.Runtime = config.NewConfig().Runtime
			if cfg, root, err := a.loadConfig("."); err == nil {
				info.Runtime = cfg.Runtime
				info.Source = root
			}

			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			_, err := fmt.Fprintf(out, "%s\nruntime: %s (package %s, from %s)\n",
				version.String(), info.Runtime.ImportPath, info.Runtime.PackageName, info.Source)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Output only the version number")

	return cmd
}
