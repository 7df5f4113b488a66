package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/gocontract/internal/annotate"
	cerrors "github.com/Aman-CERP/gocontract/internal/errors"
	"github.com/Aman-CERP/gocontract/internal/generator"
	"github.com/Aman-CERP/gocontract/internal/output"
)

func newListCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list [packages]",
		Short: "List annotated methods and the state of their guards",
		Example: `  contractgen list ./...
  contractgen list --json ./... | jq '.[] | select(.in_sync | not)'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := a.loadConfig(".")
			if err != nil {
				return err
			}

			methods, err := generator.New(generatorOptions(cfg, annotate.ModeSync)).
				List(cmd.Context(), patterns(args)...)
			if methods == nil && cerrors.IsFatal(err) {
				return err
			}

			if jsonOutput {
				if methods == nil {
					methods = []generator.MethodInfo{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(methods); encErr != nil {
					return encErr
				}
			} else {
				output.New(cmd.OutOrStdout()).WithBase(root).Methods(methods)
			}

			if err != nil {
				output.New(cmd.ErrOrStderr()).WithBase(root).Diagnostics(cerrors.Flatten(err))
				return errReported
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
