package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/gocontract/configs"
	"github.com/Aman-CERP/gocontract/internal/config"
	"github.com/Aman-CERP/gocontract/internal/output"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage contractgen configuration",
		Long: `Manage contractgen configuration.

Configuration precedence (lowest to highest):
  1. Built-in defaults
  2. User config (~/.config/contractgen/config.yaml)
  3. Project config (.contractgen.yaml at the module root)
  4. Environment variables (CONTRACTGEN_*)`,
		Example: `  # Create .contractgen.yaml at the module root
  contractgen config init

  # Show the effective configuration
  contractgen config show`,
	}

	cmd.AddCommand(newConfigInitCmd(a))
	cmd.AddCommand(newConfigShowCmd(a))
	cmd.AddCommand(newConfigPathCmd(a))

	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force, user bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented configuration file",
		Long: `Write the configuration template to .contractgen.yaml at the module root,
or to the user config file with --user. An existing file is kept unless
--force is given; it is then backed up before being replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.initTarget(user)
			if err != nil {
				return err
			}
			return runConfigInit(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file after backing it up")
	cmd.Flags().BoolVar(&user, "user", false, "Write the user config instead of the project config")

	return cmd
}

// initTarget returns the file config init writes.
func (a *app) initTarget(user bool) (string, error) {
	if user {
		return a.userConfigPath(), nil
	}
	root, err := config.FindModuleRoot(".")
	if err != nil {
		return "", err
	}
	if existing := config.ProjectConfigPath(root); existing != "" {
		return existing, nil
	}
	return filepath.Join(root, config.ProjectFileName), nil
}

func runConfigInit(cmd *cobra.Command, path string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	found := exists(path)
	if found && !force {
		out.Warning("Configuration already exists")
		out.Statusf("", "Location: %s", path)
		out.Status("", "Use --force to replace it (a backup is kept)")
		return nil
	}

	var backup string
	if found {
		var err error
		if backup, err = config.Backup(path); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Wrote configuration")
	out.Statusf("", "Location: %s", path)
	if backup != "" {
		out.Statusf("", "Backup: %s", backup)
	}
	return nil
}

func newConfigShowCmd(a *app) *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the configuration after merging all sources, or a single layer with
--source user|project|defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, a, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

func runConfigShow(cmd *cobra.Command, a *app, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout())

	var cfg *config.Config
	var sourceDesc string

	switch source {
	case "merged":
		var err error
		if cfg, _, err = a.loadConfig("."); err != nil {
			return err
		}
		sourceDesc = "merged (defaults + user + project + env)"

	case "user", "project":
		path := a.userConfigPath()
		if source == "project" {
			root, err := config.FindModuleRoot(".")
			if err != nil {
				return err
			}
			path = config.ProjectConfigPath(root)
		}
		if path == "" || !exists(path) {
			out.Warningf("No %s configuration file found", source)
			out.Status("", "Run 'contractgen config init' to create one")
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s config: %w", source, err)
		}
		cfg = config.NewConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s config: %w", source, err)
		}
		sourceDesc = fmt.Sprintf("%s (%s)", source, path)

	case "defaults":
		cfg = config.NewConfig()
		sourceDesc = "defaults"

	default:
		return fmt.Errorf("invalid source: %s (use: merged, user, project, defaults)", source)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	out.Statusf("#", "source: %s", sourceDesc)
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func newConfigPathCmd(a *app) *cobra.Command {
	var user bool

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Long: `Print the project config file that applies to the current directory, or
where it would be created. With --user, print the user config path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.initTarget(user)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	cmd.Flags().BoolVar(&user, "user", false, "Print the user config path")
	return cmd
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
