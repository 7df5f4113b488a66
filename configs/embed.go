// Package configs embeds the configuration template written by
// `contractgen config init`.
//
// Configuration hierarchy (see internal/config Load):
//  1. Built-in defaults
//  2. User config (~/.config/contractgen/config.yaml)
//  3. Project config (.contractgen.yaml at the module root)
//  4. Environment variables (CONTRACTGEN_*)
package configs

import _ "embed"

// ProjectConfigTemplate is the commented template for .contractgen.yaml.
// Every setting is shown with its default value.
//
//go:embed contractgen.example.yaml
var ProjectConfigTemplate string
