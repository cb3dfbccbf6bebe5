// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/atriumworld/atrium/internal/world"
	"github.com/atriumworld/atrium/internal/world/mapdef"
)

// NewValidateMapCmd creates the validate-map subcommand.
func NewValidateMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-map <file>",
		Short: "Validate a world definition without starting the server",
		Long: `Validates a world definition file: JSON Schema conformance,
then a full tree build with bounds and nesting checks.
Exits with code 0 on success, non-zero on failure.

Useful in CI pipelines to catch map errors early:
  atrium validate-map maps/park.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateMap(cmd, args[0])
		},
	}
}

func runValidateMap(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return oops.Code("MAP_READ_FAILED").With("path", path).Wrap(err)
	}

	skeleton, err := mapdef.Parse(data)
	if err != nil {
		return err
	}

	tree := world.NewTree()
	worldCtx, err := world.BuildWorld(tree, skeleton)
	if err != nil {
		return err
	}

	cmd.Printf("%s: ok (world %s)\n", path, worldCtx.ID)
	return nil
}
