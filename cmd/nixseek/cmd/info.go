package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/nixseek/nixseek/internal/catalog"
	seekerr "github.com/nixseek/nixseek/internal/errors"
	"github.com/nixseek/nixseek/internal/output"
)

func newInfoCmd() *cobra.Command {
	var source string
	var format string

	cmd := &cobra.Command{
		Use:   "info <name>",
		Short: "Show metadata for a package",
		Long: `Look up a single package by exact name and print its metadata.
Lookups are cached under the package-metadata namespace.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, coordinator, engine, err := buildApp()
			if err != nil {
				return err
			}
			defer func() { _ = coordinator.Close() }()

			out := output.New(cmd.OutOrStdout())

			scope, err := catalog.ParseScope(source)
			if err != nil {
				return seekerr.InvalidQuery(err.Error())
			}

			pkg, err := engine.Lookup(cmd.Context(), args[0], scope)
			if err != nil {
				// Rendered by errors.FormatForCLI in main.
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(pkg)
			}

			out.Linef("Name:        %s", pkg.Name)
			out.Linef("Version:     %s", pkg.Version)
			out.Linef("Source:      %s", pkg.Source)
			if pkg.AttrPath != "" {
				out.Linef("Attribute:   %s", pkg.AttrPath)
			}
			if pkg.Description != "" {
				out.Linef("Description: %s", pkg.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Source scope: nixpkgs, nur, all")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}
