// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSourcesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Inspect the source catalog",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List every source with its numeric id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(catalog.Groups())
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tKEY\tNAME\tGROUP")
			id := 0
			for _, g := range catalog.Groups() {
				for _, s := range g.Sources {
					_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", id, s.Key, s.Name, g.Name)
					id++
				}
			}
			return tw.Flush()
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")

	resolve := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Show the source behind a numeric id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("source id %q is not a number", args[0])
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			src, err := catalog.Source(id)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "key: %s\nname: %s\nurl: %s\n", src.Key, src.Name, src.URLPrefix)
			return err
		},
	}

	cmd.AddCommand(list, resolve)
	return cmd
}
