// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-sync/internal/export"
	"github.com/pdiddy/scholar-sync/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the curated publications as CSL-YAML or CSL-JSON",
	Long: `Export renders the curated store as CSL items for Pandoc and reference
managers. Citation keys are the first author's family name, the year, and the
first significant title word (e.g. smith2020deep).`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "yaml", "output format: yaml or json")
	exportCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(format)
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unknown export format %q: use yaml or json", format)
	}

	pubs, err := store.Load(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", cfg.Store.Path, err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	if format == "json" {
		return export.FormatJSON(pubs, w)
	}
	return export.FormatCSL(pubs, w)
}
