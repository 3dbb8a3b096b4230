// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-sync/internal/logging"
	"github.com/pdiddy/scholar-sync/internal/pipeline"
)

var mergeCmd = &cobra.Command{
	Use:   "merge OLD NEW",
	Short: "Reconcile a new publication list into a curated one, offline",
	Long: `Merge reconciles the publications in NEW into the curated file OLD with the
same rules as sync, without any network access. The result replaces OLD
unless --out names another file.`,
	Args: cobra.ExactArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().String("out", "", "output file (default: OLD)")
	mergeCmd.Flags().Bool("prune", false, "drop records of OLD missing from NEW")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	oldPath, newPath := args[0], args[1]

	opts := pipeline.OptionsFromConfig(cfg)
	opts.StorePath = oldPath
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		opts.StorePath = out
	}
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")

	logger := logging.New(cfg.Log, cmd.ErrOrStderr())
	if _, err := pipeline.MergeFiles(oldPath, newPath, opts, cmd.OutOrStdout(), logger); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	return nil
}
