package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"brandguardian/internal/daemonrun"
	"brandguardian/internal/knowledge"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "index <path>",
		Short: "Index rule documents into the knowledge base",
		Long: "Splits .txt and .md rule documents into overlapping chunks, embeds them, and\n" +
			"upserts them into the configured search backend. Re-indexing is idempotent.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg, verbose)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := knowledge.OpenStore(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("open knowledge store: %w", err)
			}
			defer store.Close()

			indexer := knowledge.NewIndexer(store, daemonrun.NewEmbedder(cfg), cfg.Embedding.BatchSize, logger)
			summary, err := indexer.IndexPath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %d files into %s in %s\n",
				summary.Chunks, summary.Files, cfg.Search.Backend, summary.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Stream indexing logs to stderr")
	return cmd
}
