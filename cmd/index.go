package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xhad/pressdata/pkg/dataset"
	"github.com/xhad/pressdata/pkg/llm"
	"github.com/xhad/pressdata/pkg/processor"
	"github.com/xhad/pressdata/pkg/store"
)

func newIndexer(ctx context.Context) (*store.Indexer, func(), error) {
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("database URL is required (database.url or DATABASE_URL)")
	}

	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   cfg.Embedder.Model,
		BaseURL: cfg.Embedder.BaseURL,
	})
	if err != nil {
		return nil, nil, err
	}

	vs, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  cfg.Database.VectorDim,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	p := processor.NewWithConfig(processor.ProcessorConfig{})
	return store.NewIndexer(&p, emb, vs, logger), vs.Close, nil
}

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <dataset.jsonl>",
		Short: "Embed summarised records into the pgvector index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			records, err := dataset.ReadRecords(args[0])
			if err != nil {
				return err
			}

			ix, closeStore, err := newIndexer(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			spinner := getSpinner(fmt.Sprintf("Indexing %d records...", len(records)))
			chunks, err := ix.IndexRecords(ctx, records)
			spinner.Finish()
			fmt.Println()
			if err != nil {
				return err
			}

			color.Green("✓ Indexed %d chunks from %s\n", chunks, args[0])
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find the press releases closest to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ix, closeStore, err := newIndexer(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			results, err := ix.Search(ctx, strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				color.Yellow("No matches.")
				return nil
			}

			for i, r := range results {
				color.Cyan("\n%d. %s (chunk %d)", i+1, r.Filename, r.ChunkIndex)
				if r.Summary != "" {
					fmt.Printf("   Summary: %s\n", r.Summary)
				}
				var names []string
				for _, t := range r.Topics {
					if n := t.Name(); n != "" {
						names = append(names, n)
					}
				}
				if len(names) > 0 {
					fmt.Printf("   Topics:  %s\n", strings.Join(names, ", "))
				}
				fmt.Printf("   %s\n", processor.Truncate(r.Content, 200))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Number of results")
	return cmd
}
