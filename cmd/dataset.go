package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xhad/pressdata/pkg/dataset"
	"github.com/xhad/pressdata/pkg/llm"
	"github.com/xhad/pressdata/pkg/processor"
)

func newDatasetCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "dataset <pdf|dir>...",
		Short: "Extract, summarise and tag PDFs into a JSON-Lines dataset",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			gen, err := newGenerator(ctx)
			if err != nil {
				return err
			}

			queue := dataset.NewQueue()
			added, err := queue.Add(args...)
			if err != nil {
				return err
			}
			files, err := queue.Begin()
			if err != nil {
				return err
			}
			defer queue.End()
			color.Blue("\nQueued %d PDF file(s)\n", added)

			bar := getProgressBar(len(files), "Processing PDFs...")
			runner := newRunner(gen, logger, func(done, total int, detail dataset.FileDetail) {
				bar.Add(1)
				bar.Describe(color.BlueString("Processing PDFs... (%s)", detail.Filename))
			})

			stats, err := runner.Run(ctx, files, output)
			bar.Finish()
			fmt.Println()
			printStats(stats)

			if err != nil && !interrupted(err) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "dataset.jsonl", "Dataset file (.jsonl added when no extension is given)")
	return cmd
}

func newGenerator(ctx context.Context) (llm.Generator, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	return llm.NewGenerator(ctx, llm.GeneratorConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
}

func newRunner(gen llm.Generator, l *zap.Logger, onProgress func(done, total int, detail dataset.FileDetail)) *dataset.Runner {
	summarizer := llm.NewSummarizer(gen, llm.SummarizerConfig{
		MaxPromptChars: cfg.LLM.MaxPromptChars,
		MinTextLength:  cfg.Dataset.MinTextLength,
		Logger:         l,
	})
	detector := processor.NewLanguageDetector(cfg.Dataset.LanguageSample, cfg.Dataset.MinLanguageSample)

	return dataset.NewRunner(dataset.RunnerConfig{
		Language:     cfg.Dataset.Language,
		FileInterval: cfg.Dataset.FileInterval,
		Logger:       l,
		OnProgress:   onProgress,
	}, processor.PDFExtractor{}, detector, summarizer)
}

func printStats(stats dataset.Stats) {
	color.Cyan("\n--- Processing Complete ---")
	fmt.Printf("Total files in list:    %d\n", stats.Listed)
	fmt.Printf("Files attempted:        %d\n", stats.Attempted)
	color.Green("Successfully generated: %d", stats.Success)
	color.Yellow("Skipped (non-English):  %d", stats.Skipped)
	color.Red("Failed:                 %d", stats.Failed)
	fmt.Printf("\nDataset saved to:       %s\n", stats.DatasetPath)
	fmt.Printf("Detailed log saved to:  %s\n", stats.LogPath)
}
