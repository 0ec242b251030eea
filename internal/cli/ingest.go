package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	ingestAsync bool
	ingestWatch bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <topic> <file>...",
	Short: "Upload documents into a topic",
	Long: `Upload one or more documents into a topic's knowledge base.

By default the command waits for extraction, chunking and indexing to
finish. With --async the server processes files in the background and the
command prints job IDs; add --watch to follow their progress live.

Examples:
  elimu ingest biology notes.pdf
  elimu ingest biology ch1.pdf ch2.pdf --async
  elimu ingest biology textbook.pdf --watch`,
	Args: cobra.MinimumNArgs(2),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestAsync, "async", false, "ingest in the background and print job IDs")
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "ingest in the background and follow progress (implies --async)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	topic, files := args[0], args[1:]
	ctx := context.Background()

	if ingestAsync || ingestWatch {
		refs, err := api.IngestAsync(ctx, topic, files)
		if err != nil {
			return fmt.Errorf("submit ingestion: %w", err)
		}
		if !ingestWatch {
			for _, ref := range refs {
				fmt.Printf("%s  %s\n", ref.JobID, ref.FileName)
			}
			fmt.Printf("\nUse 'elimu jobs <job-id>' to check status.\n")
			return nil
		}
		for _, ref := range refs {
			fmt.Printf("Ingesting %s\n", ref.FileName)
			if err := watchJob(ctx, ref.JobID); err != nil {
				return err
			}
		}
		return nil
	}

	docs, err := api.Ingest(ctx, topic, files)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	for _, doc := range docs {
		fmt.Printf("✓ %s (%d pages, %d bytes)\n", doc.FileName, doc.PageCount, doc.SizeBytes)
	}
	return nil
}
