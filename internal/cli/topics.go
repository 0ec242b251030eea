package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List topics",
	RunE:  runListTopics,
}

var topicsDeleteCmd = &cobra.Command{
	Use:   "delete <topic>",
	Short: "Delete a topic and all its indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteTopic,
}

var topicsDocsCmd = &cobra.Command{
	Use:   "docs <topic>",
	Short: "List the documents uploaded to a topic",
	Args:  cobra.ExactArgs(1),
	RunE:  runListDocuments,
}

func init() {
	topicsCmd.AddCommand(topicsDeleteCmd)
	topicsCmd.AddCommand(topicsDocsCmd)
	rootCmd.AddCommand(topicsCmd)
}

func runListTopics(cmd *cobra.Command, args []string) error {
	topics, err := api.ListTopics(context.Background())
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}

	if len(topics) == 0 {
		fmt.Println("No topics yet")
		return nil
	}
	fmt.Printf("%-30s %s\n", "TOPIC", "CREATED")
	for _, t := range topics {
		fmt.Printf("%-30s %s\n", t.Name, t.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runDeleteTopic(cmd *cobra.Command, args []string) error {
	topic := args[0]
	if err := api.DeleteTopic(context.Background(), topic); err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	fmt.Printf("Deleted topic %q\n", topic)
	return nil
}

func runListDocuments(cmd *cobra.Command, args []string) error {
	docs, err := api.ListDocuments(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("No documents uploaded yet")
		return nil
	}
	fmt.Printf("%-40s %-8s %-12s %s\n", "FILE", "PAGES", "SIZE", "UPLOADED")
	for _, d := range docs {
		fmt.Printf("%-40s %-8d %-12d %s\n", d.FileName, d.PageCount, d.SizeBytes, d.DateUploaded.Format("2006-01-02 15:04"))
	}
	return nil
}
