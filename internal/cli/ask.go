package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <topic> <question>",
	Short: "Ask a question against a topic's documents",
	Long: `Ask a question and get an answer grounded in the topic's documents.

The answer cites the pages it was drawn from. When the indexed material
does not cover the question confidently enough, the server says so instead
of guessing.

Examples:
  elimu ask biology "What does the mitochondria do?"
  elimu ask history "When did the Berlin wall fall?"`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	topic, question := args[0], args[1]

	answer, err := api.Ask(context.Background(), topic, question)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Println(answer.Answer)

	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range answer.Sources {
			fmt.Printf("  - %s\n", src)
		}
	}
	if verbose {
		fmt.Printf("\nused_context=%t", answer.UsedContext)
		if answer.Confidence != nil {
			fmt.Printf(" confidence=%.3f", *answer.Confidence)
		}
		if answer.LLM != "" {
			fmt.Printf(" llm=%s", answer.LLM)
		}
		fmt.Println()
	}
	return nil
}
