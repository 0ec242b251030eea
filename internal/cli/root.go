// Package cli provides the command-line interface for the Elimu server.
package cli

import (
	"github.com/elimu-hub/elimu-go/internal/client"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
	verbose   bool

	// API client shared by all commands.
	api *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "elimu",
	Short: "Topic-scoped document Q&A",
	Long: `Elimu ingests documents into per-topic knowledge bases and answers
questions grounded in them.

Upload PDFs or text files to a topic, then ask questions; answers cite the
document pages they were drawn from. Questions the indexed material cannot
answer confidently are refused rather than guessed at.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		api = client.New(serverURL)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "server URL (default: ELIMU_SERVER_URL or http://localhost:8080)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
