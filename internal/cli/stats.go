package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server operation counters",
	RunE:  runStats,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the server is up",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(healthCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := api.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}
	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("render stats: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	if err := api.Health(context.Background()); err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	fmt.Println("ok")
	return nil
}
