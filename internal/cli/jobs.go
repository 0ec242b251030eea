package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var jobsStatusFilter string

var jobsCmd = &cobra.Command{
	Use:   "jobs [job-id]",
	Short: "List or inspect background jobs",
	Long: `List background ingestion jobs or inspect a specific job by ID.

Examples:
  elimu jobs                      # List all jobs
  elimu jobs --status running     # Only running jobs
  elimu jobs abc123               # Show details for job abc123`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJobs,
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a pending job",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancelJob,
}

var jobsWatchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Follow a job's progress until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchJob(context.Background(), args[0])
	},
}

func init() {
	jobsCmd.Flags().StringVar(&jobsStatusFilter, "status", "", "filter by status (pending, running, completed, failed, cancelled)")
	jobsCmd.AddCommand(jobsCancelCmd)
	jobsCmd.AddCommand(jobsWatchCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(args) == 1 {
		return showJob(ctx, args[0])
	}
	return listJobs(ctx)
}

func listJobs(ctx context.Context) error {
	jobs, err := api.ListJobs(ctx, jobsStatusFilter)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("%-38s %-11s %-9s %-9s %s\n", "ID", "STATUS", "PROGRESS", "CREATED", "MESSAGE")
	for _, job := range jobs {
		fmt.Printf("%-38s %-11s %7d%% %-9s %s\n",
			job.ID, job.Status, job.Progress, job.CreatedAt.Format("15:04:05"), job.Message)
	}
	return nil
}

func showJob(ctx context.Context, id string) error {
	job, err := api.GetJob(ctx, id)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	fmt.Printf("Job: %s\n", job.ID)
	fmt.Printf("  Status: %s\n", job.Status)
	fmt.Printf("  Progress: %d%%\n", job.Progress)
	if job.Message != "" {
		fmt.Printf("  Message: %s\n", job.Message)
	}
	fmt.Printf("  Created: %s\n", job.CreatedAt.Format(time.RFC3339))
	if job.StartedAt != nil {
		fmt.Printf("  Started: %s\n", job.StartedAt.Format(time.RFC3339))
	}
	if job.CompletedAt != nil {
		fmt.Printf("  Completed: %s\n", job.CompletedAt.Format(time.RFC3339))
		if job.StartedAt != nil {
			fmt.Printf("  Duration: %s\n", job.CompletedAt.Sub(*job.StartedAt).Round(time.Second))
		}
	}
	if job.Error != "" {
		fmt.Printf("  Error: %s\n", job.Error)
	}
	return nil
}

func runCancelJob(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := api.CancelJob(context.Background(), id); err != nil {
		return fmt.Errorf("cancel job: %w", err)
	}
	fmt.Printf("Cancelled job %s\n", id)
	return nil
}

// watchJob runs the interactive progress UI for one job.
func watchJob(ctx context.Context, id string) error {
	job, err := api.GetJob(ctx, id)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}
	return RunJobProgress(api, job)
}
