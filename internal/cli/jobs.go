package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/client"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs [job-id]",
	Short: "List or inspect ingest jobs on a server",
	Long: `List all ingest jobs of a running ragpipe server or inspect one by ID.

Examples:
  ragpipe jobs --server http://localhost:8080
  ragpipe jobs 1a2b3c4d --server http://localhost:8080`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJobs,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	c, ok := remote()
	if !ok {
		return errors.New("jobs run on a server; pass --server or set it to the server URL")
	}
	if len(args) == 1 {
		return showJob(cmd.Context(), c, args[0])
	}
	return listJobs(cmd.Context(), c)
}

func listJobs(ctx context.Context, c *client.Client) error {
	jobs, err := c.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("%-10s %-12s %-10s %-10s %s\n", "ID", "STATUS", "PROCESSED", "ERRORS", "STARTED")
	fmt.Println("------------------------------------------------------------")
	for _, job := range jobs {
		fmt.Printf("%-10s %-12s %-10d %-10d %s\n", job.ID, job.Status, job.Processed, job.Errors, job.StartedAt.Local().Format("15:04:05"))
	}
	return nil
}

func showJob(ctx context.Context, c *client.Client, id string) error {
	job, err := c.GetJob(ctx, id)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	fmt.Printf("Job: %s\n", job.ID)
	fmt.Printf("  Status:  %s\n", job.Status)
	fmt.Printf("  Sources: %v\n", job.Sources)
	if !job.Status.Terminal() && job.Total > 0 {
		fmt.Printf("  Progress: %s %d/%d\n", job.Source, job.Done, job.Total)
	}
	fmt.Printf("  Started: %s\n", job.StartedAt.Format(time.RFC3339))
	if job.CompletedAt != nil {
		fmt.Printf("  Completed: %s\n", job.CompletedAt.Format(time.RFC3339))
		fmt.Printf("  Duration: %s\n", job.CompletedAt.Sub(job.StartedAt).Round(time.Second))
	}
	if job.Error != "" {
		fmt.Printf("  Error: %s\n", job.Error)
	}
	if job.Report != nil {
		fmt.Println()
		fmt.Print(formatReport(defaultTheme, job.Report))
	}
	return nil
}
