package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zippy-delivery/zippy-console/jobs"
)

func newJobsCommand(opts Options) *cobra.Command {
	var redisAddr string
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger and inspect maintenance jobs",
	}
	cmd.PersistentFlags().StringVar(&redisAddr, "redis", "127.0.0.1:6379", "Redis address of the job queue")

	open := func() (JobQueue, error) {
		if opts.OpenQueue == nil {
			return nil, errors.New("job queue not available")
		}
		return opts.OpenQueue(redisAddr)
	}

	var grace time.Duration
	cleanup := &cobra.Command{
		Use:   "cleanup-sessions",
		Short: "Enqueue an immediate expired-session cleanup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := open()
			if err != nil {
				return err
			}
			defer queue.Close()
			id, err := queue.TriggerSessionsCleanup(cmd.Context(), jobs.SessionsCleanupPayload{GraceSeconds: int(grace.Seconds())})
			if err != nil {
				return fmt.Errorf("enqueue %s: %w", jobs.TaskSessionsCleanup, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s (%s)\n", jobs.TaskSessionsCleanup, id)
			return nil
		},
	}
	cleanup.Flags().DurationVar(&grace, "grace", 0, "keep sessions that expired less than this long ago")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Print queue counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := open()
			if err != nil {
				return err
			}
			defer queue.Close()
			s, err := queue.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived)
			return nil
		},
	}

	cmd.AddCommand(cleanup, stats)
	return cmd
}
