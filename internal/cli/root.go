// Package cli implements zippyctl, the operator command line for the console:
// permission table inspection and maintenance job control.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/zippy-delivery/zippy-console/jobs"
)

// JobQueue is the slice of jobs.Queue the CLI drives.
type JobQueue interface {
	TriggerSessionsCleanup(ctx context.Context, payload jobs.SessionsCleanupPayload) (string, error)
	Stats(ctx context.Context) (jobs.QueueStats, error)
	Close() error
}

// Options wires the CLI to its environment.
type Options struct {
	Out io.Writer
	// OpenQueue connects to the job queue at addr.
	OpenQueue func(addr string) (JobQueue, error)
}

// NewRootCommand builds the zippyctl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	root := &cobra.Command{
		Use:           "zippyctl",
		Short:         "Operate the Zippy console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if opts.Out != nil {
		root.SetOut(opts.Out)
	}
	root.AddCommand(newPermissionsCommand(), newJobsCommand(opts))
	return root
}
