package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/zippy-delivery/zippy-console/internal/cli"
	"github.com/zippy-delivery/zippy-console/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(cli.Options{
		Out: os.Stdout,
		OpenQueue: func(addr string) (cli.JobQueue, error) {
			return jobs.NewQueue(asynq.RedisClientOpt{Addr: addr}), nil
		},
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "zippyctl: %v\n", err)
		os.Exit(1)
	}
}
