package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the studio's periodic jobs",
	Long:  `Run the maintenance jobs (monthly fee reset, expired token cleanup) on their schedules or on demand.`,
}

var schedulerWorkerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Start the cron scheduler without the HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		startSchedulerWorker()
	},
}

var runJobCmd = &cobra.Command{
	Use:       "run [job]",
	Short:     "Run one job immediately",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"payment-reset", "token-cleanup"},
	Run: func(cmd *cobra.Command, args []string) {
		runJobOnce(args[0])
	},
}

var jobTimeout time.Duration

func startSchedulerWorker() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	sched, err := newScheduler(deps)
	if err != nil {
		deps.Logger.Error("failed to configure scheduler", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sched.Start()
	deps.Logger.Info("scheduler worker is running. Press Ctrl+C to stop.",
		"jobs", sched.Jobs(),
		"timezone", deps.Location.String())

	sig := <-sigChan
	deps.Logger.Info("received signal, shutting down scheduler worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sched.Stop(ctx)
}

func runJobOnce(name string) {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	sched, err := newScheduler(deps)
	if err != nil {
		deps.Logger.Error("failed to configure scheduler", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := sched.RunByName(ctx, name); err != nil {
		deps.Logger.Error("job failed", "job", name, "error", err)
		os.Exit(1)
	}
}

func init() {
	runJobCmd.Flags().DurationVar(&jobTimeout, "timeout", 2*time.Minute, "maximum run time of the job")

	workerCmd.AddCommand(schedulerWorkerCmd)
	workerCmd.AddCommand(runJobCmd)

	rootCmd.AddCommand(workerCmd)
}
