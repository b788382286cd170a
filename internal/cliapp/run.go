package cliapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sqlscheduler/sqlscheduler/internal/config"
	"github.com/sqlscheduler/sqlscheduler/internal/dbconn"
	"github.com/sqlscheduler/sqlscheduler/internal/scheduler"
	"github.com/sqlscheduler/sqlscheduler/internal/sqlerr"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the suite against the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			_ = cmd.Help()
			return &ExitError{Code: 1, Err: fmt.Errorf("too many arguments")}
		}

		log := newLogger()

		cfg, err := buildConfig()
		if err != nil {
			return err
		}

		g, err := loadGraph(cfg)
		if err != nil {
			return err
		}

		execSet, err := g.ExecutionSet(cfg.Targets, cfg.Dependencies)
		if err != nil {
			return &ExitError{Code: 1, Err: err}
		}

		if cfg.Check {
			log.Infof("suite valid: %d task(s) in execution set", len(execSet))
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		poolSize := cfg.PoolSize
		if poolSize == 0 {
			poolSize = int32(len(execSet))
			if cfg.Stage == config.Dev {
				// One extra connection holds the dev advisory lock for
				// the run's duration, separate from the per-Task
				// connections.
				poolSize++
			}
		}
		pool, err := dbconn.NewPool(ctx, cfg.DSN, poolSize)
		if err != nil {
			return &ExitError{Code: 1, Err: fmt.Errorf("connect: %w", err)}
		}
		defer pool.Close()

		sum, err := scheduler.Run(ctx, pool, g, execSet, cfg, log)
		if err != nil {
			var cancelled sqlerr.Cancelled
			if errors.As(err, &cancelled) {
				return &ExitError{Code: 130, Err: err}
			}
			return &ExitError{Code: 1, Err: err}
		}

		log.Infof("run %s: %d succeeded, %d failed, %d skipped (%s)",
			sum.RunID, sum.Succeeded, sum.Failed, sum.Skipped, sum.Duration)

		if sum.Failed > 0 || sum.Skipped > 0 {
			return &ExitError{Code: 2, Err: fmt.Errorf("%d task(s) failed", sum.Failed)}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
