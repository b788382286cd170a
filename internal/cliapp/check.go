package cliapp

import (
	"fmt"

	"github.com/spf13/cobra"
)

// checkCmd is run's --check shortcut as a standalone subcommand, the
// same duplication the teacher tolerates between `dep` and `constants`
// both calling the shared dep() helper.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the suite, build and validate the DAG, and exit without executing",
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

		log.Infof("suite valid: %d task(s) in execution set", len(execSet))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
