// Package cliapp is the thin command-line collaborator described in
// SPEC_FULL.md's CLI section: flags and the project YAML file are
// assembled into an immutable config.Config here and handed to
// the core (suite, dag, scheduler) packages, which never see a flag
// directly. Laid out the way the teacher's cli/cmd package splits one
// persistent-flag root command from a handful of subcommands
// (root.go, dep.go, up.go, build.go).
package cliapp

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sqlscheduler/sqlscheduler/internal/config"
)

var (
	rootCmd = &cobra.Command{
		Use:          "sqlscheduler",
		Short:        "sqlscheduler",
		SilenceUsage: true,
		Long:         "Executes a suite of paired DDL/INSERT SQL scripts against a PostgreSQL database, ordered by their inferred read/write dependencies.",
	}

	flagDDLDir    string
	flagInsertDir string
	flagDSN       string
	flagDev       bool
	flagProd      bool
	flagDevSchema string
	flagTargets   []string
	flagDeps      bool
	flagPoolSize  int32
	flagLogLevel  string
	flagCheck     bool
)

// Execute runs the configured command tree. The returned error, when
// non-nil, is always either an *ExitError (carrying the process exit
// code §6 specifies) or a cobra usage error.
func Execute() error {
	rootCmd.PersistentFlags().StringVar(&flagDDLDir, "ddl-dir", "", "directory of *.sql DDL scripts (required)")
	rootCmd.PersistentFlags().StringVar(&flagInsertDir, "insert-dir", "", "directory of *.sql INSERT scripts (required)")
	rootCmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "postgres connection string, or a name from sqlscheduler.yaml's databases map")
	rootCmd.PersistentFlags().BoolVar(&flagDev, "dev", false, "run in dev stage, rewriting in-suite references to --dev-schema")
	rootCmd.PersistentFlags().BoolVar(&flagProd, "prod", false, "run in prod stage (default)")
	rootCmd.PersistentFlags().StringVar(&flagDevSchema, "dev-schema", "", "developer schema to rewrite references to; required with --dev")
	rootCmd.PersistentFlags().StringSliceVarP(&flagTargets, "target", "t", nil, "schema.table to run; repeatable. Empty means the whole suite")
	rootCmd.PersistentFlags().BoolVar(&flagDeps, "dependencies", false, "include the transitive upstream closure of --target")
	rootCmd.PersistentFlags().Int32Var(&flagPoolSize, "pool-size", 0, "connection pool size; 0 defaults to the execution set's size, plus one in dev stage")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "logrus level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagCheck, "check", false, "build and validate the DAG, then exit without executing")

	return rootCmd.Execute()
}

// ExitError carries the process exit code a command's failure maps to,
// per §6's CLI invariants.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit"
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func resolveStage() config.Stage {
	if flagDev {
		return config.Dev
	}
	return config.Prod
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(flagLogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
