package cliapp

import (
	"fmt"
	"os"
	"strings"

	"github.com/sqlscheduler/sqlscheduler/internal/config"
	"github.com/sqlscheduler/sqlscheduler/internal/dag"
	"github.com/sqlscheduler/sqlscheduler/internal/sqlerr"
	"github.com/sqlscheduler/sqlscheduler/internal/suite"
	"github.com/sqlscheduler/sqlscheduler/internal/task"
)

// buildConfig assembles an immutable config.Config from flags and the
// optional project file, following §9's "Global configuration" design
// note: everything below this function is flag-free.
func buildConfig() (config.Config, error) {
	if flagDev && flagProd {
		return config.Config{}, &ExitError{Code: 1, Err: sqlerr.ConfigError{Message: "--dev and --prod are mutually exclusive"}}
	}

	pf, err := config.LoadProjectFile(".")
	if err != nil {
		return config.Config{}, &ExitError{Code: 1, Err: fmt.Errorf("reading sqlscheduler.yaml: %w", err)}
	}

	poolSize := flagPoolSize
	if poolSize == 0 {
		poolSize = pf.PoolSize
	}

	targets, err := parseTargets(flagTargets)
	if err != nil {
		return config.Config{}, &ExitError{Code: 1, Err: err}
	}

	cfg := config.Config{
		DDLDirectory:    flagDDLDir,
		InsertDirectory: flagInsertDir,
		DSN:             pf.ResolveDSN(flagDSN),
		Stage:           resolveStage(),
		DevSchema:       flagDevSchema,
		Targets:         targets,
		Dependencies:    flagDeps,
		PoolSize:        poolSize,
		Check:           flagCheck,
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, &ExitError{Code: 1, Err: err}
	}
	return cfg, nil
}

func parseTargets(raw []string) ([]task.ID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]task.ID, 0, len(raw))
	for _, r := range raw {
		parts := strings.SplitN(r, ".", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, sqlerr.ConfigError{Message: fmt.Sprintf("target %q must be schema.table", r)}
		}
		ids = append(ids, task.ID{Schema: parts[0], Table: parts[1]})
	}
	return ids, nil
}

// loadGraph loads the suite from disk and links it into a validated
// dag.Graph, translating a LoadErrors/CycleError into the §6 exit code
// 1 ("load or DAG error").
func loadGraph(cfg config.Config) (*dag.Graph, error) {
	tasks, err := suite.Load(os.DirFS(cfg.DDLDirectory), os.DirFS(cfg.InsertDirectory))
	if err != nil {
		return nil, &ExitError{Code: 1, Err: err}
	}

	g := dag.Build(tasks)
	if err := g.Validate(); err != nil {
		return nil, &ExitError{Code: 1, Err: err}
	}
	return g, nil
}
