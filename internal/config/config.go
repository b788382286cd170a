// Package config defines the core's configuration surface. The core
// itself only ever sees a fully-populated, immutable Config value
// (§9 "Global configuration"); everything that assembles one from
// flags or a project YAML file is a thin
// collaborator living in internal/cliapp, following the teacher's
// cli/cmd/config.go split between a Config struct and the loader that
// populates it.
package config

import (
	"fmt"

	"github.com/sqlscheduler/sqlscheduler/internal/sqlerr"
	"github.com/sqlscheduler/sqlscheduler/internal/task"
)

// Stage selects whether a run executes against the real schemas or
// rewrites them to a developer schema.
type Stage string

const (
	Prod Stage = "prod"
	Dev  Stage = "dev"
)

// Config is the core's complete, immutable configuration for one run.
type Config struct {
	DDLDirectory    string
	InsertDirectory string
	DSN             string

	Stage     Stage
	DevSchema string

	Targets      []task.ID
	Dependencies bool
	Check        bool

	// PoolSize is P from §4.G: the number of pooled connections. Zero
	// means "default to the number of tasks in the execution set", plus
	// one in dev stage for the connection holding the advisory lock.
	PoolSize int32
}

// Validate checks the invariants §6 requires before a run starts.
func (c Config) Validate() error {
	if c.DDLDirectory == "" {
		return sqlerr.ConfigError{Message: "ddl_directory is required"}
	}
	if c.InsertDirectory == "" {
		return sqlerr.ConfigError{Message: "insert_directory is required"}
	}
	if c.DSN == "" {
		return sqlerr.ConfigError{Message: "dsn is required"}
	}
	switch c.Stage {
	case Prod:
	case Dev:
		if c.DevSchema == "" {
			return sqlerr.ConfigError{Message: "dev_schema is required when stage is dev"}
		}
	default:
		return sqlerr.ConfigError{Message: fmt.Sprintf("stage must be %q or %q, got %q", Prod, Dev, c.Stage)}
	}
	return nil
}
