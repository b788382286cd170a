package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the optional sqlscheduler.yaml in the directory the CLI
// is run from: a place for defaults a user doesn't want to
// repeat on every CLI invocation, the same role teacher's sqlcode.yaml
// plays for named database connections.
type ProjectFile struct {
	// PoolSize overrides Config.PoolSize when the CLI flag is unset.
	PoolSize int32 `yaml:"pool_size"`

	// Databases maps a short name to a DSN, so `--dsn prod` can stand in
	// for a full connection string, mirroring teacher's
	// Config.Databases map.
	Databases map[string]string `yaml:"databases"`
}

// LoadProjectFile reads sqlscheduler.yaml from dir. A missing file is not
// an error: callers fall back to flags alone, unlike
// teacher's LoadConfig which treats a missing sqlcode.yaml as fatal,
// since here the project file is optional rather than the only
// configuration surface.
func LoadProjectFile(dir string) (ProjectFile, error) {
	path := filepath.Join(dir, "sqlscheduler.yaml")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ProjectFile{}, nil
	}
	if err != nil {
		return ProjectFile{}, err
	}

	var pf ProjectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return ProjectFile{}, err
	}
	return pf, nil
}

// ResolveDSN returns raw unchanged unless it names a key in databases, in
// which case the mapped DSN is returned.
func (pf ProjectFile) ResolveDSN(raw string) string {
	if dsn, ok := pf.Databases[raw]; ok {
		return dsn
	}
	return raw
}
