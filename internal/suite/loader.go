// Package suite discovers DDL/INSERT file pairs on disk (or in an
// in-memory fs.FS in tests) and builds the Task for each pair, the way
// the teacher's sqlparser.ParseFilesystems walks filesystems with
// fs.WalkDir and parses whatever it finds into a Document.
package suite

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/sqlscheduler/sqlscheduler/internal/directive"
	"github.com/sqlscheduler/sqlscheduler/internal/pgscan"
	"github.com/sqlscheduler/sqlscheduler/internal/sqlerr"
	"github.com/sqlscheduler/sqlscheduler/internal/sqlref"
	"github.com/sqlscheduler/sqlscheduler/internal/task"
)

const incrementalSentinel = "--sql-scheduler-incremental"

var filenameRegexp = regexp.MustCompile(`^([^.]+)\.([^.]+)\.sql$`)

// Load reads every *.sql file from ddlFS and insertFS, pairs them by
// filename stem, and returns one Task per pair. All problems found are
// collected and returned together as sqlerr.LoadErrors rather than
// stopping at the first one.
func Load(ddlFS, insertFS fs.FS) ([]*task.Task, error) {
	ddlFiles, ddlErrs := readSQLFiles(ddlFS)
	insertFiles, insertErrs := readSQLFiles(insertFS)

	var errs []sqlerr.LoadError
	errs = append(errs, ddlErrs...)
	errs = append(errs, insertErrs...)

	stems := make(map[string]struct{}, len(ddlFiles)+len(insertFiles))
	for stem := range ddlFiles {
		stems[stem] = struct{}{}
	}
	for stem := range insertFiles {
		stems[stem] = struct{}{}
	}

	ordered := make([]string, 0, len(stems))
	for stem := range stems {
		ordered = append(ordered, stem)
	}
	sort.Strings(ordered)

	var tasks []*task.Task
	for _, stem := range ordered {
		ddl, hasDDL := ddlFiles[stem]
		ins, hasInsert := insertFiles[stem]

		if !hasDDL {
			errs = append(errs, sqlerr.LoadError{File: ins.path, Message: fmt.Sprintf("%s has an INSERT script but no matching DDL script", stem)})
			continue
		}
		if !hasInsert {
			errs = append(errs, sqlerr.LoadError{File: ddl.path, Message: fmt.Sprintf("%s has a DDL script but no matching INSERT script", stem)})
			continue
		}

		id, err := idFromStem(stem)
		if err != nil {
			errs = append(errs, sqlerr.LoadError{File: ins.path, Message: err.Error()})
			continue
		}

		t, taskErrs := buildTask(id, ddl, ins)
		errs = append(errs, taskErrs...)
		if len(taskErrs) == 0 {
			tasks = append(tasks, t)
		}
	}

	if len(errs) > 0 {
		return nil, sqlerr.LoadErrors{Errors: errs}
	}
	return tasks, nil
}

type sqlFile struct {
	path    string
	content string
}

func readSQLFiles(fsys fs.FS) (map[string]sqlFile, []sqlerr.LoadError) {
	files := make(map[string]sqlFile)
	var errs []sqlerr.LoadError

	_ = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".sql" {
			return nil
		}

		buf, err := fs.ReadFile(fsys, path)
		if err != nil {
			errs = append(errs, sqlerr.LoadError{File: path, Message: err.Error()})
			return nil
		}

		stem := strings.TrimSuffix(filepath.Base(path), ".sql")
		if _, exists := files[stem]; exists {
			errs = append(errs, sqlerr.LoadError{File: path, Message: fmt.Sprintf("duplicate file for %s", stem)})
			return nil
		}
		files[stem] = sqlFile{path: path, content: string(buf)}
		return nil
	})

	return files, errs
}

func idFromStem(stem string) (task.ID, error) {
	m := filenameRegexp.FindStringSubmatch(stem + ".sql")
	if m == nil {
		return task.ID{}, fmt.Errorf("filename %q does not match <schema>.<table>.sql", stem)
	}
	return task.ID{Schema: m[1], Table: m[2]}, nil
}

func buildTask(id task.ID, ddl, ins sqlFile) (*task.Task, []sqlerr.LoadError) {
	var errs []sqlerr.LoadError

	refs, err := sqlref.Extract(pgscan.FileRef(ins.path), ins.content)
	if err != nil {
		errs = append(errs, sqlerr.LoadError{File: ins.path, Message: err.Error()})
	}

	for _, w := range refs.Writes {
		if w != id {
			errs = append(errs, sqlerr.LoadError{
				File:    ins.path,
				Message: fmt.Sprintf("INSERT script writes %s, expected %s (derived from filename)", w, id),
			})
		}
	}

	tests, err := directive.Parse(pgscan.FileRef(ins.path), ins.content)
	if err != nil {
		errs = append(errs, sqlerr.LoadError{File: ins.path, Message: err.Error()})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	t := &task.Task{
		ID:            id,
		DDLSQL:        ddl.content,
		InsertSQL:     ins.content,
		Reads:         refs.Reads,
		Tests:         tests,
		IsIncremental: isIncremental(ins.content),
		State:         task.Pending,
	}
	return t, nil
}

// isIncremental reports whether --sql-scheduler-incremental appears on
// a line comment before any other statement in the script.
func isIncremental(sql string) bool {
	s := pgscan.NewScanner("", sql)
	for {
		tt := s.NextToken()
		switch tt {
		case pgscan.WhitespaceToken:
			continue
		case pgscan.SinglelineCommentToken:
			if strings.TrimSpace(strings.TrimPrefix(s.Token(), "--")) == strings.TrimPrefix(incrementalSentinel, "--") {
				return true
			}
			continue
		case pgscan.MultilineCommentToken:
			continue
		default:
			return false
		}
	}
}
