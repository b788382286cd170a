// Package scheduler drives a DAG of Tasks to completion against a
// pooled database connection, the way the teacher's deployable.go
// drives a Document's batches against a DB: acquire a connection,
// execute in sequence, translate a driver failure into a typed error.
// Concurrency across independent Tasks is new here — the teacher
// deploys its whole CodeBase serially in one transaction — and is
// grounded instead on the Postgres job-scheduler reference
// implementation's worker/ready-queue shape (§4.G's own citation).
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sqlscheduler/sqlscheduler/internal/assertrunner"
	"github.com/sqlscheduler/sqlscheduler/internal/config"
	"github.com/sqlscheduler/sqlscheduler/internal/dag"
	"github.com/sqlscheduler/sqlscheduler/internal/dbconn"
	"github.com/sqlscheduler/sqlscheduler/internal/pgscan"
	"github.com/sqlscheduler/sqlscheduler/internal/rewrite"
	"github.com/sqlscheduler/sqlscheduler/internal/sqlerr"
	"github.com/sqlscheduler/sqlscheduler/internal/task"
)

// Summary is the per-run tally reported after every Task has settled,
// mirroring the confirmation line the teacher's up.go prints at the end
// of a deploy.
type Summary struct {
	RunID     string
	Succeeded int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// Run drives every Task in g's execution set to completion, returning a
// Summary. A nil log defaults to logrus.StandardLogger(). A non-nil
// error is either a sqlerr.Cancelled (the run was interrupted; the
// returned Summary still reflects whatever settled before that point) or,
// in dev stage only, an error raised before any Task starts while taking
// the advisory lock on cfg.DevSchema: a sqlerr.LockError when another run
// holds it, or a wrapped error when the lock connection or query fails.
// Task-local failures are never bubbled up as a function error — they're
// reflected in the returned Summary and in each Task's own State/Cause,
// per §4.G/§7's fail-fast-without-aborting-siblings policy.
func Run(ctx context.Context, pool dbconn.Pool, g *dag.Graph, execSet map[task.ID]struct{}, cfg config.Config, log logrus.FieldLogger) (Summary, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	runID := uuid.New().String()
	log = log.WithField("run_id", runID)

	start := time.Now()

	if cfg.Stage == config.Dev {
		lockConn, err := acquireDevLock(ctx, pool, cfg.DevSchema)
		if err != nil {
			return Summary{RunID: runID}, err
		}
		log.WithField("dev_schema", cfg.DevSchema).Info("acquired dev advisory lock")
		defer releaseDevLock(context.Background(), lockConn, cfg.DevSchema)
	}

	s := &scheduler{
		pool:    pool,
		g:       g,
		execSet: execSet,
		cfg:     cfg,
		log:     log,
		waiting: make(map[task.ID]int, len(execSet)),
		ready:   make(chan task.ID, len(execSet)),
	}
	s.wg.Add(len(execSet))

	ids := make([]task.ID, 0, len(execSet))
	for id := range execSet {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	for _, id := range ids {
		n := 0
		for _, up := range g.Upstream[id] {
			if _, ok := execSet[up]; ok {
				n++
			}
		}
		s.waiting[id] = n
		if n == 0 {
			s.enqueue(id)
		}
	}

	grp, grpCtx := errgroup.WithContext(ctx)

	// dispatch launches one goroutine per Task pulled off the ready
	// queue; it exits once every Task has settled and no more ids will
	// ever arrive on s.ready.
	go func() {
		for id := range s.ready {
			id := id
			grp.Go(func() error {
				s.runOne(grpCtx, id)
				return nil
			})
		}
	}()

	allDone := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(allDone)
	}()

	select {
	case <-ctx.Done():
		s.cancelRemaining()
		_ = grp.Wait()
		close(s.ready)
		return s.summary(runID, start), sqlerr.Cancelled{}
	case <-allDone:
	}

	_ = grp.Wait()
	close(s.ready)
	return s.summary(runID, start), nil
}

// acquireDevLock takes a single Postgres advisory lock scoped to
// devSchema on one dedicated connection held for the whole dev-stage
// run, so two concurrent runs targeting the same dev schema serialize
// instead of racing on each Task's DROP/CREATE. Modeled on
// deployable.go's EnsureUploaded, which takes a named applock before
// touching a shared code schema, translated from that function's
// SQL-Server/Postgres dual `sqlcode.get_applock` RPC to Postgres's
// built-in pg_try_advisory_lock, keyed by hashtextextended(resource).
func acquireDevLock(ctx context.Context, pool dbconn.Pool, devSchema string) (dbconn.Conn, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire advisory lock connection: %w", err)
	}
	resource := "sqlscheduler/" + devSchema
	var got bool
	row := conn.QueryRow(ctx, "select pg_try_advisory_lock(hashtextextended(@resource, 0))", pgx.NamedArgs{"resource": resource})
	if err := row.Scan(&got); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !got {
		conn.Release()
		return nil, sqlerr.LockError{DevSchema: devSchema}
	}
	return conn, nil
}

// releaseDevLock releases the lock acquireDevLock took and returns its
// connection to the pool. Takes ctx.Background rather than the run's own
// ctx so the unlock still runs after a cancelled run's context is done.
func releaseDevLock(ctx context.Context, conn dbconn.Conn, devSchema string) {
	resource := "sqlscheduler/" + devSchema
	_, _ = conn.Exec(ctx, "select pg_advisory_unlock(hashtextextended(@resource, 0))", pgx.NamedArgs{"resource": resource})
	conn.Release()
}

type scheduler struct {
	pool    dbconn.Pool
	g       *dag.Graph
	execSet map[task.ID]struct{}
	cfg     config.Config
	log     logrus.FieldLogger

	wg      sync.WaitGroup
	mu      sync.Mutex
	waiting map[task.ID]int
	ready   chan task.ID
}

func (s *scheduler) enqueue(id task.ID) {
	t := s.g.Tasks[id]
	s.mu.Lock()
	t.State = task.Ready
	s.mu.Unlock()
	s.ready <- id
}

func (s *scheduler) summary(runID string, start time.Time) Summary {
	sum := Summary{RunID: runID, Duration: time.Since(start)}
	for id := range s.execSet {
		switch s.g.Tasks[id].State {
		case task.Success:
			sum.Succeeded++
		case task.Failed:
			sum.Failed++
		case task.Skipped:
			sum.Skipped++
		}
	}
	return sum
}

// cancelRemaining marks every Task that hasn't reached a terminal state
// as Failed with cause "cancelled", per §4.G's cancellation policy.
func (s *scheduler) cancelRemaining() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.execSet {
		t := s.g.Tasks[id]
		if !t.State.Terminal() {
			t.State = task.Failed
			t.Cause = "cancelled"
			s.wg.Done()
		}
	}
}

// runOne executes one Task's DDL, INSERT, and Tests serially on one
// acquired connection, then fans state out to downstream Tasks.
func (s *scheduler) runOne(ctx context.Context, id task.ID) {
	t := s.g.Tasks[id]
	log := s.log.WithField("task", id.String())

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		s.fail(t, log, fmt.Sprintf("acquire connection: %s", err))
		return
	}
	defer conn.Release()

	replace := map[task.ID]struct{}{}
	if s.cfg.Stage == config.Dev {
		replace = s.execSet
	}

	t.StartedAt = time.Now().UnixNano()

	s.transition(t, task.RunningDDL)
	ddlSQL := t.DDLSQL
	if s.cfg.Stage == config.Dev {
		rewritten, err := rewrite.Rewrite(pgscan.FileRef(id.String()+".ddl.sql"), t.DDLSQL, replace, s.cfg.DevSchema)
		if err != nil {
			s.fail(t, log, err.Error())
			return
		}
		ddlSQL = rewritten
	}
	log.WithField("state", task.RunningDDL).Info("executing ddl")
	if _, err := conn.Exec(ctx, ddlSQL); err != nil {
		s.fail(t, log, sqlerr.NewDDLError(id, err).Error())
		return
	}

	s.transition(t, task.RunningInsert)
	insertSQL := t.InsertSQL
	if s.cfg.Stage == config.Dev {
		rewritten, err := rewrite.Rewrite(pgscan.FileRef(id.String()+".insert.sql"), t.InsertSQL, replace, s.cfg.DevSchema)
		if err != nil {
			s.fail(t, log, err.Error())
			return
		}
		insertSQL = rewritten
	}
	log.WithField("state", task.RunningInsert).Info("executing insert")
	args := make([]any, len(t.Params))
	for i, p := range t.Params {
		args[i] = p
	}
	if _, err := conn.Exec(ctx, insertSQL, args...); err != nil {
		s.fail(t, log, sqlerr.NewInsertError(id, err).Error())
		return
	}

	s.transition(t, task.RunningTests)
	targetSchema, targetTable := id.Schema, id.Table
	if s.cfg.Stage == config.Dev {
		targetSchema = s.cfg.DevSchema
	}
	for _, d := range t.Tests {
		effective := d
		if s.cfg.Stage == config.Dev && d.Kind == task.Relationship {
			if _, ok := s.execSet[d.Foreign.TableID()]; ok {
				effective.Foreign.Schema = s.cfg.DevSchema
			}
		}
		log.WithField("state", task.RunningTests).WithField("directive", effective.String()).Info("running test")
		if err := assertrunner.Run(ctx, conn, id, targetSchema, targetTable, effective); err != nil {
			s.fail(t, log, err.Error())
			return
		}
	}

	t.FinishedAt = time.Now().UnixNano()
	s.transition(t, task.Success)
	log.Info("success")
	s.release(id)
	s.wg.Done()
}

func (s *scheduler) fail(t *task.Task, log logrus.FieldLogger, cause string) {
	s.mu.Lock()
	alreadySettled := t.State.Terminal()
	if !alreadySettled {
		t.State = task.Failed
		t.Cause = cause
		t.FinishedAt = time.Now().UnixNano()
	}
	s.mu.Unlock()
	if alreadySettled {
		// A concurrent cancellation already marked this Task terminal
		// (e.g. while it was blocked acquiring a connection); its
		// wg.Done and downstream skip already happened there.
		return
	}
	log.WithField("cause", cause).Error("task failed")
	s.wg.Done()
	s.skipDownstream(t.ID, t.ID)
}

// transition moves t to st unless t has already settled into a terminal
// state (e.g. a concurrent cancellation marked it Failed while this
// Task's own goroutine was mid-flight) — the same guard fail(),
// skipDownstream(), and release() apply, keeping §3's monotonic
// Pending -> Ready -> Running_* -> {Success|Failed|Skipped} invariant
// intact under cancellation races.
func (s *scheduler) transition(t *task.Task, st task.State) {
	s.mu.Lock()
	if !t.State.Terminal() {
		t.State = st
	}
	s.mu.Unlock()
}

// skipDownstream marks every transitive downstream Task of failedID as
// Skipped, with a cause naming the upstream Task that actually failed
// (originID, which equals failedID on the initial call and is threaded
// through recursive calls so every Skipped Task's cause names the root
// failure rather than its own immediate, possibly-already-Skipped,
// upstream).
func (s *scheduler) skipDownstream(failedID, originID task.ID) {
	for _, d := range s.g.Downstream[failedID] {
		if _, ok := s.execSet[d]; !ok {
			continue
		}
		dt := s.g.Tasks[d]
		s.mu.Lock()
		already := dt.State.Terminal()
		if !already {
			dt.State = task.Skipped
			dt.Cause = fmt.Sprintf("upstream %s failed", originID)
			dt.FinishedAt = time.Now().UnixNano()
		}
		s.mu.Unlock()
		if !already {
			s.log.WithField("task", d.String()).WithField("cause", dt.Cause).Warn("task skipped")
			s.wg.Done()
			s.skipDownstream(d, originID)
		}
	}
}

// release decrements the waiting counter of every downstream Task of id
// and enqueues any that reach zero, following §4.G step 4.
func (s *scheduler) release(id task.ID) {
	downs := append([]task.ID{}, s.g.Downstream[id]...)
	sort.Slice(downs, func(i, j int) bool { return downs[i].Less(downs[j]) })
	for _, d := range downs {
		if _, ok := s.execSet[d]; !ok {
			continue
		}
		s.mu.Lock()
		s.waiting[d]--
		n := s.waiting[d]
		dt := s.g.Tasks[d]
		terminal := dt.State.Terminal()
		s.mu.Unlock()
		if n == 0 && !terminal {
			s.enqueue(d)
		}
	}
}
