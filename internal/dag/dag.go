// Package dag links Tasks by their read/write sets into a dependency
// graph, detects cycles, and computes the execution set a run will
// actually schedule. Cycle detection follows the teacher's
// topological_sort.go — a depth-first scan with a visiting/visited
// table — generalized to keep scanning after a cycle is found so every
// cycle in the suite is reported, not just the first.
package dag

import (
	"sort"

	"github.com/sqlscheduler/sqlscheduler/internal/sqlerr"
	"github.com/sqlscheduler/sqlscheduler/internal/task"
)

// Graph is the full suite linked into upstream/downstream adjacency.
// Only edges between Tasks present in the suite are recorded; a read of
// a table outside the suite stays on the Task itself but has no edge
// here (§3: "References to tables not present in the suite ... carry no
// edge").
type Graph struct {
	Tasks      map[task.ID]*task.Task
	Upstream   map[task.ID][]task.ID
	Downstream map[task.ID][]task.ID
}

// Build links tasks into a Graph. It does not validate acyclicity;
// call DetectCycles separately so the validator can run before any
// Task executes.
func Build(tasks []*task.Task) *Graph {
	g := &Graph{
		Tasks:      make(map[task.ID]*task.Task, len(tasks)),
		Upstream:   make(map[task.ID][]task.ID, len(tasks)),
		Downstream: make(map[task.ID][]task.ID, len(tasks)),
	}
	for _, t := range tasks {
		g.Tasks[t.ID] = t
	}
	for _, t := range tasks {
		var ups []task.ID
		for r := range t.Reads {
			if _, ok := g.Tasks[r]; ok {
				ups = append(ups, r)
			}
		}
		sort.Slice(ups, func(i, j int) bool { return ups[i].Less(ups[j]) })
		g.Upstream[t.ID] = ups
		for _, u := range ups {
			g.Downstream[u] = append(g.Downstream[u], t.ID)
		}
	}
	for id := range g.Downstream {
		ds := g.Downstream[id]
		sort.Slice(ds, func(i, j int) bool { return ds[i].Less(ds[j]) })
	}
	return g
}

// DetectCycles returns every cycle in the graph, each as an ordered list
// of ids that starts and ends at the same Task. Returns nil if the
// graph is acyclic.
func (g *Graph) DetectCycles() [][]task.ID {
	ids := g.sortedIDs()

	visiting := make(map[task.ID]int)
	visited := make(map[task.ID]bool)
	var stack []task.ID
	var cycles [][]task.ID

	var visit func(id task.ID)
	visit = func(id task.ID) {
		if visited[id] {
			return
		}
		visiting[id] = len(stack)
		stack = append(stack, id)

		for _, dep := range g.Upstream[id] {
			if idx, onStack := visiting[dep]; onStack {
				cycle := append([]task.ID{}, stack[idx:]...)
				cycle = append(cycle, dep)
				cycles = append(cycles, cycle)
				continue
			}
			if !visited[dep] {
				visit(dep)
			}
		}

		stack = stack[:len(stack)-1]
		delete(visiting, id)
		visited[id] = true
	}

	for _, id := range ids {
		visit(id)
	}
	return cycles
}

// Validate returns a sqlerr.CycleError if the graph has any cycle.
func (g *Graph) Validate() error {
	if cycles := g.DetectCycles(); len(cycles) > 0 {
		return sqlerr.CycleError{Cycles: cycles}
	}
	return nil
}

// ExecutionSet computes which Tasks a run actually schedules. An empty
// targets list means the whole suite. If includeDependencies is set, the
// result also contains the transitive upstream closure of targets within
// the suite.
func (g *Graph) ExecutionSet(targets []task.ID, includeDependencies bool) (map[task.ID]struct{}, error) {
	if len(targets) == 0 {
		all := make(map[task.ID]struct{}, len(g.Tasks))
		for id := range g.Tasks {
			all[id] = struct{}{}
		}
		return all, nil
	}

	set := make(map[task.ID]struct{}, len(targets))
	for _, id := range targets {
		if _, ok := g.Tasks[id]; !ok {
			return nil, sqlerr.ConfigError{Message: "target " + id.String() + " is not in the suite"}
		}
		set[id] = struct{}{}
	}
	if !includeDependencies {
		return set, nil
	}

	var visit func(id task.ID)
	visit = func(id task.ID) {
		for _, up := range g.Upstream[id] {
			if _, ok := set[up]; ok {
				continue
			}
			set[up] = struct{}{}
			visit(up)
		}
	}
	for _, id := range targets {
		visit(id)
	}
	return set, nil
}

func (g *Graph) sortedIDs() []task.ID {
	ids := make([]task.ID, 0, len(g.Tasks))
	for id := range g.Tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}
