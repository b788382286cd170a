package cliapp

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sqlscheduler/sqlscheduler/internal/task"
)

// depCmd prints the suite's dependency graph without executing
// anything, mirroring the teacher's dep.go: one entry per discovered
// unit of work followed by what it depends on.
var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Print the suite's DAG: every task with its upstream and downstream",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			_ = cmd.Help()
			return &ExitError{Code: 1, Err: fmt.Errorf("too many arguments")}
		}

		cfg, err := buildConfig()
		if err != nil {
			return err
		}

		g, err := loadGraph(cfg)
		if err != nil {
			return err
		}

		ids := make([]task.ID, 0, len(g.Tasks))
		for id := range g.Tasks {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

		for _, id := range ids {
			fmt.Println(id.String() + ":")
			if ups := g.Upstream[id]; len(ups) > 0 {
				fmt.Println("  depends on:")
				for _, u := range ups {
					fmt.Println("    " + u.String())
				}
			}
			if downs := g.Downstream[id]; len(downs) > 0 {
				fmt.Println("  feeds:")
				for _, d := range downs {
					fmt.Println("    " + d.String())
				}
			}
			t := g.Tasks[id]
			if len(t.Tests) > 0 {
				fmt.Println("  tests:")
				for _, d := range t.Tests {
					fmt.Println("    " + d.String())
				}
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(depCmd)
}
