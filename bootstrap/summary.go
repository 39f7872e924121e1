package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kbukum/profilewizard/component"
)

var statusMarks = map[component.HealthStatus]string{
	component.StatusHealthy:   "ok  ",
	component.StatusDegraded:  "warn",
	component.StatusUnhealthy: "FAIL",
}

// writeSummary prints what started, with its configuration line and health.
func writeSummary(ctx context.Context, w io.Writer, name, version string, took time.Duration, reg *component.Registry) {
	fmt.Fprintf(w, "\n%s", name)
	if version != "" {
		fmt.Fprintf(w, " v%s", version)
	}
	fmt.Fprintf(w, " started in %s\n", took.Round(time.Millisecond))

	descs := reg.Describe()
	if len(descs) > 0 {
		fmt.Fprintf(w, "\ncomponents:\n")
		for i, d := range descs {
			fmt.Fprintf(w, "  %s %s [%s]", branch(i, len(descs)), d.Name, d.Type)
			if d.Details != "" {
				fmt.Fprintf(w, " %s", d.Details)
			}
			fmt.Fprintln(w)
		}
	}

	results := reg.HealthAll(ctx)
	if len(results) > 0 {
		fmt.Fprintf(w, "\nhealth:\n")
		for i, h := range results {
			mark, ok := statusMarks[h.Status]
			if !ok {
				mark = "?   "
			}
			fmt.Fprintf(w, "  %s %s %s: %s", branch(i, len(results)), mark, h.Name, h.Status)
			if h.Message != "" {
				fmt.Fprintf(w, " (%s)", h.Message)
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w)
}

func branch(i, n int) string {
	if i == n-1 {
		return "`--"
	}
	return "|--"
}
