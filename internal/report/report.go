// Package report renders benchmark runs, statistics and the catalog as
// aligned plain-text tables for the command line.
package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/seantiz/tempo/internal/model"
	"github.com/seantiz/tempo/internal/registry"
	"github.com/seantiz/tempo/internal/store"
)

const maxErrorWidth = 60

// Summary counts runs by status.
type Summary struct {
	Total   int
	Success int
	Timeout int
	Failure int
	Other   int
}

// Summarize counts runs by status. Nil entries are skipped.
func Summarize(runs []*model.Run) Summary {
	var s Summary
	for _, r := range runs {
		if r == nil {
			continue
		}
		s.Total++
		switch r.Status {
		case model.StatusSuccess:
			s.Success++
		case model.StatusTimeout:
			s.Timeout++
		case model.StatusFailure:
			s.Failure++
		default:
			s.Other++
		}
	}
	return s
}

// OK reports whether every counted run succeeded.
func (s Summary) OK() bool {
	return s.Success == s.Total
}

func (s Summary) String() string {
	out := fmt.Sprintf("%d runs: %d success, %d timeout, %d failure", s.Total, s.Success, s.Timeout, s.Failure)
	if s.Other > 0 {
		out += fmt.Sprintf(", %d unfinished", s.Other)
	}
	return out
}

// Runs writes one line per run followed by a summary line.
func Runs(w io.Writer, runs []*model.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tIDX\tOUTCOME\tTIME\tERROR")
	for _, r := range runs {
		if r == nil {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", r.Name, r.Index, r.Status, runTime(r), firstLine(r.Error))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, Summarize(runs))
	return err
}

// runTime is the measured duration for successes and the deadline otherwise.
func runTime(r *model.Run) string {
	switch {
	case r.DurationS != nil:
		return FormatDuration(seconds(*r.DurationS))
	case r.Status == model.StatusTimeout:
		return ">" + FormatDuration(seconds(r.TimeoutS))
	default:
		return "-"
	}
}

// Stats writes aggregate run statistics.
func Stats(w io.Writer, st *store.RunStats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "total\t%d\n", st.Total)
	for _, status := range []string{
		model.StatusPending, model.StatusRunning,
		model.StatusSuccess, model.StatusTimeout, model.StatusFailure,
	} {
		if n := st.CountByStatus[status]; n > 0 {
			fmt.Fprintf(tw, "%s\t%d\n", status, n)
		}
	}
	fmt.Fprintf(tw, "mean success\t%s\n", FormatDuration(seconds(st.MeanSuccessS)))
	for _, name := range slices.Sorted(maps.Keys(st.CountByWorkload)) {
		fmt.Fprintf(tw, "workload %s\t%d\n", name, st.CountByWorkload[name])
	}
	return tw.Flush()
}

// Catalog writes the registered workloads and environments.
func Catalog(w io.Writer, cat registry.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tDESCRIPTION")
	for _, info := range cat.Workloads {
		fmt.Fprintf(tw, "workload\t%s\t%s\n", info.Name, info.Description)
	}
	for _, info := range cat.Environments {
		fmt.Fprintf(tw, "environment\t%s\t%s\n", info.Name, info.Description)
	}
	return tw.Flush()
}

// FormatDuration renders d in the largest of ns, µs, ms and s that keeps
// the value at or above one.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(s, "\n")
	if len(s) > maxErrorWidth {
		s = s[:maxErrorWidth-3] + "..."
	}
	return s
}
