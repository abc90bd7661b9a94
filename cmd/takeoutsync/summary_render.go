package main

import (
	"fmt"
	"io"
	"strings"

	"takeoutsync/internal/reconcile"
)

const maxListedItems = 20

func renderSummary(out io.Writer, s *reconcile.Summary, whatIf bool) {
	if s == nil {
		return
	}
	status := newStatusWriter(out)
	status.heading("Run " + s.RunID)

	rows := [][]string{
		{"Albums", fmt.Sprint(s.Albums)},
		{"Items", fmt.Sprint(s.Items)},
		{"Bound", fmt.Sprint(s.Bound)},
		{"Absent", fmt.Sprint(s.Absent)},
		{"Unresolved", fmt.Sprint(len(s.Unresolved))},
		{"Ambiguous", fmt.Sprint(len(s.Ambiguous))},
		{"Duplicates dropped", fmt.Sprint(s.Dropped)},
		{"Albums skipped", fmt.Sprint(len(s.Failures))},
	}
	if s.Final != "" {
		rows = append(rows,
			[]string{"Albums organized", fmt.Sprint(s.Organize.Albums)},
			[]string{"Items added", fmt.Sprint(s.Organize.Added)},
			[]string{"Items imported", fmt.Sprint(s.Organize.Imported)},
			[]string{"Items skipped", fmt.Sprint(s.Organize.Skipped)},
		)
	}
	fmt.Fprintln(out, renderKeyValues(rows))

	if whatIf && s.Final != "" {
		status.line(outcomeNote, "Destination", "what-if; no changes were made (use --apply)")
	}
	if s.Output != "" {
		status.line(outcomePass, "Library dump", s.Output)
	}
	if s.Final != "" {
		status.line(outcomePass, "Final state", s.Final)
	}
	for _, f := range s.Failures {
		status.line(outcomeWarn, "Skipped album", fmt.Sprintf("%s: %s", f.Album, f.Error))
	}
	if len(s.Remaining) > 0 {
		status.line(outcomeWarn, "Unrecognized files", fmt.Sprint(len(s.Remaining)))
	}
	if len(s.Ambiguous) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Ambiguous items (not bound):")
		rows := make([][]string, 0, len(s.Ambiguous))
		for _, ref := range limitRefs(s.Ambiguous) {
			rows = append(rows, []string{ref.Album, ref.Path, strings.Join(ref.Candidates, ", ")})
		}
		fmt.Fprintln(out, renderTable([]string{"Album", "Path", "Candidates"}, rows, nil))
		moreLine(out, len(s.Ambiguous))
	}
	if len(s.Unresolved) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Unresolved items:")
		rows := make([][]string, 0, len(s.Unresolved))
		for _, ref := range limitRefs(s.Unresolved) {
			rows = append(rows, []string{ref.Album, ref.Path})
		}
		fmt.Fprintln(out, renderTable([]string{"Album", "Path"}, rows, nil))
		moreLine(out, len(s.Unresolved))
	}
	if s.Fatal != "" {
		status.blank()
		status.line(outcomeFail, "Run stopped", s.Fatal)
	}
}

func limitRefs(refs []reconcile.ItemRef) []reconcile.ItemRef {
	if len(refs) > maxListedItems {
		return refs[:maxListedItems]
	}
	return refs
}

func moreLine(out io.Writer, total int) {
	if total > maxListedItems {
		fmt.Fprintf(out, "... and %d more (see --json)\n", total-maxListedItems)
	}
}
