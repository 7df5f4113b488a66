package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/gocontract/internal/annotate"
	cerrors "github.com/Aman-CERP/gocontract/internal/errors"
	"github.com/Aman-CERP/gocontract/internal/generator"
)

// FileState describes what happened to a changed file, for example
// "written", "out of date" or "would change".
type FileState string

const (
	StateWritten     FileState = "written"
	StateOutOfDate   FileState = "out of date"
	StateWouldChange FileState = "would change"
)

// Report prints the changed files, their guard edits, all diagnostics and
// a summary line. state labels every changed file.
func (w *Writer) Report(r *generator.Report, state FileState) {
	for _, f := range r.Files {
		if !f.Changed {
			continue
		}
		_, _ = fmt.Fprintf(w.out, "%s %s\n",
			w.styles.Path.Render(w.rel(f.Path)),
			w.styles.Label.Render("("+string(state)+")"))
		for _, c := range f.Changes {
			_, _ = fmt.Fprintf(w.out, "  %s %s %s\n",
				w.changeMark(c.Kind),
				c.Method,
				w.styles.Dim.Render(fmt.Sprintf("requires %s, line %d", c.Predicate, c.Pos.Line)))
		}
	}

	w.Diagnostics(r.Diagnostics)

	if r.OK() {
		w.Success(r.Summary())
	} else {
		w.Error(r.Summary())
	}
}

func (w *Writer) changeMark(kind annotate.ChangeKind) string {
	switch kind {
	case annotate.ChangeInsert:
		return w.styles.Success.Render("+")
	case annotate.ChangeRemove:
		return w.styles.Error.Render("-")
	default:
		return w.styles.Warning.Render("~")
	}
}

// Diagnostics prints each error in CLI form with paths shortened.
func (w *Writer) Diagnostics(errs []error) {
	for _, err := range errs {
		var ge *cerrors.GenError
		if errors.As(err, &ge) && ge.Position.IsValid() {
			short := *ge
			short.Position.Filename = w.rel(ge.Position.Filename)
			err = &short
		}
		for _, line := range strings.Split(strings.TrimRight(cerrors.FormatForCLI(err), "\n"), "\n") {
			_, _ = fmt.Fprintln(w.out, w.styles.Error.Render(line))
		}
	}
}

// Methods prints annotated methods as an aligned table.
func (w *Writer) Methods(methods []generator.MethodInfo) {
	if len(methods) == 0 {
		w.Status("", "no annotated methods")
		return
	}

	rows := [][]string{{"LOCATION", "METHOD", "PREDICATE", "GUARD"}}
	for _, m := range methods {
		rows = append(rows, []string{
			fmt.Sprintf("%s:%d", w.rel(m.File), m.Line),
			m.Method,
			m.Predicate,
			guardState(m),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	for i, row := range rows {
		var sb strings.Builder
		for j, cell := range row {
			if j > 0 {
				sb.WriteString("  ")
			}
			if j < len(row)-1 {
				cell += strings.Repeat(" ", widths[j]-lipgloss.Width(cell))
			}
			sb.WriteString(cell)
		}
		line := sb.String()
		if i == 0 {
			line = w.styles.Header.Render(line)
		}
		_, _ = fmt.Fprintln(w.out, line)
	}
}

func guardState(m generator.MethodInfo) string {
	switch {
	case m.InSync:
		return "ok"
	case m.Guarded:
		return "stale"
	default:
		return "missing"
	}
}
