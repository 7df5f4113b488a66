package generator

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Aman-CERP/gocontract/internal/annotate"
	cerrors "github.com/Aman-CERP/gocontract/internal/errors"
)

// FileReport is the outcome for one source file.
type FileReport struct {
	Path    string
	Package string
	Changes []annotate.Change

	// Changed reports that the file's guards were not in sync. Written
	// reports that the new content reached disk.
	Changed bool
	Written bool

	// Cached reports that the file was skipped as known to be in sync.
	Cached bool
}

// Report summarizes a generator run.
type Report struct {
	Packages     int
	FilesScanned int
	FilesChanged int
	FilesWritten int
	FilesCached  int
	Inserted     int
	Updated      int
	Removed      int
	BytesWritten int64
	Duration     time.Duration

	// Files lists every file that had changes, in package then file order.
	Files []FileReport

	// Diagnostics holds all build-time errors, sorted by position.
	Diagnostics []error
}

func (r *Report) addFile(fr FileReport, written int) {
	r.FilesScanned++
	if fr.Cached {
		r.FilesCached++
	}
	if !fr.Changed {
		return
	}
	r.FilesChanged++
	if fr.Written {
		r.FilesWritten++
		r.BytesWritten += int64(written)
	}
	for _, c := range fr.Changes {
		switch c.Kind {
		case annotate.ChangeInsert:
			r.Inserted++
		case annotate.ChangeUpdate:
			r.Updated++
		case annotate.ChangeRemove:
			r.Removed++
		}
	}
	r.Files = append(r.Files, fr)
}

func (r *Report) merge(o *Report) {
	r.Packages += o.Packages
	r.FilesScanned += o.FilesScanned
	r.FilesChanged += o.FilesChanged
	r.FilesWritten += o.FilesWritten
	r.FilesCached += o.FilesCached
	r.Inserted += o.Inserted
	r.Updated += o.Updated
	r.Removed += o.Removed
	r.BytesWritten += o.BytesWritten
	r.Files = append(r.Files, o.Files...)
	r.Diagnostics = append(r.Diagnostics, o.Diagnostics...)
}

// Err joins the diagnostics; nil when there are none.
func (r *Report) Err() error {
	return errors.Join(r.Diagnostics...)
}

// OK reports whether the run produced no diagnostics.
func (r *Report) OK() bool {
	return len(r.Diagnostics) == 0
}

// Summary is a one-line description of the run.
func (r *Report) Summary() string {
	s := fmt.Sprintf("%d %s in %d %s scanned, %d changed",
		r.FilesScanned, plural(r.FilesScanned, "file", "files"),
		r.Packages, plural(r.Packages, "package", "packages"),
		r.FilesChanged)
	if r.Inserted+r.Updated+r.Removed > 0 {
		s += fmt.Sprintf(" (guards: +%d ~%d -%d)", r.Inserted, r.Updated, r.Removed)
	}
	if r.FilesWritten > 0 {
		s += ", wrote " + humanize.Bytes(uint64(r.BytesWritten))
	}
	if len(r.Diagnostics) > 0 {
		s += fmt.Sprintf(", %d %s", len(r.Diagnostics), plural(len(r.Diagnostics), "error", "errors"))
	}
	return s
}

func (r *Report) sortDiagnostics() {
	cerrors.SortByPosition(r.Diagnostics)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
