package watcher

import (
	"path"
	"path/filepath"
	"sort"
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file was deleted.
	OpDelete
	// OpRename indicates a file was renamed away.
	OpRename
	// OpConfigChange indicates the contractgen config file changed. The
	// consumer reloads configuration before regenerating.
	OpConfigChange
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	case OpConfigChange:
		return "CONFIG_CHANGE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a file system event.
type FileEvent struct {
	// Path is the slash-separated path relative to the watched root.
	Path string

	// Operation is the type of file system operation.
	Operation Operation

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the quiet period before a batch is emitted.
	// Default: 200ms
	DebounceWindow time.Duration

	// EventBufferSize is the number of batches buffered for the consumer.
	// Default: 64
	EventBufferSize int

	// Exclude holds glob patterns; a path is skipped when a pattern matches
	// its root-relative slash path or its base name.
	Exclude []string

	// ConfigNames are base names reported as OpConfigChange.
	ConfigNames []string
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  200 * time.Millisecond,
		EventBufferSize: 64,
		ConfigNames:     []string{".contractgen.yaml", ".contractgen.yml"},
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow == 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	if o.ConfigNames == nil {
		o.ConfigNames = defaults.ConfigNames
	}
	return o
}

// Dirs returns the absolute directories of the Go files in batch, sorted and
// without duplicates. Config changes are not included.
func Dirs(root string, batch []FileEvent) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, e := range batch {
		if e.Operation == OpConfigChange {
			continue
		}
		dir := filepath.Join(root, filepath.FromSlash(path.Dir(e.Path)))
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}

// HasConfigChange reports whether batch contains a config change.
func HasConfigChange(batch []FileEvent) bool {
	for _, e := range batch {
		if e.Operation == OpConfigChange {
			return true
		}
	}
	return false
}
