package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `{"time":"2026-01-02T10:00:00.000Z","level":"DEBUG","msg":"loading packages","patterns":"./..."}
{"time":"2026-01-02T10:00:01.000Z","level":"INFO","msg":"rewrote file","path":"counter.go","inserted":1}
not json at all
{"time":"2026-01-02T10:00:02.500Z","level":"ERROR","msg":"contract violation","method":"(*Counter).Increment","predicate":"Valid"}
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contractgen.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestViewer_Tail_LastLines(t *testing.T) {
	// Given: a log with four lines
	path := writeLog(t, sampleLog)
	v := NewViewer(ViewerConfig{NoColor: true}, &bytes.Buffer{})

	// When: tailing the last two
	entries, err := v.Tail(path, 2)

	// Then: the non-JSON line and the error entry come back in order
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].Valid)
	assert.Equal(t, "contract violation", entries[1].Msg)
	assert.Equal(t, "Valid", entries[1].Attrs["predicate"])
}

func TestViewer_Tail_LevelFilter(t *testing.T) {
	path := writeLog(t, sampleLog)
	v := NewViewer(ViewerConfig{Level: "info", NoColor: true}, &bytes.Buffer{})

	entries, err := v.Tail(path, 10)
	require.NoError(t, err)

	// Debug is hidden; the raw line has no level and is kept.
	var msgs []string
	for _, e := range entries {
		msgs = append(msgs, e.Msg)
	}
	assert.Equal(t, []string{"rewrote file", "", "contract violation"}, msgs)
}

func TestViewer_Tail_PatternFilter(t *testing.T) {
	path := writeLog(t, sampleLog)
	v := NewViewer(ViewerConfig{Pattern: regexp.MustCompile(`counter\.go`), NoColor: true}, &bytes.Buffer{})

	entries, err := v.Tail(path, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "rewrote file", entries[0].Msg)
}

func TestViewer_Tail_MissingFile(t *testing.T) {
	v := NewViewer(ViewerConfig{}, &bytes.Buffer{})

	_, err := v.Tail(filepath.Join(t.TempDir(), "absent.log"), 10)
	assert.Error(t, err)
}

func TestViewer_FormatEntry(t *testing.T) {
	v := NewViewer(ViewerConfig{NoColor: true}, &bytes.Buffer{})

	entry := parseLine(`{"time":"2026-01-02T10:00:01.250Z","level":"INFO","msg":"rewrote file","path":"counter.go","inserted":1}`)
	got := v.FormatEntry(entry)

	// Attributes are sorted by key.
	assert.Equal(t, "10:00:01.250 INFO  rewrote file inserted=1 path=counter.go", got)
}

func TestViewer_FormatEntry_RawLine(t *testing.T) {
	v := NewViewer(ViewerConfig{NoColor: true}, &bytes.Buffer{})

	assert.Equal(t, "panic: boom", v.FormatEntry(parseLine("panic: boom")))
}

func TestViewer_Print(t *testing.T) {
	var buf bytes.Buffer
	path := writeLog(t, sampleLog)
	v := NewViewer(ViewerConfig{Level: "error", NoColor: true}, &buf)

	entries, err := v.Tail(path, 10)
	require.NoError(t, err)
	v.Print(entries)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "not json at all", lines[0])
	assert.Contains(t, lines[1], "ERROR contract violation method=(*Counter).Increment")
}

func TestViewer_Follow(t *testing.T) {
	// Given: a log with existing content
	path := writeLog(t, sampleLog)
	v := NewViewer(ViewerConfig{NoColor: true}, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	entries := make(chan LogEntry, 4)
	done := make(chan error, 1)
	go func() { done <- v.Follow(ctx, path, entries) }()

	// When: a line is appended after following starts
	time.Sleep(150 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"time":"2026-01-02T10:00:03Z","level":"INFO","msg":"watch batch"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Then: only the new entry is delivered
	select {
	case e := <-entries:
		assert.Equal(t, "watch batch", e.Msg)
	case <-time.After(2 * time.Second):
		t.Fatal("no entry followed")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}
