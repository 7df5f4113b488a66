package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, d *Debouncer) []FileEvent {
	t.Helper()
	select {
	case events := <-d.Output():
		return events
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for debounced batch")
		return nil
	}
}

func expectNothing(t *testing.T, d *Debouncer, wait time.Duration) {
	t.Helper()
	select {
	case events := <-d.Output():
		t.Fatalf("expected no batch, got %v", events)
	case <-time.After(wait):
	}
}

func TestDebouncer_SingleEvent_PassesThrough(t *testing.T) {
	// Given: a debouncer with a short window
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	// When: one event is added
	d.Add(FileEvent{Path: "counter.go", Operation: OpModify, Timestamp: time.Now()})

	// Then: it comes out unchanged after the window
	events := receive(t, d)
	require.Len(t, events, 1)
	assert.Equal(t, "counter.go", events[0].Path)
	assert.Equal(t, OpModify, events[0].Operation)
}

func TestDebouncer_Coalesces(t *testing.T) {
	tests := []struct {
		name string
		ops  []Operation
		want []Operation
	}{
		{"repeated saves", []Operation{OpModify, OpModify, OpModify}, []Operation{OpModify}},
		{"create then modify", []Operation{OpCreate, OpModify}, []Operation{OpCreate}},
		{"modify then delete", []Operation{OpModify, OpDelete}, []Operation{OpDelete}},
		{"delete then create", []Operation{OpDelete, OpCreate}, []Operation{OpModify}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDebouncer(30 * time.Millisecond)
			defer d.Stop()

			for _, op := range tt.ops {
				d.Add(FileEvent{Path: "a.go", Operation: op, Timestamp: time.Now()})
			}

			events := receive(t, d)
			got := make([]Operation, 0, len(events))
			for _, e := range events {
				got = append(got, e.Operation)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDebouncer_CreateThenDelete_NoEvent(t *testing.T) {
	// Given: an editor temp file that appears and disappears
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	// When: it is created and deleted inside one window
	d.Add(FileEvent{Path: "tmp.go", Operation: OpCreate, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "tmp.go", Operation: OpDelete, Timestamp: time.Now()})

	// Then: nothing is emitted
	expectNothing(t, d, 150*time.Millisecond)
}

func TestDebouncer_Batch_SortedByPath(t *testing.T) {
	// Given: events for several files in arbitrary order
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	for _, p := range []string{"z/z.go", "a.go", "m/m.go"} {
		d.Add(FileEvent{Path: p, Operation: OpModify, Timestamp: time.Now()})
	}

	// Then: one batch, sorted
	events := receive(t, d)
	require.Len(t, events, 3)
	assert.Equal(t, "a.go", events[0].Path)
	assert.Equal(t, "m/m.go", events[1].Path)
	assert.Equal(t, "z/z.go", events[2].Path)
}

func TestDebouncer_WindowRestartsOnEvent(t *testing.T) {
	// Given: a debouncer with a 80ms window
	d := NewDebouncer(80 * time.Millisecond)
	defer d.Stop()

	// When: events keep arriving faster than the window
	start := time.Now()
	for i := 0; i < 4; i++ {
		d.Add(FileEvent{Path: "a.go", Operation: OpModify, Timestamp: time.Now()})
		time.Sleep(30 * time.Millisecond)
	}

	// Then: the batch arrives only after the burst settles
	receive(t, d)
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestDebouncer_Stop_ClosesOutput(t *testing.T) {
	// Given: a debouncer with a pending event
	d := NewDebouncer(time.Hour)
	d.Add(FileEvent{Path: "a.go", Operation: OpModify, Timestamp: time.Now()})

	// When: stopped twice
	d.Stop()
	d.Stop()

	// Then: output is closed and later adds are ignored
	_, ok := <-d.Output()
	assert.False(t, ok)
	d.Add(FileEvent{Path: "b.go", Operation: OpModify, Timestamp: time.Now()})
}
