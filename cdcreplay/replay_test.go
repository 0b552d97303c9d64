package cdcreplay

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"cdcset/cdcset"
	"cdcset/cdcsink"
)

func TestReplayReproducesAppendedFrames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.cdclog")

	log, err := cdcsink.Open[int](path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var ids []uuid.UUID
	batches := [][]cdcset.Event[int]{
		{{Kind: cdcset.InsertNode, NodeMax: 1, Contents: []int{1}}},
		{{Kind: cdcset.InsertAt, NodeMax: 5, Element: 5}},
		{{Kind: cdcset.RemoveAt, NodeMax: 5, Element: 3}},
	}
	for _, batch := range batches {
		id := uuid.New()
		ids = append(ids, id)
		if _, err := log.Append(id, batch); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var got []cdcsink.Frame[int]
	err = Replay[int](path, func(f cdcsink.Frame[int]) error {
		got = append(got, f)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	if len(got) != len(batches) {
		t.Fatalf("Replay visited %d frames, want %d", len(got), len(batches))
	}
	for i, frame := range got {
		if frame.ID != ids[i] {
			t.Fatalf("frame %d id = %s, want %s", i, frame.ID, ids[i])
		}
		if len(frame.Events) != len(batches[i]) {
			t.Fatalf("frame %d has %d events, want %d", i, len(frame.Events), len(batches[i]))
		}
		if frame.Events[0].Kind != batches[i][0].Kind {
			t.Fatalf("frame %d event kind = %v, want %v", i, frame.Events[0].Kind, batches[i][0].Kind)
		}
	}
}

func TestTailLinesReturnsMostRecentFirst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.cdclog")

	log, err := cdcsink.Open[int](path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var offsets []int64
	for i := 0; i < 5; i++ {
		offset, err := log.Append(uuid.New(), []cdcset.Event[int]{{Kind: cdcset.InsertAt, NodeMax: i, Element: i}})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		offsets = append(offsets, offset)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines, err := TailLines(log.AuditPath(), 2)
	if err != nil {
		t.Fatalf("TailLines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("TailLines(_, 2) returned %d lines, want 2", len(lines))
	}
	// Each audit line starts with its frame's offset.
	for i, want := range []int64{offsets[4], offsets[3]} {
		if !strings.HasPrefix(lines[i], fmt.Sprintf("%d ", want)) {
			t.Fatalf("TailLines(_, 2)[%d] = %q, want the line for the frame at offset %d", i, lines[i], want)
		}
	}
}

func TestSnapshotCopiesDirectory(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "snapshot")

	path := filepath.Join(src, "events.cdclog")
	log, err := cdcsink.Open[int](path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := log.Append(uuid.New(), []cdcset.Event[int]{{Kind: cdcset.InsertAt, NodeMax: 1, Element: 1}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := Snapshot(src, dst); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if err := Replay[int](filepath.Join(dst, "events.cdclog"), func(cdcsink.Frame[int]) error { return nil }); err != nil {
		t.Fatalf("Replay on snapshot copy: %v", err)
	}
}
