package cdcsink

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"cdcset/cdcset"
)

func TestAppendWritesBlockAlignedFrames(t *testing.T) {
	dir := t.TempDir()
	log, err := Open[int](filepath.Join(dir, "events.cdclog"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer log.Close()

	id := uuid.New()
	events := []cdcset.Event[int]{
		{Kind: cdcset.InsertAt, NodeMax: 5, Element: 5},
	}
	offset, err := log.Append(id, events)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if offset%BlockSize != 0 {
		t.Fatalf("Append returned offset %d, not aligned to BlockSize %d", offset, BlockSize)
	}

	offset2, err := log.Append(id, events)
	if err != nil {
		t.Fatalf("second Append: %v", err)
	}
	if offset2 <= offset {
		t.Fatalf("second Append offset %d did not advance past first offset %d", offset2, offset)
	}
	if offset2%BlockSize != 0 {
		t.Fatalf("second Append offset %d is not block-aligned", offset2)
	}
}

func TestAppendRejectsOversizedFrame(t *testing.T) {
	dir := t.TempDir()
	log, err := Open[int](filepath.Join(dir, "events.cdclog"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer log.Close()
	log.MaxFrameBlocks = 1

	events := make([]cdcset.Event[int], 0, BlockSize)
	for i := 0; i < BlockSize; i++ {
		events = append(events, cdcset.Event[int]{Kind: cdcset.InsertAt, NodeMax: i, Element: i})
	}

	if _, err := log.Append(uuid.New(), events); err != ErrFrameTooLarge {
		t.Fatalf("Append with an oversized batch: err = %v, want ErrFrameTooLarge", err)
	}
}

func TestReopenPreservesExistingFrames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.cdclog")

	log, err := Open[int](path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	events := []cdcset.Event[int]{{Kind: cdcset.InsertAt, NodeMax: 1, Element: 1}}
	if _, err := log.Append(uuid.New(), events); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open[int](path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	offset, err := reopened.Append(uuid.New(), events)
	if err != nil {
		t.Fatalf("Append after reopen: %v", err)
	}
	if offset == 0 {
		t.Fatalf("Append after reopen wrote at offset 0, want past the first frame written before closing")
	}
}
