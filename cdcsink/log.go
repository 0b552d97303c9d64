// Package cdcsink is a durable sink for cdcset's change-data-capture
// event batches: an append-only log of page-aligned frames, written with
// github.com/ncw/directio the same way the teacher's pkg/pager writes
// database pages, and decoded with encoding/gob.
//
// Where the teacher's Pager manages a read/write cache of fixed-size
// pages keyed by page number, a CDC sink only ever appends — there is no
// random-access read path to cache — so this package keeps the teacher's
// aligned-buffer-pool idiom (package internal/list) but drops paging,
// pinning, and eviction entirely.
package cdcsink

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/ncw/directio"

	"cdcset/cdcset"
	"cdcset/internal/list"
)

// BlockSize is the alignment and minimum size of every frame written to
// the log, matching the teacher's Pagesize.
const BlockSize = directio.BlockSize

// lengthPrefixSize is the width of the length header written at the
// start of every frame's payload, before gob-encoded bytes.
const lengthPrefixSize = 8

// ErrFrameTooLarge is returned by Append when an encoded batch would not
// fit in the configured MaxFrameBlocks.
var ErrFrameTooLarge = errors.New("cdcsink: encoded batch exceeds maximum frame size")

// Frame is the durable representation of one cdcset operation's event
// batch.
type Frame[T any] struct {
	ID     uuid.UUID
	Events []cdcset.Event[T]
}

// Log is an append-only, page-aligned change log.
//
// Alongside the binary frame file it maintains a plain-text audit trail
// (one line per appended frame: offset, batch id, event count) that
// package cdcreplay's TailLines reads backward without touching the
// binary file at all — a cheap way to answer "what changed recently"
// that doesn't require decoding gob frames or reading the whole log
// forward.
type Log[T any] struct {
	mu         sync.Mutex
	file       *os.File
	auditFile  *os.File
	nextOffset int64

	free *list.List[[]byte]

	// MaxFrameBlocks bounds how many BlockSize blocks a single frame may
	// occupy before Append refuses it with ErrFrameTooLarge. Zero means
	// unbounded.
	MaxFrameBlocks int
}

// AuditSuffix names the sibling plain-text audit trail file Open creates
// next to the binary log file.
const AuditSuffix = ".audit"

// Open creates or appends to the log file at path (and its sibling
// audit trail at path+AuditSuffix).
func Open[T any](path string) (*Log[T], error) {
	file, err := directio.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, fmt.Errorf("cdcsink: open %s: %w", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("cdcsink: stat %s: %w", path, err)
	}
	if info.Size()%BlockSize != 0 {
		file.Close()
		return nil, fmt.Errorf("cdcsink: %s size %d is not block-aligned", path, info.Size())
	}

	auditFile, err := os.OpenFile(path+AuditSuffix, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("cdcsink: open %s%s: %w", path, AuditSuffix, err)
	}

	return &Log[T]{
		file:       file,
		auditFile:  auditFile,
		nextOffset: info.Size(),
		free:       list.New[[]byte](),
	}, nil
}

// Close flushes and closes the log's backing files.
func (l *Log[T]) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Close(); err != nil {
		l.auditFile.Close()
		return err
	}
	return l.auditFile.Close()
}

// AuditPath returns the path of the sibling audit trail file, for
// cdcreplay.TailLines.
func (l *Log[T]) AuditPath() string {
	return l.file.Name() + AuditSuffix
}

// Append encodes id/events as a Frame and durably appends it to the log,
// returning the byte offset the frame was written at (the same offset
// that starts the frame's line in the audit trail).
func (l *Log[T]) Append(id uuid.UUID, events []cdcset.Event[T]) (offset int64, err error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(Frame[T]{ID: id, Events: events}); err != nil {
		return 0, fmt.Errorf("cdcsink: encode frame: %w", err)
	}

	payload := buf.Bytes()
	total := lengthPrefixSize + len(payload)
	blocks := (total + BlockSize - 1) / BlockSize
	if l.MaxFrameBlocks > 0 && blocks > l.MaxFrameBlocks {
		return 0, ErrFrameTooLarge
	}

	size := blocks * BlockSize
	aligned := l.acquireBuffer(size)
	binary.LittleEndian.PutUint64(aligned[:lengthPrefixSize], uint64(len(payload)))
	copy(aligned[lengthPrefixSize:], payload)
	for i := total; i < size; i++ {
		aligned[i] = 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	offset = l.nextOffset
	if _, err := l.file.WriteAt(aligned, offset); err != nil {
		l.releaseBuffer(aligned)
		return 0, fmt.Errorf("cdcsink: write at %d: %w", offset, err)
	}
	l.nextOffset += int64(size)
	l.releaseBuffer(aligned)

	auditLine := fmt.Sprintf("%d %s %d\n", offset, id, len(events))
	if _, err := l.auditFile.WriteString(auditLine); err != nil {
		return 0, fmt.Errorf("cdcsink: write audit line: %w", err)
	}
	return offset, nil
}

// acquireBuffer returns a block-aligned buffer of exactly size bytes,
// reusing one from the free list when a correctly-sized one is available
// rather than allocating afresh every Append. A reused buffer still holds
// its previous contents; Append overwrites every byte of it.
func (l *Log[T]) acquireBuffer(size int) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	for link := l.free.PeekHead(); link != nil; link = link.Next() {
		if buf := link.Value(); len(buf) == size {
			link.PopSelf()
			return buf
		}
	}
	return directio.AlignedBlock(size)
}

// releaseBuffer returns buf to the free list for reuse.
//
// Caller must hold l.mu.
func (l *Log[T]) releaseBuffer(buf []byte) {
	l.free.PushTail(buf)
}
