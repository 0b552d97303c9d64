// Package cdcreplay reconstructs or inspects a cdcset change-data-capture
// log written by package cdcsink.
//
// Replay reads the binary frame log forward from the start, the way the
// teacher's recovery manager replays its write-ahead log after a crash.
// TailLines instead scans backward over a parallel plain-text audit trail
// (one line per appended frame) using github.com/icza/backscanner, the
// same library and scan-from-the-end idiom the teacher's
// getRelevantStrings used to walk its log file back to the last
// checkpoint without reading it forward from the beginning. Snapshot
// copies a log directory aside with github.com/otiai10/copy before a
// caller does anything destructive with it, mirroring the teacher's
// delta/rollback use of the same library.
package cdcreplay

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/icza/backscanner"
	copydir "github.com/otiai10/copy"

	"cdcset/cdcsink"
)

// Replay decodes every frame in the log file at path, in the order they
// were appended, and calls apply with each one. apply returning an error
// stops the replay and the error is returned to the caller.
func Replay[T any](path string, apply func(cdcsink.Frame[T]) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cdcreplay: open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("cdcreplay: stat %s: %w", path, err)
	}

	r := bufio.NewReader(file)
	var offset int64
	for offset < info.Size() {
		header := make([]byte, 8)
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("cdcreplay: read length header at %d: %w", offset, err)
		}
		payloadLen := binary.LittleEndian.Uint64(header)

		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return fmt.Errorf("cdcreplay: read payload at %d: %w", offset, err)
		}

		var frame cdcsink.Frame[T]
		if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&frame); err != nil {
			return fmt.Errorf("cdcreplay: decode frame at %d: %w", offset, err)
		}
		if err := apply(frame); err != nil {
			return err
		}

		written := int64(8 + len(payload))
		blocks := (written + cdcsink.BlockSize - 1) / cdcsink.BlockSize
		frameSize := blocks * cdcsink.BlockSize
		if _, err := r.Discard(int(frameSize - written)); err != nil {
			return fmt.Errorf("cdcreplay: skip padding at %d: %w", offset, err)
		}
		offset += frameSize
	}
	return nil
}

// TailLines returns the last n lines of the audit trail file at path,
// most recent first, without reading the file forward from the start.
func TailLines(path string, n int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cdcreplay: open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("cdcreplay: stat %s: %w", path, err)
	}

	scanner := backscanner.New(file, int(info.Size()))
	lines := make([]string, 0, n)
	for len(lines) < n {
		line, _, err := scanner.Line()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("cdcreplay: scan %s: %w", path, err)
		}
		if line == "" {
			// The empty remainder after the file's final newline, not an
			// audit line.
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Snapshot copies the directory at src to dst, overwriting dst if it
// already exists. Intended to be called before a caller does anything
// destructive with a log directory (a truncating replay test, a manual
// repair), so the original is recoverable.
func Snapshot(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("cdcreplay: clearing snapshot target %s: %w", dst, err)
	}
	if err := copydir.Copy(src, dst); err != nil {
		return fmt.Errorf("cdcreplay: snapshot %s to %s: %w", src, dst, err)
	}
	return nil
}
