// Package storectl manages a directory of named, durable int64 tables:
// each one a cdcset.Set[int64] paired with a cdcsink.Log that records
// every Put/Remove as a change-data-capture batch.
//
// Grounded on the teacher's pkg/database.Database, which managed a
// directory of named on-disk btree/hash tables by name, opening and
// creating them lazily. storectl keeps that directory-of-named-tables
// shape but replaces disk-paged B-tree/hash tables with in-memory
// cdcset.Set instances, each backed for durability by its own cdcsink.Log
// rather than being disk-resident itself.
package storectl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cdcset/cdcset"
	"cdcset/cdcsink"
	"cdcset/config"
	"cdcset/internal/xlog"
)

func newEventID() uuid.UUID {
	return uuid.New()
}

var tableNamePattern = regexp.MustCompile(`^\w+$`)

// ErrTableExists is returned by CreateTable when name is already in use.
var ErrTableExists = errors.New("storectl: table already exists")

// ErrTableNotFound is returned by GetTable when name has never been
// created in this store.
var ErrTableNotFound = errors.New("storectl: table not found")

// ErrInvalidTableName is returned when name contains anything but
// letters, digits, and underscores.
var ErrInvalidTableName = errors.New("storectl: table name must be alphanumeric")

func less(a, b int64) bool { return a < b }

// Table is a durable, named cdcset.Set[int64]: every Put/Remove call
// appends its change-data-capture batch to a backing cdcsink.Log before
// returning.
type Table struct {
	name string
	set  *cdcset.Set[int64]
	log  *cdcsink.Log[int64]
}

// Name returns the table's name within its Store.
func (t *Table) Name() string { return t.name }

// Set returns the table's in-memory set, for read-only operations (Get,
// Contains, Iter, Range, Len) that don't need to go through the durable
// logging wrapper.
func (t *Table) Set() *cdcset.Set[int64] { return t.set }

// Put inserts v, durably logging the change before returning.
func (t *Table) Put(v int64) (old int64, hadOld bool, err error) {
	old, hadOld, events := t.set.PutCDCEvents(v)
	if len(events) > 0 {
		if _, logErr := t.log.Append(newEventID(), events); logErr != nil {
			xlog.Warn("storectl: table %s: append failed: %v", t.name, logErr)
			return old, hadOld, fmt.Errorf("storectl: table %s: %w", t.name, logErr)
		}
	}
	return old, hadOld, nil
}

// Remove deletes v, durably logging the change before returning.
func (t *Table) Remove(v int64) (removed int64, ok bool, err error) {
	removed, ok, events := t.set.RemoveCDCEvents(v)
	if len(events) > 0 {
		if _, logErr := t.log.Append(newEventID(), events); logErr != nil {
			xlog.Warn("storectl: table %s: append failed: %v", t.name, logErr)
			return removed, ok, fmt.Errorf("storectl: table %s: %w", t.name, logErr)
		}
	}
	return removed, ok, nil
}

// Close closes the table's durable log.
func (t *Table) Close() error {
	return t.log.Close()
}

// Store is a directory of named Tables.
type Store struct {
	basePath string
	cfg      config.Config

	mu     sync.Mutex
	tables map[string]*Table
}

// Open creates folder if it doesn't exist and returns an empty Store
// rooted there.
func Open(folder string, cfg config.Config) (*Store, error) {
	if !strings.HasSuffix(folder, string(filepath.Separator)) {
		folder += string(filepath.Separator)
	}
	if err := os.MkdirAll(folder, 0775); err != nil {
		return nil, fmt.Errorf("storectl: mkdir %s: %w", folder, err)
	}
	return &Store{basePath: folder, cfg: cfg, tables: make(map[string]*Table)}, nil
}

// BasePath returns the store's root directory.
func (s *Store) BasePath() string { return s.basePath }

// CreateTable creates and returns a new, empty Table named name.
func (s *Store) CreateTable(name string) (*Table, error) {
	if !tableNamePattern.MatchString(name) {
		return nil, ErrInvalidTableName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[name]; exists {
		return nil, ErrTableExists
	}

	set, err := cdcset.WithMaximumNodeSize[int64](less, s.cfg.NodeCapacity)
	if err != nil {
		return nil, err
	}
	log, err := cdcsink.Open[int64](filepath.Join(s.basePath, name+".cdclog"))
	if err != nil {
		return nil, err
	}

	table := &Table{name: name, set: set, log: log}
	s.tables[name] = table
	xlog.Info("storectl: created table %s in %s", name, s.basePath)
	return table, nil
}

// GetTable returns the Table named name, if it has been created in this
// Store (lazily reopening its log is not supported: a fresh Set cannot
// be reconstructed from a log without replaying it — see cdcreplay.Replay
// for that path).
func (s *Store) GetTable(name string) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.tables[name]
	if !ok {
		return nil, ErrTableNotFound
	}
	return table, nil
}

// TableNames returns the names of every table currently open in this
// Store.
func (s *Store) TableNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	return names
}

// Close closes every table's durable log.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, table := range s.tables {
		if err := table.Close(); err != nil {
			xlog.Warn("storectl: closing table %s: %v", table.name, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
