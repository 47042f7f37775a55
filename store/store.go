package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when no record carries the requested id.
var ErrNotFound = errors.New("record not found")

// DefaultRetention bounds how many backup snapshots are kept per collection.
const DefaultRetention = 20

// backupTimeLayout is filename-safe and lexically sortable, so retention
// pruning can order snapshots by name alone.
const backupTimeLayout = "20060102T150405.000000000Z"

// Store owns one collection document: <dir>/<name>.json plus timestamped
// snapshots under <dir>/backups/. The in-memory record set is the single
// writable copy; it is loaded lazily on first access and every mutation
// goes through read-modify-write-persist under the store mutex, which
// serializes concurrent mutations per collection.
type Store struct {
	mu        sync.Mutex
	dir       string
	name      string
	path      string
	backupDir string
	retention int
	seed      RecordSet
	clock     func() time.Time

	records RecordSet
	loaded  bool
}

// Option configures a Store.
type Option func(*Store)

// WithSeed sets the bootstrap record set used when neither the canonical
// file nor any backup can be read.
func WithSeed(seed RecordSet) Option {
	return func(s *Store) { s.seed = seed }
}

// WithRetention overrides the backup retention count. Values below 1 keep
// the default.
func WithRetention(n int) Option {
	return func(s *Store) {
		if n >= 1 {
			s.retention = n
		}
	}
}

// WithClock overrides the time source for backup naming. Tests use it to
// make snapshot ordering deterministic.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// New creates a Store for the collection name under dir. Nothing is read
// from disk until the first operation.
func New(dir, name string, opts ...Option) *Store {
	s := &Store{
		dir:       dir,
		name:      name,
		path:      filepath.Join(dir, name+".json"),
		backupDir: filepath.Join(dir, "backups"),
		retention: DefaultRetention,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a copy of all records in document order.
func (s *Store) List() (RecordSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}
	return s.records.Clone(), nil
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id int64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	idx := findByID(s.records, id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	return s.records[idx].Clone(), nil
}

// Create assigns the next integer id to fields, appends the record and
// persists the collection. The stored record is returned.
func (s *Store) Create(fields Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	rec := fields.Clone()
	if rec == nil {
		rec = Record{}
	}
	rec[IDField] = nextID(s.records)

	next := append(s.records.Clone(), rec)
	if err := s.persist(next); err != nil {
		return nil, err
	}
	s.records = next

	return rec.Clone(), nil
}

// Update merges patch over the record with the given id and persists. The
// id field is immutable; a patch cannot move a record. Returns the updated
// record, or ErrNotFound.
func (s *Store) Update(id int64, patch Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	idx := findByID(s.records, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	updated := s.records[idx].Clone()
	for k, v := range patch {
		if k == IDField {
			continue
		}
		updated[k] = cloneValue(v)
	}

	next := s.records.Clone()
	next[idx] = updated
	if err := s.persist(next); err != nil {
		return nil, err
	}
	s.records = next

	return updated.Clone(), nil
}

// Delete removes the record with the given id and persists. ErrNotFound is
// returned without touching disk when the id is unknown.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}

	idx := findByID(s.records, id)
	if idx < 0 {
		return ErrNotFound
	}

	next := append(s.records[:idx].Clone(), s.records[idx+1:].Clone()...)
	if err := s.persist(next); err != nil {
		return err
	}
	s.records = next

	return nil
}

// load reads the canonical file on first use. A missing or malformed
// canonical file falls back to the most recent backup; when that fails too
// the configured seed (or an empty set) is used. The result is cached for
// the process lifetime. Callers must hold s.mu.
func (s *Store) load() error {
	if s.loaded {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err == nil {
		rs, decErr := decodeRecords(data)
		if decErr == nil {
			s.records = rs
			s.loaded = true
			return nil
		}
		log.Warn().Err(decErr).Str("collection", s.name).Msg("canonical document malformed, trying latest backup")
	} else if !os.IsNotExist(err) {
		log.Warn().Err(err).Str("collection", s.name).Msg("canonical document unreadable, trying latest backup")
	}

	if rs, ok := s.loadLatestBackup(); ok {
		s.records = rs
		s.loaded = true
		return nil
	}

	s.records = s.seed.Clone()
	if s.records == nil {
		s.records = RecordSet{}
	}
	s.loaded = true
	return nil
}

func (s *Store) loadLatestBackup() (RecordSet, bool) {
	backups, err := s.listBackups()
	if err != nil || len(backups) == 0 {
		return nil, false
	}

	// listBackups sorts ascending, so the newest snapshot is last.
	latest := backups[len(backups)-1]
	data, err := os.ReadFile(filepath.Join(s.backupDir, latest))
	if err != nil {
		return nil, false
	}
	rs, err := decodeRecords(data)
	if err != nil {
		return nil, false
	}

	log.Info().Str("collection", s.name).Str("backup", latest).Msg("restored collection from backup")
	return rs, true
}

// persist writes the full record set durably: encode, write a temp file in
// the canonical directory, write a timestamped backup snapshot, then
// atomically rename the temp file over the canonical document. The rename
// is the only step that must be atomic; no reader ever observes a
// partially written canonical file. Backups beyond the retention count are
// pruned afterwards, oldest first. Callers must hold s.mu; the in-memory
// set is committed by the caller only after persist succeeds.
func (s *Store) persist(rs RecordSet) error {
	data, err := encodeRecords(rs)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp document: %w", err)
	}

	backup := filepath.Join(s.backupDir, s.backupName())
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup snapshot: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace canonical document: %w", err)
	}

	s.pruneBackups()
	return nil
}

func (s *Store) backupName() string {
	return fmt.Sprintf("%s_%s.json", s.name, s.clock().UTC().Format(backupTimeLayout))
}

// listBackups returns this collection's snapshots in ascending filename
// order (oldest first).
func (s *Store) listBackups() ([]string, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, s.name+"_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// pruneBackups removes the oldest snapshots beyond the retention count.
// Pruning is best effort; a failed removal never fails the mutation that
// triggered it.
func (s *Store) pruneBackups() {
	backups, err := s.listBackups()
	if err != nil {
		log.Warn().Err(err).Str("collection", s.name).Msg("failed to list backups for pruning")
		return
	}

	for len(backups) > s.retention {
		oldest := backups[0]
		backups = backups[1:]
		if err := os.Remove(filepath.Join(s.backupDir, oldest)); err != nil {
			log.Warn().Err(err).Str("backup", oldest).Msg("failed to prune backup")
		}
	}
}
