package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock hands out strictly increasing timestamps so backup filenames
// never collide within a test.
func tickingClock() func() time.Time {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func newTestStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	opts = append([]Option{WithClock(tickingClock())}, opts...)
	return New(dir, "products", opts...), dir
}

func TestStore_CreateAssignsSequentialIDs(t *testing.T) {
	s, _ := newTestStore(t)

	first, err := s.Create(Record{"sku": "A"})
	require.NoError(t, err)
	second, err := s.Create(Record{"sku": "B"})
	require.NoError(t, err)

	firstID, ok := first.ID()
	require.True(t, ok)
	secondID, ok := second.ID()
	require.True(t, ok)
	assert.Equal(t, int64(1), firstID)
	assert.Equal(t, int64(2), secondID)
}

func TestStore_IDsDoNotReuseAfterDelete(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Create(Record{"sku": "A"})
	require.NoError(t, err)
	second, err := s.Create(Record{"sku": "B"})
	require.NoError(t, err)

	id, _ := second.ID()
	require.NoError(t, s.Delete(1))

	third, err := s.Create(Record{"sku": "C"})
	require.NoError(t, err)
	thirdID, _ := third.ID()
	assert.Equal(t, id+1, thirdID)
}

func TestStore_PersistLoadRoundTrip(t *testing.T) {
	s, dir := newTestStore(t)

	_, err := s.Create(Record{
		"sku":   "573",
		"nome":  "Ração 7kg",
		"custo": json.Number("18.88"),
		"meta":  map[string]any{"tags": []any{"dog", "premium"}},
	})
	require.NoError(t, err)

	// A fresh Store on the same directory simulates a process restart.
	reloaded := New(dir, "products")
	records, err := reloaded.List()
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "573", rec["sku"])
	assert.Equal(t, "Ração 7kg", rec["nome"])
	assert.Equal(t, json.Number("18.88"), rec["custo"], "numeric fidelity must survive the disk round trip")
	id, ok := rec.ID()
	require.True(t, ok)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, map[string]any{"tags": []any{"dog", "premium"}}, rec["meta"])
}

func TestStore_UpdateMergesPatchAndProtectsID(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Create(Record{"sku": "573", "nome": "old", "custo": json.Number("10")})
	require.NoError(t, err)

	updated, err := s.Update(1, Record{"nome": "new", "id": int64(99), "extra": "kept"})
	require.NoError(t, err)

	id, _ := updated.ID()
	assert.Equal(t, int64(1), id, "id is immutable")
	assert.Equal(t, "new", updated["nome"])
	assert.Equal(t, "kept", updated["extra"])
	assert.Equal(t, json.Number("10"), updated["custo"], "unpatched fields survive")
}

func TestStore_UpdateUnknownID(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Update(42, Record{"nome": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteUnknownIDLeavesCanonicalFileUntouched(t *testing.T) {
	s, dir := newTestStore(t)

	_, err := s.Create(Record{"sku": "A"})
	require.NoError(t, err)

	canonical := filepath.Join(dir, "products.json")
	before, err := os.ReadFile(canonical)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(42), ErrNotFound)

	after, err := os.ReadFile(canonical)
	require.NoError(t, err)
	assert.Equal(t, before, after, "no write may happen for a failed delete")
}

func TestStore_DeleteRemovesRecord(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Create(Record{"sku": "A"})
	require.NoError(t, err)
	_, err = s.Create(Record{"sku": "B"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(1))

	records, err := s.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "B", records[0]["sku"])
}

func TestStore_SeedUsedWhenNothingOnDisk(t *testing.T) {
	seed := RecordSet{{"id": int64(1), "sku": "seeded"}}
	s, _ := newTestStore(t, WithSeed(seed))

	records, err := s.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "seeded", records[0]["sku"])
}

func TestStore_EmptyWithoutSeed(t *testing.T) {
	s, _ := newTestStore(t)

	records, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_CorruptCanonicalFallsBackToLatestBackup(t *testing.T) {
	s, dir := newTestStore(t)

	_, err := s.Create(Record{"sku": "first"})
	require.NoError(t, err)
	_, err = s.Update(1, Record{"sku": "second"})
	require.NoError(t, err)

	canonical := filepath.Join(dir, "products.json")
	require.NoError(t, os.WriteFile(canonical, []byte("{ not json"), 0o644))

	reloaded := New(dir, "products")
	records, err := reloaded.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "second", records[0]["sku"], "newest backup wins")
}

func TestStore_MissingCanonicalFallsBackToBackup(t *testing.T) {
	s, dir := newTestStore(t)

	_, err := s.Create(Record{"sku": "only"})
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "products.json")))

	reloaded := New(dir, "products")
	records, err := reloaded.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "only", records[0]["sku"])
}

func TestStore_BackupRetention(t *testing.T) {
	const retention = 20
	const mutations = 25

	s, dir := newTestStore(t, WithRetention(retention))

	for i := 0; i < mutations; i++ {
		_, err := s.Create(Record{"n": i})
		require.NoError(t, err)
	}

	backups, err := s.listBackups()
	require.NoError(t, err)
	require.Len(t, backups, retention, "exactly the retention count remains")

	// The survivors must be the newest snapshots: the latest one holds all
	// records, the oldest surviving one holds mutations-retention+1.
	latest, err := os.ReadFile(filepath.Join(dir, "backups", backups[len(backups)-1]))
	require.NoError(t, err)
	newest, err := decodeRecords(latest)
	require.NoError(t, err)
	assert.Len(t, newest, mutations)

	oldest, err := os.ReadFile(filepath.Join(dir, "backups", backups[0]))
	require.NoError(t, err)
	oldestSet, err := decodeRecords(oldest)
	require.NoError(t, err)
	assert.Len(t, oldestSet, mutations-retention+1)
}

func TestStore_ListReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Create(Record{"sku": "A"})
	require.NoError(t, err)

	records, err := s.List()
	require.NoError(t, err)
	records[0]["sku"] = "mutated"

	again, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, "A", again[0]["sku"], "callers must not alias the cache")
}

func TestStore_LoadIsCachedForProcessLifetime(t *testing.T) {
	s, dir := newTestStore(t)

	_, err := s.Create(Record{"sku": "A"})
	require.NoError(t, err)

	// Disk changes behind the store's back are not observed: the cache is
	// authoritative once loaded.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.json"), []byte(`[]`), 0o644))

	records, err := s.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRecord_NumberSanitizer(t *testing.T) {
	assert.Equal(t, json.Number("18.5"), Number("18.5"))
	assert.Equal(t, json.Number("7"), Number(7))
	assert.Equal(t, json.Number("3.25"), Number(json.Number("3.25")))
	assert.Nil(t, Number(""))
	assert.Nil(t, Number("abc"))
	assert.Nil(t, Number(nil))
	assert.Nil(t, Number(true))
}

// ParseFloat accepts a superset of the JSON number grammar, so the
// sanitizer must rewrite those literals instead of passing them through to
// an encoder that will reject them.
func TestRecord_NumberRewritesNonJSONLiterals(t *testing.T) {
	assert.Equal(t, json.Number("5"), Number("+5"))
	assert.Equal(t, json.Number("0.5"), Number(".5"))
	assert.Equal(t, json.Number("5"), Number("5."))
	assert.Equal(t, json.Number("4"), Number("0x1p2"))
	assert.Equal(t, json.Number("5"), Number(json.Number("+5")))
	assert.Nil(t, Number("Inf"))
	assert.Nil(t, Number("-Inf"))
	assert.Nil(t, Number("NaN"))
}

func TestStore_CreatePersistsSanitizedSignLiteral(t *testing.T) {
	s, dir := newTestStore(t)

	_, err := s.Create(Record{"custo": Number("+5")})
	require.NoError(t, err)

	reloaded := New(dir, "products")
	records, err := reloaded.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, json.Number("5"), records[0]["custo"])
}

func TestNextID_IgnoresNonIntegerIDs(t *testing.T) {
	rs := RecordSet{
		{"id": json.Number("7")},
		{"id": "not-a-number"},
		{"name": "no id at all"},
	}
	assert.Equal(t, int64(8), nextID(rs))
	assert.Equal(t, int64(1), nextID(RecordSet{}))
}
