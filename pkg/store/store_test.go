package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/core"
)

func newRecord(name string, active bool) core.Record {
	rec := core.NewRecord(2)
	rec.Append("name", name)
	rec.Append("active", active)
	return rec
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "rows.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndEach(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Append([]core.Record{newRecord("a", true), newRecord("b", false)}))
	require.NoError(t, s.Append([]core.Record{newRecord("c", true)}))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var seqs []uint64
	var names []any
	err = s.Each(0, func(seq uint64, rec core.Record) error {
		seqs = append(seqs, seq)
		v, _ := rec.Get("name")
		names = append(names, v)
		assert.Equal(t, []string{"name", "active"}, rec.Names())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
	assert.Equal(t, []any{"a", "b", "c"}, names)
}

func TestEachLimit(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Append([]core.Record{newRecord("a", true), newRecord("b", true), newRecord("c", true)}))

	calls := 0
	require.NoError(t, s.Each(2, func(uint64, core.Record) error {
		calls++
		return nil
	}))
	assert.Equal(t, 2, calls)
}

func TestEachPropagatesError(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Append([]core.Record{newRecord("a", true)}))

	boom := errors.New("boom")
	err := s.Each(0, func(uint64, core.Record) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Append([]core.Record{newRecord("a", true)}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Append([]core.Record{newRecord("b", false)}))
	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, path, s.Path())
}

func TestOpenLockedFileTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	start := time.Now()
	_, err = Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, bbolt.ErrTimeout)
	assert.Less(t, time.Since(start), 10*OpenTimeout)
}
