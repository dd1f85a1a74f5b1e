package kv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestBoltDB_UpdateAndView(t *testing.T) {
	dir, err := os.MkdirTemp(os.TempDir(), "acta-core-kv")
	require.NoError(t, err)

	defer os.RemoveAll(dir)

	db, err := New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	defer db.Close()

	err = db.Update(func(tx WritableTx) error {
		bucket, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		return bucket.Set([]byte("ping"), []byte("pong"))
	})
	require.NoError(t, err)

	err = db.View(func(tx ReadableTx) error {
		bucket := tx.GetBucket([]byte("bucket"))
		require.NotNil(t, bucket)

		value := bucket.Get([]byte("ping"))
		require.Equal(t, []byte("pong"), value)

		return nil
	})
	require.NoError(t, err)

	err = db.View(func(tx ReadableTx) error {
		require.Nil(t, tx.GetBucket([]byte{0xaa}))
		return nil
	})
	require.NoError(t, err)

	err = db.Update(func(tx WritableTx) error {
		_, err := tx.GetBucketOrCreate(nil)
		return err
	})
	require.EqualError(t, err, "failed to create bucket: bucket name required")
}

func TestBoltDB_OnCommit(t *testing.T) {
	dir, err := os.MkdirTemp(os.TempDir(), "acta-core-kv")
	require.NoError(t, err)

	defer os.RemoveAll(dir)

	db, err := New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	defer db.Close()

	called := false

	err = db.Update(func(tx WritableTx) error {
		tx.OnCommit(func() { called = true })
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)
}

func TestBoltBucket_Get_Set_Delete(t *testing.T) {
	dir, err := os.MkdirTemp(os.TempDir(), "acta-core-kv")
	require.NoError(t, err)

	defer os.RemoveAll(dir)

	db, err := New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	defer db.Close()

	err = db.Update(func(tx WritableTx) error {
		b, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		require.NoError(t, b.Set([]byte("ping"), []byte("pong")))

		value := b.Get([]byte("ping"))
		require.Equal(t, []byte("pong"), value)

		value = b.Get([]byte("pong"))
		require.Nil(t, value)

		require.NoError(t, b.Delete([]byte("ping")))

		value = b.Get([]byte("ping"))
		require.Nil(t, value)

		return nil
	})

	require.NoError(t, err)
}

func TestBoltBucket_ForEach(t *testing.T) {
	dir, err := os.MkdirTemp(os.TempDir(), "acta-core-kv")
	require.NoError(t, err)

	defer os.RemoveAll(dir)

	db, err := New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	defer db.Close()

	err = db.Update(func(tx WritableTx) error {
		b, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		require.NoError(t, b.Set([]byte{2}, []byte{2}))
		require.NoError(t, b.Set([]byte{1}, []byte{1}))
		require.NoError(t, b.Set([]byte{0}, []byte{0}))

		var i byte = 0
		return b.ForEach(func(k, v []byte) error {
			require.Equal(t, []byte{i}, k)
			require.Equal(t, []byte{i}, v)
			i++
			return nil
		})
	})

	require.NoError(t, err)
}

func TestBoltBucket_Scan(t *testing.T) {
	dir, err := os.MkdirTemp(os.TempDir(), "acta-core-kv")
	require.NoError(t, err)

	defer os.RemoveAll(dir)

	db, err := New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	defer db.Close()

	err = db.Update(func(tx WritableTx) error {
		b, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		require.NoError(t, b.Set([]byte{7}, []byte{7}))
		require.NoError(t, b.Set([]byte{0, 7}, []byte{0, 7}))
		require.NoError(t, b.Set([]byte{0, 1}, []byte{0, 1}))

		var i byte = 1
		err = b.Scan([]byte{0}, func(k, v []byte) error {
			require.Equal(t, []byte{0, i}, k)
			require.Equal(t, []byte{0, i}, v)
			i += 6
			return nil
		})
		require.NoError(t, err)

		err = b.Scan(nil, func(k, v []byte) error {
			return xerrors.New("oops")
		})
		require.EqualError(t, err, "callback failed: oops")

		return nil
	})

	require.NoError(t, err)
}

func TestBucketSnapshot_ReadWrite(t *testing.T) {
	dir, err := os.MkdirTemp(os.TempDir(), "acta-core-kv")
	require.NoError(t, err)

	defer os.RemoveAll(dir)

	db, err := New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	defer db.Close()

	err = db.Update(func(tx WritableTx) error {
		bucket, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		snap := NewSnapshot(bucket)

		require.NoError(t, snap.Set([]byte("ping"), []byte("pong")))

		value, err := snap.Get([]byte("ping"))
		require.NoError(t, err)
		require.Equal(t, []byte("pong"), value)

		value, err = snap.Get([]byte("unknown"))
		require.NoError(t, err)
		require.Nil(t, value)

		require.NoError(t, snap.Delete([]byte("ping")))

		value, err = snap.Get([]byte("ping"))
		require.NoError(t, err)
		require.Nil(t, value)

		return nil
	})

	require.NoError(t, err)
}
