// This file contains an adapter to use a database bucket as an execution
// snapshot.
//
// Documentation Last Review: 08.10.2020
//

package kv

import (
	"go.dedis.ch/acta/core/store"
	"golang.org/x/xerrors"
)

// BucketSnapshot is a store snapshot reading and writing directly to a
// database bucket, so that an execution can run inside a database transaction
// and be committed atomically.
//
// - implements store.Snapshot
type bucketSnapshot struct {
	bucket Bucket
}

// NewSnapshot returns a snapshot backed by the given bucket. The snapshot is
// valid only for the lifetime of the enclosing database transaction.
func NewSnapshot(bucket Bucket) store.Snapshot {
	return bucketSnapshot{bucket: bucket}
}

// Get implements store.Readable. It returns the value associated to the key,
// or nil if it is not set.
func (snap bucketSnapshot) Get(key []byte) ([]byte, error) {
	return snap.bucket.Get(key), nil
}

// Set implements store.Writable. It sets the key to the value in the
// underlying bucket.
func (snap bucketSnapshot) Set(key, value []byte) error {
	err := snap.bucket.Set(key, value)
	if err != nil {
		return xerrors.Errorf("bucket failed: %v", err)
	}

	return nil
}

// Delete implements store.Writable. It deletes the key from the underlying
// bucket.
func (snap bucketSnapshot) Delete(key []byte) error {
	err := snap.bucket.Delete(key)
	if err != nil {
		return xerrors.Errorf("bucket failed: %v", err)
	}

	return nil
}
