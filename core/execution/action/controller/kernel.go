package controller

import (
	"go.dedis.ch/acta/core/access"
	"go.dedis.ch/acta/core/execution"
	"go.dedis.ch/acta/core/execution/action"
	"go.dedis.ch/acta/core/store/kv"
	"go.dedis.ch/acta/core/txn"
	"golang.org/x/xerrors"
)

// bucketName is the bucket where the kernel state lives.
var bucketName = []byte("acta")

// BucketName returns the name of the bucket where the kernel state lives.
func BucketName() []byte {
	return append([]byte{}, bucketName...)
}

// errRejected is returned inside a database transaction to roll it back when
// the transaction is rejected.
var errRejected = xerrors.New("rejected")

// Kernel drives the dispatcher over the database. An execution runs inside a
// database transaction, so an accepted transaction is committed atomically
// and a rejected one leaves no trace in the store.
//
// - implements signed.Client
type Kernel struct {
	db         kv.DB
	dispatcher *action.Service
}

// NewKernel returns a kernel using the database and the dispatcher.
func NewKernel(db kv.DB, dispatcher *action.Service) Kernel {
	return Kernel{
		db:         db,
		dispatcher: dispatcher,
	}
}

// Execute runs the transaction through the dispatcher and returns its result.
func (k Kernel) Execute(tx txn.Transaction) (execution.Result, error) {
	var res execution.Result

	err := k.db.Update(func(dtx kv.WritableTx) error {
		bucket, err := dtx.GetBucketOrCreate(bucketName)
		if err != nil {
			return xerrors.Errorf("bucket failed: %v", err)
		}

		res, err = k.dispatcher.Execute(kv.NewSnapshot(bucket), execution.Step{Current: tx})
		if err != nil {
			return err
		}

		if !res.Accepted {
			return errRejected
		}

		return nil
	})

	if err != nil && !xerrors.Is(err, errRejected) {
		return execution.Result{}, xerrors.Errorf("failed to execute: %v", err)
	}

	return res, nil
}

// GetNonce implements signed.Client. It returns the nonce expected for the
// next transaction of the identity.
func (k Kernel) GetNonce(ident access.Identity) (uint64, error) {
	nonce := uint64(0)

	err := k.db.View(func(dtx kv.ReadableTx) error {
		bucket := dtx.GetBucket(bucketName)
		if bucket == nil {
			return nil
		}

		var err error
		nonce, err = k.dispatcher.GetNonce(kv.NewSnapshot(bucket), ident)

		return err
	})

	if err != nil {
		return 0, xerrors.Errorf("failed to read nonce: %v", err)
	}

	return nonce, nil
}
