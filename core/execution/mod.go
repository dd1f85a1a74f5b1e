// Package execution defines the service to execute a step in a batch of
// transactions.
//
// Documentation Last Review: 08.10.2020
//
package execution

import (
	"go.dedis.ch/acta/core/store"
	"go.dedis.ch/acta/core/txn"
)

// Step is the smallest unit of execution. It contains the current transaction
// and the previous transactions of the same batch that have already been
// executed.
type Step struct {
	Previous []txn.Transaction
	Current  txn.Transaction
}

// Result is the result of a transaction execution.
type Result struct {
	// Accepted is the success state of the transaction.
	Accepted bool

	// Message gives a change to the execution to explain why a transaction
	// has failed.
	Message string
}

// Service is the execution service that defines the primitives to execute a
// transaction.
type Service interface {
	// Execute must apply the transaction to the snapshot and return the
	// result of it.
	Execute(snap store.Snapshot, step Step) (Result, error)
}
