// Package bank implements a minimal balance ledger and the actions that
// drive it.
//
// The ledger is a component registered in the registry under the name
// "bank". It keeps one unsigned 64-bit balance per identity in its own
// storage namespace. Every mutation takes the capability token of the
// running action and refuses to proceed when the token does not validate
// against the dispatcher, so a ledger reference leaked outside an action
// cannot move funds.
//
// The actions resolve the ledger through the registry at execution time.
// Identities travel base64 encoded in the transaction arguments and
// amounts as decimal strings.
package bank

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"go.dedis.ch/acta"
	"go.dedis.ch/acta/core/access"
	"go.dedis.ch/acta/core/execution"
	"go.dedis.ch/acta/core/execution/action"
	"go.dedis.ch/acta/core/registry"
	"go.dedis.ch/acta/core/store"
	"go.dedis.ch/acta/core/store/prefixed"
	"go.dedis.ch/acta/crypto/bls"
	"golang.org/x/xerrors"
)

const (
	// ComponentName is the name the ledger registers under in the registry.
	ComponentName = "bank"

	// UID is the storage namespace of the ledger.
	UID = "BANK"

	// AmountArg is the argument's name in the transaction that contains the
	// amount of an operation, as a decimal string.
	AmountArg = "bank:amount"

	// AccountArg is the argument's name in the transaction that contains
	// the base64 encoded identity of the account to operate on.
	AccountArg = "bank:account"

	// ToArg is the argument's name in the transaction that contains the
	// base64 encoded identity receiving a transfer.
	ToArg = "bank:to"
)

const (
	// ActionTransfer is the name of the action that moves funds from the
	// transaction identity to another account.
	ActionTransfer = "bank.transfer"

	// ActionDeposit is the name of the action that credits an account.
	ActionDeposit = "bank.deposit"

	// ActionWithdraw is the name of the action that debits an account.
	ActionWithdraw = "bank.withdraw"

	// ActionBalance is the name of the action that reads a balance.
	ActionBalance = "bank.balance"
)

// Validator checks that a capability token belongs to the action currently
// executing.
type Validator interface {
	Validate(token action.Token) error
}

// Ledger is the component keeping the balances. Mutations are gated by the
// capability token of the running action.
type Ledger struct {
	validator Validator
}

// NewLedger returns a ledger that validates its tokens with the validator.
func NewLedger(validator Validator) *Ledger {
	return &Ledger{
		validator: validator,
	}
}

// Balance returns the balance of the identity. A missing account reads as
// zero.
func (ldgr *Ledger) Balance(str store.Readable, ident access.Identity) (uint64, error) {
	key, err := ident.MarshalText()
	if err != nil {
		return 0, xerrors.Errorf("couldn't marshal identity: %v", err)
	}

	value, err := prefixed.NewReadable(UID, str).Get(key)
	if err != nil {
		return 0, xerrors.Errorf("store failed: %v", err)
	}

	if len(value) != 8 {
		return 0, nil
	}

	return binary.LittleEndian.Uint64(value), nil
}

// Credit adds the amount to the balance of the identity.
func (ldgr *Ledger) Credit(token action.Token, snap store.Snapshot,
	ident access.Identity, amount uint64) error {

	err := ldgr.validator.Validate(token)
	if err != nil {
		return xerrors.Errorf("token refused: %v", err)
	}

	return ldgr.credit(snap, ident, amount)
}

// Debit removes the amount from the balance of the identity.
func (ldgr *Ledger) Debit(token action.Token, snap store.Snapshot,
	ident access.Identity, amount uint64) error {

	err := ldgr.validator.Validate(token)
	if err != nil {
		return xerrors.Errorf("token refused: %v", err)
	}

	return ldgr.debit(snap, ident, amount)
}

// Transfer moves the amount from one identity to another.
func (ldgr *Ledger) Transfer(token action.Token, snap store.Snapshot,
	from, to access.Identity, amount uint64) error {

	err := ldgr.validator.Validate(token)
	if err != nil {
		return xerrors.Errorf("token refused: %v", err)
	}

	err = ldgr.debit(snap, from, amount)
	if err != nil {
		return xerrors.Errorf("failed to debit: %v", err)
	}

	err = ldgr.credit(snap, to, amount)
	if err != nil {
		return xerrors.Errorf("failed to credit: %v", err)
	}

	return nil
}

func (ldgr *Ledger) credit(snap store.Snapshot, ident access.Identity, amount uint64) error {
	if amount == 0 {
		return xerrors.New("amount must be positive")
	}

	balance, err := ldgr.Balance(snap, ident)
	if err != nil {
		return err
	}

	if balance+amount < balance {
		return xerrors.New("balance overflow")
	}

	return ldgr.setBalance(snap, ident, balance+amount)
}

func (ldgr *Ledger) debit(snap store.Snapshot, ident access.Identity, amount uint64) error {
	if amount == 0 {
		return xerrors.New("amount must be positive")
	}

	balance, err := ldgr.Balance(snap, ident)
	if err != nil {
		return err
	}

	if balance < amount {
		return xerrors.Errorf("insufficient balance: has %d, needs %d", balance, amount)
	}

	return ldgr.setBalance(snap, ident, balance-amount)
}

func (ldgr *Ledger) setBalance(snap store.Snapshot, ident access.Identity, balance uint64) error {
	key, err := ident.MarshalText()
	if err != nil {
		return xerrors.Errorf("couldn't marshal identity: %v", err)
	}

	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, balance)

	err = prefixed.NewSnapshot(UID, snap).Set(key, buffer)
	if err != nil {
		return xerrors.Errorf("store failed: %v", err)
	}

	return nil
}

// RegisterActions registers the bank actions to the dispatcher. The ledger
// itself is registered in the registry by the controller.
func RegisterActions(srvc *action.Service, reg *registry.Registry) {
	base := serviceAction{registry: reg, printer: infoLog{}}

	srvc.Set(ActionTransfer, TransferAction{base})
	srvc.Set(ActionDeposit, DepositAction{base})
	srvc.Set(ActionWithdraw, WithdrawAction{base})
	srvc.Set(ActionBalance, BalanceAction{base})
}

// serviceAction is the common base of the bank actions. It resolves the
// ledger through the registry at execution time.
type serviceAction struct {
	registry *registry.Registry
	printer  io.Writer
}

func (a serviceAction) resolve() (*Ledger, error) {
	var ldgr *Ledger

	err := a.registry.Resolve(ComponentName, &ldgr)
	if err != nil {
		return nil, xerrors.Errorf("couldn't resolve ledger: %v", err)
	}

	return ldgr, nil
}

// TransferAction moves funds from the transaction identity to the account
// in the arguments.
//
// - implements action.Action
type TransferAction struct {
	serviceAction
}

// Execute implements action.Action. It transfers the amount from the
// transaction identity to the target account.
func (a TransferAction) Execute(sess action.Session, snap store.Snapshot, step execution.Step) error {
	ldgr, err := a.resolve()
	if err != nil {
		return err
	}

	to, err := decodeIdentity(step, ToArg)
	if err != nil {
		return err
	}

	amount, err := decodeAmount(step)
	if err != nil {
		return err
	}

	err = ldgr.Transfer(sess.GetToken(), snap, step.Current.GetIdentity(), to, amount)
	if err != nil {
		return xerrors.Errorf("failed to transfer: %v", err)
	}

	acta.Logger.Info().Str("action", ActionTransfer).
		Msgf("transferred %d to %v", amount, to)

	return nil
}

// Requirement implements action.Action. A transfer moves the caller's own
// funds, so any user can do it.
func (a TransferAction) Requirement() access.Level {
	return access.User
}

// DepositAction credits the account in the arguments.
//
// - implements action.Action
type DepositAction struct {
	serviceAction
}

// Execute implements action.Action. It credits the target account with the
// amount.
func (a DepositAction) Execute(sess action.Session, snap store.Snapshot, step execution.Step) error {
	ldgr, err := a.resolve()
	if err != nil {
		return err
	}

	account, err := decodeIdentity(step, AccountArg)
	if err != nil {
		return err
	}

	amount, err := decodeAmount(step)
	if err != nil {
		return err
	}

	err = ldgr.Credit(sess.GetToken(), snap, account, amount)
	if err != nil {
		return xerrors.Errorf("failed to deposit: %v", err)
	}

	acta.Logger.Info().Str("action", ActionDeposit).
		Msgf("deposited %d to %v", amount, account)

	return nil
}

// Requirement implements action.Action. Minting funds is reserved to
// operators.
func (a DepositAction) Requirement() access.Level {
	return access.Operator
}

// WithdrawAction debits the account in the arguments.
//
// - implements action.Action
type WithdrawAction struct {
	serviceAction
}

// Execute implements action.Action. It debits the target account by the
// amount.
func (a WithdrawAction) Execute(sess action.Session, snap store.Snapshot, step execution.Step) error {
	ldgr, err := a.resolve()
	if err != nil {
		return err
	}

	account, err := decodeIdentity(step, AccountArg)
	if err != nil {
		return err
	}

	amount, err := decodeAmount(step)
	if err != nil {
		return err
	}

	err = ldgr.Debit(sess.GetToken(), snap, account, amount)
	if err != nil {
		return xerrors.Errorf("failed to withdraw: %v", err)
	}

	acta.Logger.Info().Str("action", ActionWithdraw).
		Msgf("withdrew %d from %v", amount, account)

	return nil
}

// Requirement implements action.Action. Burning funds is reserved to
// operators.
func (a WithdrawAction) Requirement() access.Level {
	return access.Operator
}

// BalanceAction prints the balance of an account. Without an account
// argument it reads the balance of the transaction identity.
//
// - implements action.Action
type BalanceAction struct {
	serviceAction
}

// Execute implements action.Action. It prints the balance of the account
// to the printer.
func (a BalanceAction) Execute(sess action.Session, snap store.Snapshot, step execution.Step) error {
	ldgr, err := a.resolve()
	if err != nil {
		return err
	}

	account := step.Current.GetIdentity()

	if len(step.Current.GetArg(AccountArg)) > 0 {
		account, err = decodeIdentity(step, AccountArg)
		if err != nil {
			return err
		}
	}

	balance, err := ldgr.Balance(snap, account)
	if err != nil {
		return xerrors.Errorf("failed to read balance: %v", err)
	}

	fmt.Fprintf(a.printer, "%d", balance)

	return nil
}

// Requirement implements action.Action. Reading a balance is open.
func (a BalanceAction) Requirement() access.Level {
	return access.None
}

func decodeIdentity(step execution.Step, arg string) (access.Identity, error) {
	value := step.Current.GetArg(arg)
	if len(value) == 0 {
		return nil, xerrors.Errorf("'%s' not found in tx arg", arg)
	}

	data, err := base64.StdEncoding.DecodeString(string(value))
	if err != nil {
		return nil, xerrors.Errorf("failed to decode base64 identity: %v", err)
	}

	pubkey, err := bls.NewPublicKey(data)
	if err != nil {
		return nil, xerrors.Errorf("failed to get public key: %v", err)
	}

	return pubkey, nil
}

func decodeAmount(step execution.Step) (uint64, error) {
	value := step.Current.GetArg(AmountArg)
	if len(value) == 0 {
		return 0, xerrors.Errorf("'%s' not found in tx arg", AmountArg)
	}

	amount, err := strconv.ParseUint(string(value), 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("failed to parse amount: %v", err)
	}

	return amount, nil
}

// infoLog defines an output using zerolog
//
// - implements io.Writer
type infoLog struct{}

func (h infoLog) Write(p []byte) (int, error) {
	acta.Logger.Info().Msg(string(p))

	return len(p), nil
}
