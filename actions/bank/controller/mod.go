// Package controller implements a controller for the bank. It registers
// the ledger component and its actions, replays the funds of the genesis
// file and provides the commands to operate the bank from the CLI.
package controller

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"go.dedis.ch/acta"
	"go.dedis.ch/acta/actions/bank"
	"go.dedis.ch/acta/cli"
	"go.dedis.ch/acta/cli/node"
	"go.dedis.ch/acta/core/access"
	"go.dedis.ch/acta/core/execution/action"
	kernelctl "go.dedis.ch/acta/core/execution/action/controller"
	"go.dedis.ch/acta/core/registry"
	"go.dedis.ch/acta/core/store/kv"
	"go.dedis.ch/acta/core/txn"
	"go.dedis.ch/acta/core/txn/signed"
	"go.dedis.ch/acta/crypto"
	"go.dedis.ch/acta/crypto/bls"
	"go.dedis.ch/acta/proxy"
	"golang.org/x/xerrors"
)

// NewController returns a controller for the bank.
func NewController() node.Initializer {
	return minimal{}
}

// minimal is a CLI initializer for the bank.
//
// - implements node.Initializer
type minimal struct{}

// SetCommands implements node.Initializer. It sets the commands to operate
// the bank.
func (m minimal) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("bank")
	cmd.SetDescription("Bank administration")

	sub := cmd.SetSubCommand("deposit")
	sub.SetDescription("credit an account")
	sub.SetFlags(accountFlag(true), amountFlag())
	sub.SetAction(builder.MakeAction(depositAction{}))

	sub = cmd.SetSubCommand("withdraw")
	sub.SetDescription("debit an account")
	sub.SetFlags(accountFlag(true), amountFlag())
	sub.SetAction(builder.MakeAction(withdrawAction{}))

	sub = cmd.SetSubCommand("transfer")
	sub.SetDescription("move funds from the authority account")
	sub.SetFlags(
		cli.StringFlag{
			Name:     "to",
			Required: true,
			Usage:    "base64 identity of the receiving account",
		},
		amountFlag(),
	)
	sub.SetAction(builder.MakeAction(transferAction{}))

	sub = cmd.SetSubCommand("balance")
	sub.SetDescription("read the balance of an account")
	sub.SetFlags(accountFlag(false))
	sub.SetAction(builder.MakeAction(balanceAction{}))
}

// OnStart implements node.Initializer. It registers the ledger and its
// actions, replays the funds of the genesis file and registers the balance
// handler on the proxy.
func (m minimal) OnStart(flags cli.Flags, inj node.Injector) error {
	var dispatcher *action.Service
	err := inj.Resolve(&dispatcher)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var reg *registry.Registry
	err = inj.Resolve(&reg)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var signer crypto.Signer
	err = inj.Resolve(&signer)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	ldgr := bank.NewLedger(dispatcher)

	err = reg.Register(signer.GetPublicKey(), bank.ComponentName, ldgr)
	if err != nil {
		return xerrors.Errorf("failed to register ledger: %v", err)
	}

	bank.RegisterActions(dispatcher, reg)

	err = m.applyGenesis(flags, inj)
	if err != nil {
		return err
	}

	registerHandler(inj, ldgr)

	return nil
}

// OnStop implements node.Initializer. It does nothing.
func (m minimal) OnStop(node.Injector) error {
	return nil
}

func (m minimal) applyGenesis(flags cli.Flags, inj node.Injector) error {
	if flags.String("genesis") == "" {
		return nil
	}

	genesis, err := kernelctl.LoadGenesis(flags.String("genesis"))
	if err != nil {
		return xerrors.Errorf("genesis: %v", err)
	}

	if len(genesis.Funds) == 0 {
		return nil
	}

	var kernel kernelctl.Kernel
	err = inj.Resolve(&kernel)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var mgr *signed.TransactionManager
	err = inj.Resolve(&mgr)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	for _, entry := range genesis.Funds {
		err = kernelctl.Apply(kernel, mgr,
			txn.Arg{Key: action.ActionArg, Value: []byte(bank.ActionDeposit)},
			txn.Arg{Key: bank.AccountArg, Value: []byte(entry.Identity)},
			txn.Arg{Key: bank.AmountArg, Value: []byte(fmt.Sprintf("%d", entry.Amount))},
		)
		if err != nil {
			return xerrors.Errorf("failed to apply fund: %v", err)
		}
	}

	return nil
}

func registerHandler(inj node.Injector, ldgr *bank.Ledger) {
	var proxyhttp proxy.Proxy

	err := inj.Resolve(&proxyhttp)
	if err != nil {
		acta.Logger.Warn().Msg("no proxy server, skipping http handlers")
		return
	}

	var db kv.DB

	err = inj.Resolve(&db)
	if err != nil {
		acta.Logger.Warn().Msg("no database, skipping http handlers")
		return
	}

	handler := balanceHandler{db: db, ldgr: ldgr}

	proxyhttp.RegisterHandler("/bank/balance", handler.ServeHTTP)
}

// balanceHandler replies with the balance of the account in the query.
//
// - implements http.Handler
type balanceHandler struct {
	db   kv.DB
	ldgr *bank.Ledger
}

// ServeHTTP implements http.Handler. It reads the base64 identity in the
// "account" query parameter and replies with its balance.
func (h balanceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ident, err := decodeIdentity(r.URL.Query().Get("account"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	balance := uint64(0)

	err = h.db.View(func(dtx kv.ReadableTx) error {
		bucket := dtx.GetBucket(kernelctl.BucketName())
		if bucket == nil {
			return nil
		}

		var err error
		balance, err = h.ldgr.Balance(kv.NewSnapshot(bucket), ident)

		return err
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read balance: %v", err), http.StatusInternalServerError)
		return
	}

	reply := struct {
		Balance uint64 `json:"balance"`
	}{Balance: balance}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reply)
}

// depositAction executes a bank.deposit transaction signed by the
// authority.
//
// - implements node.ActionTemplate
type depositAction struct{}

// Execute implements node.ActionTemplate. It credits the account.
func (a depositAction) Execute(ctx node.Context) error {
	err := apply(ctx, bank.ActionDeposit,
		txn.Arg{Key: bank.AccountArg, Value: []byte(ctx.Flags.String("account"))},
		txn.Arg{Key: bank.AmountArg, Value: []byte(ctx.Flags.String("amount"))},
	)
	if err != nil {
		return xerrors.Errorf("failed to deposit: %v", err)
	}

	fmt.Fprintf(ctx.Out, "deposited %s to %s",
		ctx.Flags.String("amount"), ctx.Flags.String("account"))

	return nil
}

// withdrawAction executes a bank.withdraw transaction signed by the
// authority.
//
// - implements node.ActionTemplate
type withdrawAction struct{}

// Execute implements node.ActionTemplate. It debits the account.
func (a withdrawAction) Execute(ctx node.Context) error {
	err := apply(ctx, bank.ActionWithdraw,
		txn.Arg{Key: bank.AccountArg, Value: []byte(ctx.Flags.String("account"))},
		txn.Arg{Key: bank.AmountArg, Value: []byte(ctx.Flags.String("amount"))},
	)
	if err != nil {
		return xerrors.Errorf("failed to withdraw: %v", err)
	}

	fmt.Fprintf(ctx.Out, "withdrew %s from %s",
		ctx.Flags.String("amount"), ctx.Flags.String("account"))

	return nil
}

// transferAction executes a bank.transfer transaction signed by the
// authority, moving funds from the authority account.
//
// - implements node.ActionTemplate
type transferAction struct{}

// Execute implements node.ActionTemplate. It transfers the amount.
func (a transferAction) Execute(ctx node.Context) error {
	err := apply(ctx, bank.ActionTransfer,
		txn.Arg{Key: bank.ToArg, Value: []byte(ctx.Flags.String("to"))},
		txn.Arg{Key: bank.AmountArg, Value: []byte(ctx.Flags.String("amount"))},
	)
	if err != nil {
		return xerrors.Errorf("failed to transfer: %v", err)
	}

	fmt.Fprintf(ctx.Out, "transferred %s to %s",
		ctx.Flags.String("amount"), ctx.Flags.String("to"))

	return nil
}

// balanceAction prints the balance of an account. Without an account flag
// it prints the balance of the authority.
//
// - implements node.ActionTemplate
type balanceAction struct{}

// Execute implements node.ActionTemplate. It prints the balance.
func (a balanceAction) Execute(ctx node.Context) error {
	var db kv.DB
	err := ctx.Injector.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var reg *registry.Registry
	err = ctx.Injector.Resolve(&reg)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var ldgr *bank.Ledger
	err = reg.Resolve(bank.ComponentName, &ldgr)
	if err != nil {
		return xerrors.Errorf("couldn't resolve ledger: %v", err)
	}

	var ident access.Identity

	if ctx.Flags.String("account") != "" {
		ident, err = decodeIdentity(ctx.Flags.String("account"))
		if err != nil {
			return err
		}
	} else {
		var signer crypto.Signer
		err = ctx.Injector.Resolve(&signer)
		if err != nil {
			return xerrors.Errorf("injector: %v", err)
		}

		ident = signer.GetPublicKey()
	}

	balance := uint64(0)

	err = db.View(func(dtx kv.ReadableTx) error {
		bucket := dtx.GetBucket(kernelctl.BucketName())
		if bucket == nil {
			return nil
		}

		var err error
		balance, err = ldgr.Balance(kv.NewSnapshot(bucket), ident)

		return err
	})
	if err != nil {
		return xerrors.Errorf("failed to read balance: %v", err)
	}

	fmt.Fprintf(ctx.Out, "%d", balance)

	return nil
}

func apply(ctx node.Context, name string, args ...txn.Arg) error {
	var kernel kernelctl.Kernel
	err := ctx.Injector.Resolve(&kernel)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var mgr *signed.TransactionManager
	err = ctx.Injector.Resolve(&mgr)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	err = mgr.Sync()
	if err != nil {
		return xerrors.Errorf("manager: %v", err)
	}

	args = append(args, txn.Arg{Key: action.ActionArg, Value: []byte(name)})

	return kernelctl.Apply(kernel, mgr, args...)
}

func decodeIdentity(value string) (access.Identity, error) {
	if value == "" {
		return nil, xerrors.New("account is empty")
	}

	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode base64 identity: %v", err)
	}

	pubkey, err := bls.NewPublicKey(data)
	if err != nil {
		return nil, xerrors.Errorf("failed to get public key: %v", err)
	}

	return pubkey, nil
}

func accountFlag(required bool) cli.Flag {
	return cli.StringFlag{
		Name:     "account",
		Required: required,
		Usage:    "base64 identity of the account",
	}
}

func amountFlag() cli.Flag {
	return cli.StringFlag{
		Name:     "amount",
		Required: true,
		Usage:    "the amount, as a decimal value",
	}
}
