package controller

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/acta/actions/bank"
	"go.dedis.ch/acta/cli/node"
	"go.dedis.ch/acta/core/access"
	"go.dedis.ch/acta/core/execution/action"
	kernelctl "go.dedis.ch/acta/core/execution/action/controller"
	"go.dedis.ch/acta/core/registry"
	"go.dedis.ch/acta/core/store/kv"
	"go.dedis.ch/acta/crypto"
	"go.dedis.ch/acta/crypto/bls"
)

func TestMinimal_SetCommands(t *testing.T) {
	m := NewController()
	m.SetCommands(node.NewBuilder())
}

func TestMinimal_OnStart(t *testing.T) {
	inj, fset, db := makeNode(t)

	alice := newIdentity(t)

	fset["genesis"] = makeGenesis(t, `
funds:
  - identity: `+alice.arg+`
    amount: 1000
`)

	m := NewController()

	err := m.OnStart(fset, inj)
	require.NoError(t, err)

	var dispatcher *action.Service
	require.NoError(t, inj.Resolve(&dispatcher))
	require.Contains(t, dispatcher.GetActions(), bank.ActionDeposit)

	var reg *registry.Registry
	require.NoError(t, inj.Resolve(&reg))
	require.Equal(t, []string{bank.ComponentName}, reg.Names())

	require.Equal(t, uint64(1000), balanceOf(t, reg, db, alice.pubkey))

	require.NoError(t, m.OnStop(inj))

	// The component name can only be taken once.
	err = m.OnStart(fset, inj)
	require.EqualError(t, err,
		"failed to register ledger: component 'bank' already registered")

	err = m.OnStart(fset, node.NewInjector())
	require.EqualError(t, err,
		"injector: couldn't find dependency for '*action.Service'")
}

func TestMinimal_OnStart_RejectedGenesis(t *testing.T) {
	inj, fset, _ := makeNode(t)

	alice := newIdentity(t)

	fset["genesis"] = makeGenesis(t, `
funds:
  - identity: `+alice.arg+`
    amount: 0
`)

	err := NewController().OnStart(fset, inj)
	require.Error(t, err)
	require.Contains(t, err.Error(),
		"failed to apply fund: transaction rejected: failed to deposit: amount must be positive")
}

func TestDepositAction_Execute(t *testing.T) {
	inj, _, db := makeNode(t)
	startBank(t, inj)

	alice := newIdentity(t)

	out := new(bytes.Buffer)

	err := depositAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{"account": alice.arg, "amount": "500"},
		Out:      out,
	})
	require.NoError(t, err)
	require.Equal(t, "deposited 500 to "+alice.arg, out.String())

	var reg *registry.Registry
	require.NoError(t, inj.Resolve(&reg))
	require.Equal(t, uint64(500), balanceOf(t, reg, db, alice.pubkey))

	err = depositAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{"account": alice.arg, "amount": "abc"},
		Out:      out,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to deposit: transaction rejected: ")
}

func TestWithdrawAction_Execute(t *testing.T) {
	inj, _, db := makeNode(t)
	startBank(t, inj)

	alice := newIdentity(t)

	out := new(bytes.Buffer)

	err := depositAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{"account": alice.arg, "amount": "500"},
		Out:      out,
	})
	require.NoError(t, err)

	out.Reset()

	err = withdrawAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{"account": alice.arg, "amount": "200"},
		Out:      out,
	})
	require.NoError(t, err)
	require.Equal(t, "withdrew 200 from "+alice.arg, out.String())

	var reg *registry.Registry
	require.NoError(t, inj.Resolve(&reg))
	require.Equal(t, uint64(300), balanceOf(t, reg, db, alice.pubkey))
}

func TestTransferAction_Execute(t *testing.T) {
	inj, _, db := makeNode(t)
	startBank(t, inj)

	alice := newIdentity(t)

	var signer crypto.Signer
	require.NoError(t, inj.Resolve(&signer))

	authority := base64Of(t, signer.GetPublicKey())

	out := new(bytes.Buffer)

	err := depositAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{"account": authority, "amount": "100"},
		Out:      out,
	})
	require.NoError(t, err)

	out.Reset()

	err = transferAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{"to": alice.arg, "amount": "40"},
		Out:      out,
	})
	require.NoError(t, err)
	require.Equal(t, "transferred 40 to "+alice.arg, out.String())

	var reg *registry.Registry
	require.NoError(t, inj.Resolve(&reg))
	require.Equal(t, uint64(40), balanceOf(t, reg, db, alice.pubkey))
	require.Equal(t, uint64(60), balanceOf(t, reg, db, signer.GetPublicKey()))
}

func TestBalanceAction_Execute(t *testing.T) {
	inj, _, _ := makeNode(t)
	startBank(t, inj)

	alice := newIdentity(t)

	out := new(bytes.Buffer)

	err := balanceAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{"account": alice.arg},
		Out:      out,
	})
	require.NoError(t, err)
	require.Equal(t, "0", out.String())

	out.Reset()

	// Without an account the balance of the authority is printed.
	err = balanceAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{},
		Out:      out,
	})
	require.NoError(t, err)
	require.Equal(t, "0", out.String())

	err = balanceAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{"account": "!!!"},
		Out:      out,
	})
	require.EqualError(t, err,
		"failed to decode base64 identity: illegal base64 data at input byte 0")
}

func TestBalanceHandler_ServeHTTP(t *testing.T) {
	inj, _, db := makeNode(t)
	startBank(t, inj)

	alice := newIdentity(t)

	err := depositAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{"account": alice.arg, "amount": "750"},
		Out:      new(bytes.Buffer),
	})
	require.NoError(t, err)

	var reg *registry.Registry
	require.NoError(t, inj.Resolve(&reg))

	var ldgr *bank.Ledger
	require.NoError(t, reg.Resolve(bank.ComponentName, &ldgr))

	handler := balanceHandler{db: db, ldgr: ldgr}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet,
		"/bank/balance?account="+url.QueryEscape(alice.arg), nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"balance":750}`, rr.Body.String())

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/bank/balance", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

// -----------------------------------------------------------------------------
// Utility functions

func makeNode(t *testing.T) (node.Injector, node.FlagSet, kv.DB) {
	t.Helper()

	dir := t.TempDir()

	db, err := kv.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	inj := node.NewInjector()
	inj.Inject(db)

	fset := make(node.FlagSet)
	fset["config"] = dir
	fset["clientaddr"] = "127.0.0.1:0"

	require.NoError(t, kernelctl.NewController().OnStart(fset, inj))

	return inj, fset, db
}

func startBank(t *testing.T, inj node.Injector) {
	t.Helper()

	require.NoError(t, NewController().OnStart(make(node.FlagSet), inj))
}

func makeGenesis(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "genesis.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	return path
}

func balanceOf(t *testing.T, reg *registry.Registry, db kv.DB,
	ident access.Identity) uint64 {

	t.Helper()

	var ldgr *bank.Ledger
	require.NoError(t, reg.Resolve(bank.ComponentName, &ldgr))

	balance := uint64(0)

	err := db.View(func(dtx kv.ReadableTx) error {
		bucket := dtx.GetBucket(kernelctl.BucketName())
		require.NotNil(t, bucket)

		var err error
		balance, err = ldgr.Balance(kv.NewSnapshot(bucket), ident)

		return err
	})
	require.NoError(t, err)

	return balance
}

type identity struct {
	pubkey crypto.PublicKey
	arg    string
}

func newIdentity(t *testing.T) identity {
	t.Helper()

	pubkey := bls.NewSigner().GetPublicKey()

	return identity{
		pubkey: pubkey,
		arg:    base64Of(t, pubkey),
	}
}

func base64Of(t *testing.T, pubkey crypto.PublicKey) string {
	t.Helper()

	data, err := pubkey.MarshalBinary()
	require.NoError(t, err)

	return base64.StdEncoding.EncodeToString(data)
}
