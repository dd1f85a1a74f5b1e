// Package controller implements a controller for the kernel. It loads the
// authority key, builds the permission store, the registry and the
// dispatcher, and wires them together over the database of the node.
package controller

import (
	"path/filepath"

	"go.dedis.ch/acta"
	"go.dedis.ch/acta/cli"
	"go.dedis.ch/acta/cli/node"
	"go.dedis.ch/acta/core/access"
	"go.dedis.ch/acta/core/access/rank"
	"go.dedis.ch/acta/core/execution/action"
	"go.dedis.ch/acta/core/registry"
	"go.dedis.ch/acta/core/store/kv"
	"go.dedis.ch/acta/core/txn"
	"go.dedis.ch/acta/core/txn/signed"
	"go.dedis.ch/acta/crypto"
	"go.dedis.ch/acta/crypto/bls"
	"go.dedis.ch/acta/crypto/loader"
	"go.dedis.ch/acta/internal/tracing"
	"go.dedis.ch/acta/serde/json"
	"golang.org/x/xerrors"

	_ "go.dedis.ch/acta/core/access/rank/json"
	_ "go.dedis.ch/acta/core/txn/signed/json"
	_ "go.dedis.ch/acta/crypto/bls/json"
	_ "go.dedis.ch/acta/crypto/common/json"
)

// privateKeyFile is the name of the authority key file inside the config
// directory.
const privateKeyFile = "private.key"

// NewController returns a controller for the kernel.
func NewController() node.Initializer {
	return minimal{}
}

// minimal is a CLI initializer that builds the kernel of the node.
//
// - implements node.Initializer
type minimal struct{}

// SetCommands implements node.Initializer. It sets the genesis flag and the
// commands to inspect the dispatcher and the registry.
func (m minimal) SetCommands(builder node.Builder) {
	builder.SetStartFlags(cli.StringFlag{
		Name:     "genesis",
		Required: false,
		Usage:    "path to the genesis file",
	})

	cmd := builder.SetCommand("actions")
	cmd.SetDescription("Dispatcher administration")

	sub := cmd.SetSubCommand("list")
	sub.SetDescription("list the registered actions")
	sub.SetAction(builder.MakeAction(listActionsAction{}))

	cmd = builder.SetCommand("components")
	cmd.SetDescription("Registry administration")

	sub = cmd.SetSubCommand("list")
	sub.SetDescription("list the registered components")
	sub.SetAction(builder.MakeAction(listComponentsAction{}))
}

// OnStart implements node.Initializer. It builds the kernel and injects its
// parts for the other controllers.
func (m minimal) OnStart(flags cli.Flags, inj node.Injector) error {
	var db kv.DB
	err := inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	signer, err := loadSigner(filepath.Join(flags.Path("config"), privateKeyFile))
	if err != nil {
		return xerrors.Errorf("signer: %v", err)
	}

	asrvc := rank.NewService(json.NewContext())

	reg, err := registry.NewRegistry(signer.GetPublicKey())
	if err != nil {
		return xerrors.Errorf("registry: %v", err)
	}

	dispatcher := action.NewService(asrvc)

	tracer, err := tracing.GetTracerForAddr(flags.String("clientaddr"))
	if err != nil {
		acta.Logger.Warn().Msgf("failed to create tracer: %v", err)
	} else {
		dispatcher.SetTracer(tracer)
	}

	kernel := NewKernel(db, dispatcher)

	err = bootstrap(db, asrvc, signer.GetPublicKey())
	if err != nil {
		return xerrors.Errorf("bootstrap: %v", err)
	}

	mgr := signed.NewManager(signer, kernel)

	err = mgr.Sync()
	if err != nil {
		return xerrors.Errorf("manager: %v", err)
	}

	inj.Inject(signer)
	inj.Inject(asrvc)
	inj.Inject(reg)
	inj.Inject(dispatcher)
	inj.Inject(kernel)
	inj.Inject(mgr)

	registerHandlers(inj, kernel, dispatcher, reg)

	return nil
}

// OnStop implements node.Initializer. The database and the proxy are owned
// by their own controllers, so there is nothing to stop.
func (m minimal) OnStop(node.Injector) error {
	return nil
}

// Apply creates an authority-signed transaction from the arguments and
// executes it. It returns an error when the transaction is not accepted.
func Apply(kernel Kernel, mgr txn.Manager, args ...txn.Arg) error {
	tx, err := mgr.Make(args...)
	if err != nil {
		return xerrors.Errorf("failed to make tx: %v", err)
	}

	res, err := kernel.Execute(tx)
	if err != nil {
		return err
	}

	if !res.Accepted {
		return xerrors.Errorf("transaction rejected: %s", res.Message)
	}

	return nil
}

// bootstrap grants the admin level to the authority key when the ranking is
// still empty, so that a fresh node can execute its genesis transactions.
func bootstrap(db kv.DB, asrvc rank.Service, authority access.Identity) error {
	return db.Update(func(dtx kv.WritableTx) error {
		bucket, err := dtx.GetBucketOrCreate(bucketName)
		if err != nil {
			return xerrors.Errorf("bucket failed: %v", err)
		}

		snap := kv.NewSnapshot(bucket)

		ranks, err := asrvc.GetRanks(snap)
		if err != nil {
			return xerrors.Errorf("failed to read ranking: %v", err)
		}

		if len(ranks) > 0 {
			return nil
		}

		err = asrvc.Grant(snap, access.Admin, authority)
		if err != nil {
			return xerrors.Errorf("failed to grant: %v", err)
		}

		acta.Logger.Info().Msg("granted admin to the authority key")

		return nil
	})
}

func loadSigner(path string) (crypto.AggregateSigner, error) {
	data, err := loader.NewFileLoader(path).LoadOrCreate(generator{})
	if err != nil {
		return nil, xerrors.Errorf("while loading %s: %v", path, err)
	}

	signer, err := bls.NewSignerFromBytes(data)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal signer: %v", err)
	}

	return signer, nil
}

// generator creates a new authority key.
//
// - implements loader.Generator
type generator struct{}

// Generate implements loader.Generator. It returns the marshaled data of a
// fresh signer.
func (generator) Generate() ([]byte, error) {
	data, err := bls.NewSigner().MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal signer: %v", err)
	}

	return data, nil
}
