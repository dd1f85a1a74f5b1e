// Package controller implements a controller for the access actions. It
// registers them to the dispatcher, replays the ranks of the genesis file
// and provides the commands to manage the ranking from the CLI.
package controller

import (
	"fmt"
	"strings"

	"go.dedis.ch/acta/actions/access"
	"go.dedis.ch/acta/cli"
	"go.dedis.ch/acta/cli/node"
	"go.dedis.ch/acta/core/access/rank"
	"go.dedis.ch/acta/core/execution/action"
	kernelctl "go.dedis.ch/acta/core/execution/action/controller"
	"go.dedis.ch/acta/core/store/kv"
	"go.dedis.ch/acta/core/txn"
	"go.dedis.ch/acta/core/txn/signed"
	"golang.org/x/xerrors"
)

// NewController returns a controller for the access actions.
func NewController() node.Initializer {
	return minimal{}
}

// minimal is a CLI initializer for the access actions.
//
// - implements node.Initializer
type minimal struct{}

// SetCommands implements node.Initializer. It sets the commands to manage
// the ranking.
func (m minimal) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("access")
	cmd.SetDescription("Ranking administration")

	sub := cmd.SetSubCommand("grant")
	sub.SetDescription("grant a level to identities")
	sub.SetFlags(
		cli.StringFlag{
			Name:     "identity",
			Required: true,
			Usage:    "base64 identities separated by comas",
		},
		cli.StringFlag{
			Name:     "level",
			Required: true,
			Usage:    "the level to grant, by name or numeric value",
		},
	)
	sub.SetAction(builder.MakeAction(grantAction{}))

	sub = cmd.SetSubCommand("revoke")
	sub.SetDescription("remove identities from the ranking")
	sub.SetFlags(cli.StringFlag{
		Name:     "identity",
		Required: true,
		Usage:    "base64 identities separated by comas",
	})
	sub.SetAction(builder.MakeAction(revokeAction{}))

	sub = cmd.SetSubCommand("show")
	sub.SetDescription("show the ranking")
	sub.SetAction(builder.MakeAction(showAction{}))
}

// OnStart implements node.Initializer. It registers the access actions to
// the dispatcher and replays the ranks of the genesis file.
func (m minimal) OnStart(flags cli.Flags, inj node.Injector) error {
	var dispatcher *action.Service
	err := inj.Resolve(&dispatcher)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var asrvc rank.Service
	err = inj.Resolve(&asrvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	access.RegisterActions(dispatcher, asrvc)

	if flags.String("genesis") == "" {
		return nil
	}

	genesis, err := kernelctl.LoadGenesis(flags.String("genesis"))
	if err != nil {
		return xerrors.Errorf("genesis: %v", err)
	}

	if len(genesis.Ranks) == 0 {
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

	for _, entry := range genesis.Ranks {
		err = kernelctl.Apply(kernel, mgr,
			txn.Arg{Key: action.ActionArg, Value: []byte(access.ActionGrant)},
			txn.Arg{Key: access.IdentityArg, Value: []byte(entry.Identity)},
			txn.Arg{Key: access.LevelArg, Value: []byte(entry.Level)},
		)
		if err != nil {
			return xerrors.Errorf("failed to apply rank: %v", err)
		}
	}

	return nil
}

// OnStop implements node.Initializer. It does nothing.
func (m minimal) OnStop(node.Injector) error {
	return nil
}

// grantAction executes an access.grant transaction signed by the authority.
//
// - implements node.ActionTemplate
type grantAction struct{}

// Execute implements node.ActionTemplate. It grants the level to the
// identities.
func (a grantAction) Execute(ctx node.Context) error {
	kernel, mgr, err := resolveKernel(ctx.Injector)
	if err != nil {
		return err
	}

	err = kernelctl.Apply(kernel, mgr,
		txn.Arg{Key: action.ActionArg, Value: []byte(access.ActionGrant)},
		txn.Arg{Key: access.IdentityArg, Value: []byte(ctx.Flags.String("identity"))},
		txn.Arg{Key: access.LevelArg, Value: []byte(ctx.Flags.String("level"))},
	)
	if err != nil {
		return xerrors.Errorf("failed to grant: %v", err)
	}

	fmt.Fprintf(ctx.Out, "granted %s to %s",
		ctx.Flags.String("level"), ctx.Flags.String("identity"))

	return nil
}

// revokeAction executes an access.revoke transaction signed by the
// authority.
//
// - implements node.ActionTemplate
type revokeAction struct{}

// Execute implements node.ActionTemplate. It revokes the identities.
func (a revokeAction) Execute(ctx node.Context) error {
	kernel, mgr, err := resolveKernel(ctx.Injector)
	if err != nil {
		return err
	}

	err = kernelctl.Apply(kernel, mgr,
		txn.Arg{Key: action.ActionArg, Value: []byte(access.ActionRevoke)},
		txn.Arg{Key: access.IdentityArg, Value: []byte(ctx.Flags.String("identity"))},
	)
	if err != nil {
		return xerrors.Errorf("failed to revoke: %v", err)
	}

	fmt.Fprintf(ctx.Out, "revoked %s", ctx.Flags.String("identity"))

	return nil
}

// showAction prints the ranking.
//
// - implements node.ActionTemplate
type showAction struct{}

// Execute implements node.ActionTemplate. It prints one "identity=level"
// pair per line, sorted by identity.
func (a showAction) Execute(ctx node.Context) error {
	var db kv.DB
	err := ctx.Injector.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var asrvc rank.Service
	err = ctx.Injector.Resolve(&asrvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	res := []string{}

	err = db.View(func(dtx kv.ReadableTx) error {
		bucket := dtx.GetBucket(kernelctl.BucketName())
		if bucket == nil {
			return nil
		}

		ranks, err := asrvc.GetRanks(kv.NewSnapshot(bucket))
		if err != nil {
			return xerrors.Errorf("failed to read ranking: %v", err)
		}

		for _, rank := range ranks {
			text, err := rank.Identity.MarshalText()
			if err != nil {
				return xerrors.Errorf("couldn't marshal identity: %v", err)
			}

			res = append(res, fmt.Sprintf("%s=%s", text, rank.Level))
		}

		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprint(ctx.Out, strings.Join(res, "\n"))

	return nil
}

func resolveKernel(inj node.Injector) (kernelctl.Kernel, *signed.TransactionManager, error) {
	var kernel kernelctl.Kernel
	err := inj.Resolve(&kernel)
	if err != nil {
		return kernel, nil, xerrors.Errorf("injector: %v", err)
	}

	var mgr *signed.TransactionManager
	err = inj.Resolve(&mgr)
	if err != nil {
		return kernel, nil, xerrors.Errorf("injector: %v", err)
	}

	err = mgr.Sync()
	if err != nil {
		return kernel, nil, xerrors.Errorf("manager: %v", err)
	}

	return kernel, mgr, nil
}
