// Package controller implements a controller that opens the key/value
// database of the node and injects it for the other controllers.
package controller

import (
	"path/filepath"

	"go.dedis.ch/acta/cli"
	"go.dedis.ch/acta/cli/node"
	"go.dedis.ch/acta/core/store/kv"
	"golang.org/x/xerrors"
)

// minimal is a CLI initializer that opens the database in the config folder.
//
// - implements node.Initializer
type minimal struct{}

// NewController returns a controller for the key/value database.
func NewController() node.Initializer {
	return minimal{}
}

// SetCommands implements node.Initializer. It does not set any command.
func (m minimal) SetCommands(builder node.Builder) {}

// OnStart implements node.Initializer. It opens the database and injects it.
func (m minimal) OnStart(flags cli.Flags, inj node.Injector) error {
	db, err := kv.New(filepath.Join(flags.Path("config"), "acta.db"))
	if err != nil {
		return xerrors.Errorf("db: %v", err)
	}

	inj.Inject(db)

	return nil
}

// OnStop implements node.Initializer. It closes the database.
func (m minimal) OnStop(inj node.Injector) error {
	var db kv.DB
	err := inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	err = db.Close()
	if err != nil {
		return xerrors.Errorf("while closing db: %v", err)
	}

	return nil
}
