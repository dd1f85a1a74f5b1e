package controller

import (
	"fmt"
	"strings"

	"go.dedis.ch/acta/cli/node"
	"go.dedis.ch/acta/core/execution/action"
	"go.dedis.ch/acta/core/registry"
	"golang.org/x/xerrors"
)

// listActionsAction prints the names of the registered actions.
//
// - implements node.ActionTemplate
type listActionsAction struct{}

// Execute implements node.ActionTemplate. It prints one action name per
// line.
func (a listActionsAction) Execute(ctx node.Context) error {
	var dispatcher *action.Service

	err := ctx.Injector.Resolve(&dispatcher)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	fmt.Fprint(ctx.Out, strings.Join(dispatcher.GetActions(), "\n"))

	return nil
}

// listComponentsAction prints the names of the registered components.
//
// - implements node.ActionTemplate
type listComponentsAction struct{}

// Execute implements node.ActionTemplate. It prints one component name per
// line.
func (a listComponentsAction) Execute(ctx node.Context) error {
	var reg *registry.Registry

	err := ctx.Injector.Resolve(&reg)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	fmt.Fprint(ctx.Out, strings.Join(reg.Names(), "\n"))

	return nil
}
