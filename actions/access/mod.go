// Package access implements the actions that manage the permission levels
// of identities.
//
// Identities travel base64 encoded in the transaction arguments, separated
// by comas when an action accepts several of them. Levels are given by
// name or by numeric value.
package access

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"go.dedis.ch/acta"
	"go.dedis.ch/acta/core/access"
	"go.dedis.ch/acta/core/access/rank"
	"go.dedis.ch/acta/core/execution"
	"go.dedis.ch/acta/core/execution/action"
	"go.dedis.ch/acta/core/store"
	"go.dedis.ch/acta/crypto/bls"
	"golang.org/x/xerrors"
)

const (
	// IdentityArg is the argument's name in the transaction that contains
	// the base64 encoded identities, separated by comas.
	IdentityArg = "access:identity"

	// LevelArg is the argument's name in the transaction that contains the
	// level to grant, by name or by numeric value.
	LevelArg = "access:level"
)

const (
	// ActionGrant is the name of the action that grants a level to
	// identities.
	ActionGrant = "access.grant"

	// ActionRevoke is the name of the action that removes identities from
	// the ranking.
	ActionRevoke = "access.revoke"

	// ActionShow is the name of the action that prints the ranking.
	ActionShow = "access.show"
)

// RegisterActions registers the access actions to the dispatcher.
func RegisterActions(srvc *action.Service, asrvc rank.Service) {
	base := serviceAction{access: asrvc, printer: infoLog{}}

	srvc.Set(ActionGrant, GrantAction{base})
	srvc.Set(ActionRevoke, RevokeAction{base})
	srvc.Set(ActionShow, ShowAction{base})
}

// serviceAction is the common base of the access actions.
type serviceAction struct {
	access  rank.Service
	printer io.Writer
}

// GrantAction updates the ranking so that the identities in the arguments
// hold the level in the arguments.
//
// - implements action.Action
type GrantAction struct {
	serviceAction
}

// Execute implements action.Action. It grants the level to the identities.
func (a GrantAction) Execute(sess action.Session, snap store.Snapshot, step execution.Step) error {
	idents, err := decodeIdentities(step)
	if err != nil {
		return err
	}

	level, err := decodeLevel(step)
	if err != nil {
		return err
	}

	err = a.access.Grant(snap, level, idents...)
	if err != nil {
		return xerrors.Errorf("failed to grant: %v", err)
	}

	acta.Logger.Info().Str("action", ActionGrant).
		Msgf("granted %v to %v", level, idents)

	return nil
}

// Requirement implements action.Action. Changing the ranking is reserved
// to the admin.
func (a GrantAction) Requirement() access.Level {
	return access.Admin
}

// RevokeAction removes the identities in the arguments from the ranking,
// leaving them with the default level.
//
// - implements action.Action
type RevokeAction struct {
	serviceAction
}

// Execute implements action.Action. It revokes the identities.
func (a RevokeAction) Execute(sess action.Session, snap store.Snapshot, step execution.Step) error {
	idents, err := decodeIdentities(step)
	if err != nil {
		return err
	}

	err = a.access.Revoke(snap, idents...)
	if err != nil {
		return xerrors.Errorf("failed to revoke: %v", err)
	}

	acta.Logger.Info().Str("action", ActionRevoke).
		Msgf("revoked %v", idents)

	return nil
}

// Requirement implements action.Action. Changing the ranking is reserved
// to the admin.
func (a RevokeAction) Requirement() access.Level {
	return access.Admin
}

// ShowAction prints the levels of the identities in the arguments, or the
// whole ranking when no identity is given.
//
// - implements action.Action
type ShowAction struct {
	serviceAction
}

// Execute implements action.Action. It prints "identity=level" pairs,
// separated by comas and sorted by identity.
func (a ShowAction) Execute(sess action.Session, snap store.Snapshot, step execution.Step) error {
	res := []string{}

	if len(step.Current.GetArg(IdentityArg)) > 0 {
		idents, err := decodeIdentities(step)
		if err != nil {
			return err
		}

		for _, ident := range idents {
			level, err := a.access.LevelOf(snap, ident)
			if err != nil {
				return xerrors.Errorf("failed to read level: %v", err)
			}

			res = append(res, formatRank(ident, level))
		}
	} else {
		ranks, err := a.access.GetRanks(snap)
		if err != nil {
			return xerrors.Errorf("failed to read ranking: %v", err)
		}

		for _, rank := range ranks {
			res = append(res, formatRank(rank.Identity, rank.Level))
		}
	}

	fmt.Fprint(a.printer, strings.Join(res, ","))

	return nil
}

// Requirement implements action.Action. Reading the ranking is open.
func (a ShowAction) Requirement() access.Level {
	return access.None
}

func formatRank(ident access.Identity, level access.Level) string {
	text, err := ident.MarshalText()
	if err != nil {
		text = []byte(fmt.Sprintf("%v", ident))
	}

	return fmt.Sprintf("%s=%s", text, level)
}

func decodeIdentities(step execution.Step) ([]access.Identity, error) {
	value := step.Current.GetArg(IdentityArg)
	if len(value) == 0 {
		return nil, xerrors.Errorf("'%s' not found in tx arg", IdentityArg)
	}

	parts := strings.Split(string(value), ",")

	idents := make([]access.Identity, len(parts))
	for i, part := range parts {
		data, err := base64.StdEncoding.DecodeString(part)
		if err != nil {
			return nil, xerrors.Errorf("failed to decode base64 identity: %v", err)
		}

		pubkey, err := bls.NewPublicKey(data)
		if err != nil {
			return nil, xerrors.Errorf("failed to get public key: %v", err)
		}

		idents[i] = pubkey
	}

	return idents, nil
}

func decodeLevel(step execution.Step) (access.Level, error) {
	value := step.Current.GetArg(LevelArg)
	if len(value) == 0 {
		return access.None, xerrors.Errorf("'%s' not found in tx arg", LevelArg)
	}

	level, err := access.ParseLevel(string(value))
	if err != nil {
		return access.None, xerrors.Errorf("failed to parse level: %v", err)
	}

	return level, nil
}

// infoLog defines an output using zerolog
//
// - implements io.Writer
type infoLog struct{}

func (h infoLog) Write(p []byte) (int, error) {
	acta.Logger.Info().Msg(string(p))

	return len(p), nil
}
