// Package access defines the interfaces for the permission store.
//
// The permission store maps principal identities to permission levels. An
// action declares the level it requires and the dispatcher consults the store
// before invoking it.
package access

import (
	"encoding"
	"fmt"

	"go.dedis.ch/acta/core/store"
	"go.dedis.ch/acta/serde"
)

// Identity is an abstraction to uniquely identify a signer.
type Identity interface {
	serde.Message
	encoding.TextMarshaler
}

// Level is a permission level. An identity holding a level is allowed to
// invoke any action requiring this level or a lower one.
type Level uint8

const (
	// None is the default level of an unknown identity. Actions requiring it
	// are open to any signed caller.
	None Level = iota

	// User is the level of a regular account.
	User

	// Operator is the level of an account operating a subsystem.
	Operator

	// Admin is the level of the system authority.
	Admin
)

// String implements fmt.Stringer. It returns the human readable name of the
// level.
func (l Level) String() string {
	switch l {
	case None:
		return "none"
	case User:
		return "user"
	case Operator:
		return "operator"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("level[%d]", uint8(l))
	}
}

// ParseLevel returns the level named by the string, which can either be one of
// the named tiers or a numeric value.
func ParseLevel(value string) (Level, error) {
	switch value {
	case "none", "0":
		return None, nil
	case "user", "1":
		return User, nil
	case "operator", "2":
		return Operator, nil
	case "admin", "3":
		return Admin, nil
	default:
		return None, fmt.Errorf("unknown level '%s'", value)
	}
}

// Service is an access service to grant and verify permission levels of
// identities.
type Service interface {
	// Match returns nil if every identity holds at least the required level,
	// otherwise a meaningful error on the reason access is denied.
	Match(store store.Readable, required Level, idents ...Identity) error

	// Grant updates the store so that the identities hold the given level.
	Grant(store store.Snapshot, level Level, idents ...Identity) error

	// Revoke removes the identities from the store, leaving them with the
	// default level.
	Revoke(store store.Snapshot, idents ...Identity) error

	// LevelOf returns the level of the identity. An unknown identity holds
	// the default level.
	LevelOf(store store.Readable, ident Identity) (Level, error)
}
