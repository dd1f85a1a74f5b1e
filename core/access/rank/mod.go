// Package rank implements the permission store on top of a ranking document.
//
// The service stores a single serialized ranking under a fixed key inside its
// own storage namespace. An access check passes when every presented identity
// holds at least the required level.
package rank

import (
	"go.dedis.ch/acta/core/access"
	"go.dedis.ch/acta/core/access/rank/types"
	"go.dedis.ch/acta/core/store"
	"go.dedis.ch/acta/core/store/prefixed"
	"go.dedis.ch/acta/serde"
	"golang.org/x/xerrors"
)

// UID is the storage namespace of the service.
const UID = "RANK"

// rankingKey is the key of the ranking document inside the namespace.
var rankingKey = [32]byte{1}

// Service is an access service backed by a ranking document.
//
// - implements access.Service
type Service struct {
	fac     types.RankingFactory
	context serde.Context
}

// NewService creates a new access service that serializes the ranking with the
// given context.
func NewService(ctx serde.Context) Service {
	return Service{
		fac:     types.NewFactory(),
		context: ctx,
	}
}

// Match implements access.Service. It returns nil if every identity holds at
// least the required level, otherwise a meaningful error on the reason access
// is denied.
func (srvc Service) Match(store store.Readable, required access.Level, idents ...access.Identity) error {
	ranking, err := srvc.ranking(store)
	if err != nil {
		return err
	}

	err = ranking.Match(required, idents...)
	if err != nil {
		return err
	}

	return nil
}

// Grant implements access.Service. It updates the ranking so that the
// identities hold the given level.
func (srvc Service) Grant(snap store.Snapshot, level access.Level, idents ...access.Identity) error {
	ranking, err := srvc.ranking(snap)
	if err != nil {
		return err
	}

	err = ranking.Grant(level, idents...)
	if err != nil {
		return err
	}

	return srvc.save(snap, ranking)
}

// Revoke implements access.Service. It removes the identities from the
// ranking, leaving them with the default level.
func (srvc Service) Revoke(snap store.Snapshot, idents ...access.Identity) error {
	ranking, err := srvc.ranking(snap)
	if err != nil {
		return err
	}

	err = ranking.Revoke(idents...)
	if err != nil {
		return err
	}

	return srvc.save(snap, ranking)
}

// LevelOf implements access.Service. It returns the level the identity holds.
func (srvc Service) LevelOf(store store.Readable, ident access.Identity) (access.Level, error) {
	ranking, err := srvc.ranking(store)
	if err != nil {
		return access.None, err
	}

	return ranking.LevelOf(ident)
}

// GetRanks returns the list of ranks currently stored.
func (srvc Service) GetRanks(store store.Readable) ([]types.Rank, error) {
	ranking, err := srvc.ranking(store)
	if err != nil {
		return nil, err
	}

	return ranking.GetRanks(), nil
}

func (srvc Service) ranking(readable store.Readable) (*types.Ranking, error) {
	value, err := prefixed.NewReadable(UID, readable).Get(rankingKey[:])
	if err != nil {
		return nil, xerrors.Errorf("store failed: %v", err)
	}

	if value == nil {
		return types.NewRanking()
	}

	ranking, err := srvc.fac.RankingOf(srvc.context, value)
	if err != nil {
		return nil, xerrors.Errorf("malformed ranking: %v", err)
	}

	return ranking, nil
}

func (srvc Service) save(snap store.Snapshot, ranking *types.Ranking) error {
	value, err := ranking.Serialize(srvc.context)
	if err != nil {
		return xerrors.Errorf("failed to serialize ranking: %v", err)
	}

	err = prefixed.NewSnapshot(UID, snap).Set(rankingKey[:], value)
	if err != nil {
		return xerrors.Errorf("store failed: %v", err)
	}

	return nil
}
