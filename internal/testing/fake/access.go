package fake

import (
	"go.dedis.ch/acta/core/access"
	"go.dedis.ch/acta/core/store"
)

// AccessService is a fake implementation of access.Service.
//
// - implements access.Service
type AccessService struct {
	err   error
	level access.Level
}

// NewAccessService returns a fake access service that accepts everything and
// reports the admin level for every identity.
func NewAccessService() AccessService {
	return AccessService{level: access.Admin}
}

// NewBadAccessService returns a fake access service that refuses everything.
func NewBadAccessService() AccessService {
	return AccessService{err: fakeErr}
}

// Match implements access.Service.
func (srvc AccessService) Match(store.Readable, access.Level, ...access.Identity) error {
	return srvc.err
}

// Grant implements access.Service.
func (srvc AccessService) Grant(store.Snapshot, access.Level, ...access.Identity) error {
	return srvc.err
}

// Revoke implements access.Service.
func (srvc AccessService) Revoke(store.Snapshot, ...access.Identity) error {
	return srvc.err
}

// LevelOf implements access.Service.
func (srvc AccessService) LevelOf(store.Readable, access.Identity) (access.Level, error) {
	return srvc.level, srvc.err
}
