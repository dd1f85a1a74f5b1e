// Package registry implements the table of named components.
//
// Components register under a unique name so that actions can resolve them at
// execution time without holding a direct reference. Mutations of the table
// are reserved to the authority that owns the kernel, while reads are open to
// any in-process caller.
package registry

import (
	"bytes"
	"reflect"
	"sort"

	"go.dedis.ch/acta/core/access"
	"go.dedis.ch/acta/internal/debugsync"
	"golang.org/x/xerrors"
)

// Registry is a name to component table gated by an owner identity.
type Registry struct {
	lock  debugsync.RWMutex
	owner []byte
	table map[string]interface{}
}

// NewRegistry returns an empty registry owned by the identity.
func NewRegistry(owner access.Identity) (*Registry, error) {
	key, err := owner.MarshalText()
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal owner: %v", err)
	}

	return &Registry{
		owner: key,
		table: make(map[string]interface{}),
	}, nil
}

// Register stores the component under the name. Only the owner can register,
// and a name can be taken only once.
func (reg *Registry) Register(ident access.Identity, name string, component interface{}) error {
	err := reg.authorize(ident)
	if err != nil {
		return err
	}

	reg.lock.Lock()
	defer reg.lock.Unlock()

	if _, ok := reg.table[name]; ok {
		return xerrors.Errorf("component '%s' already registered", name)
	}

	reg.table[name] = component

	return nil
}

// Deregister removes the component registered under the name. Only the owner
// can deregister.
func (reg *Registry) Deregister(ident access.Identity, name string) error {
	err := reg.authorize(ident)
	if err != nil {
		return err
	}

	reg.lock.Lock()
	defer reg.lock.Unlock()

	if _, ok := reg.table[name]; !ok {
		return xerrors.Errorf("unknown component '%s'", name)
	}

	delete(reg.table, name)

	return nil
}

// Resolve populates the given pointer with the component registered under the
// name if its type is compatible.
func (reg *Registry) Resolve(name string, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		return xerrors.New("expect a pointer")
	}

	if !rv.Elem().IsValid() {
		return xerrors.Errorf("reflect value '%v' is invalid", rv)
	}

	reg.lock.RLock()
	defer reg.lock.RUnlock()

	component, ok := reg.table[name]
	if !ok {
		return xerrors.Errorf("unknown component '%s'", name)
	}

	if !reflect.TypeOf(component).AssignableTo(rv.Elem().Type()) {
		return xerrors.Errorf("component '%s' of type '%T' is not a '%v'",
			name, component, rv.Elem().Type())
	}

	rv.Elem().Set(reflect.ValueOf(component))

	return nil
}

// Names returns the sorted list of registered names.
func (reg *Registry) Names() []string {
	reg.lock.RLock()
	defer reg.lock.RUnlock()

	names := make(sort.StringSlice, 0, len(reg.table))
	for name := range reg.table {
		names = append(names, name)
	}

	sort.Sort(names)

	return names
}

func (reg *Registry) authorize(ident access.Identity) error {
	key, err := ident.MarshalText()
	if err != nil {
		return xerrors.Errorf("couldn't marshal identity: %v", err)
	}

	if !bytes.Equal(key, reg.owner) {
		return xerrors.New("identity is not the owner")
	}

	return nil
}
