// Package common implements the factories of the crypto primitives to allow
// the support of multiple algorithms over the same communication channel.
//
// The messages are prefixed with the name of the algorithm so that the
// factory can look up the implementation that can process the data.
//
// Documentation Last Review: 05.10.2020
package common

import (
	"sort"

	"go.dedis.ch/acta/crypto"
	"go.dedis.ch/acta/crypto/bls"
	"go.dedis.ch/acta/crypto/ed25519"
	"go.dedis.ch/acta/serde"
	"go.dedis.ch/acta/serde/registry"
	"golang.org/x/xerrors"
)

var algFormats = registry.NewSimpleRegistry()

// RegisterAlgorithmFormat registers the engine for the provided format.
func RegisterAlgorithmFormat(format serde.Format, engine serde.FormatEngine) {
	algFormats.Register(format, engine)
}

// Algorithm contains the information about a signature algorithm.
//
// - implements serde.Message
type Algorithm struct {
	name string
}

// NewAlgorithm returns a new algorithm from the provided name.
func NewAlgorithm(name string) Algorithm {
	return Algorithm{name: name}
}

// GetName returns the name of the algorithm.
func (alg Algorithm) GetName() string {
	return alg.name
}

// Serialize implements serde.Message. It returns the serialized data of the
// algorithm.
func (alg Algorithm) Serialize(ctx serde.Context) ([]byte, error) {
	format := algFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, alg)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode algorithm: %v", err)
	}

	return data, nil
}

// PublicKeyFactory is a public key factory for commonly known algorithms.
//
// - implements crypto.PublicKeyFactory
type PublicKeyFactory struct {
	factories map[string]crypto.PublicKeyFactory
}

// NewPublicKeyFactory returns a new instance of the common public key factory.
func NewPublicKeyFactory() PublicKeyFactory {
	factory := PublicKeyFactory{
		factories: make(map[string]crypto.PublicKeyFactory),
	}

	factory.RegisterAlgorithm(bls.Algorithm, bls.NewPublicKeyFactory())
	factory.RegisterAlgorithm(ed25519.Algorithm, ed25519.NewPublicKeyFactory())

	return factory
}

// RegisterAlgorithm registers the factory for the algorithm. It will override
// an already existing key.
func (f PublicKeyFactory) RegisterAlgorithm(algo string, factory crypto.PublicKeyFactory) {
	f.factories[algo] = factory
}

// Deserialize implements serde.Factory. It looks up the algorithm and returns
// the public key of the data if appropriate, otherwise an error.
func (f PublicKeyFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return f.PublicKeyOf(ctx, data)
}

// PublicKeyOf implements crypto.PublicKeyFactory. It returns the public key
// of the data if appropriate, otherwise an error.
func (f PublicKeyFactory) PublicKeyOf(ctx serde.Context, data []byte) (crypto.PublicKey, error) {
	format := algFormats.Get(ctx.GetFormat())

	m, err := format.Decode(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode algorithm: %v", err)
	}

	alg, ok := m.(Algorithm)
	if !ok {
		return nil, xerrors.Errorf("invalid message of type '%T'", m)
	}

	factory := f.factories[alg.name]
	if factory == nil {
		return nil, xerrors.Errorf("unknown algorithm '%s'", alg.name)
	}

	return factory.PublicKeyOf(ctx, data)
}

// FromBytes implements crypto.PublicKeyFactory. It tries the registered
// algorithms in a deterministic order and returns the first public key
// successfully unmarshaled from the data.
func (f PublicKeyFactory) FromBytes(data []byte) (crypto.PublicKey, error) {
	names := make([]string, 0, len(f.factories))
	for name := range f.factories {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		pubkey, err := f.factories[name].FromBytes(data)
		if err == nil {
			return pubkey, nil
		}
	}

	return nil, xerrors.New("couldn't find a compatible algorithm")
}

// SignatureFactory is a signature factory for commonly known algorithms.
//
// - implements crypto.SignatureFactory
type SignatureFactory struct {
	factories map[string]crypto.SignatureFactory
}

// NewSignatureFactory returns a new instance of the common signature factory.
func NewSignatureFactory() SignatureFactory {
	factory := SignatureFactory{
		factories: make(map[string]crypto.SignatureFactory),
	}

	factory.RegisterAlgorithm(bls.Algorithm, bls.NewSignatureFactory())
	factory.RegisterAlgorithm(ed25519.Algorithm, ed25519.NewSignatureFactory())

	return factory
}

// RegisterAlgorithm registers the factory for the algorithm. It will override
// an already existing key.
func (f SignatureFactory) RegisterAlgorithm(algo string, factory crypto.SignatureFactory) {
	f.factories[algo] = factory
}

// Deserialize implements serde.Factory. It looks up the algorithm and returns
// the signature of the data if appropriate, otherwise an error.
func (f SignatureFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return f.SignatureOf(ctx, data)
}

// SignatureOf implements crypto.SignatureFactory. It returns the signature of
// the data if appropriate, otherwise an error.
func (f SignatureFactory) SignatureOf(ctx serde.Context, data []byte) (crypto.Signature, error) {
	format := algFormats.Get(ctx.GetFormat())

	m, err := format.Decode(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode algorithm: %v", err)
	}

	alg, ok := m.(Algorithm)
	if !ok {
		return nil, xerrors.Errorf("invalid message of type '%T'", m)
	}

	factory := f.factories[alg.name]
	if factory == nil {
		return nil, xerrors.Errorf("unknown algorithm '%s'", alg.name)
	}

	return factory.SignatureOf(ctx, data)
}
