// Package crypto defines cryptographic primitives shared by the different
// modules of the system.
//
// It defines the abstractions of a public key, a signature and a signer so
// that the modules never have to depend on a specific algorithm. The
// implementations register their serialization formats independently so that
// a message can embed those primitives without knowing the algorithm.
//
// Documentation Last Review: 05.10.2020
package crypto

import (
	"encoding"
	"hash"

	"go.dedis.ch/acta/serde"
)

// HashFactory is an interface to produce a hash digest.
type HashFactory interface {
	New() hash.Hash
}

// RandGenerator is an interface to generate random values with a defined
// level of security.
type RandGenerator interface {
	Read(p []byte) (int, error)
}

// PublicKey is a public identity that can be used to verify a signature.
type PublicKey interface {
	encoding.BinaryMarshaler
	encoding.TextMarshaler
	serde.Message

	// Verify returns nil if the signature matches the message, otherwise an
	// error is returned.
	Verify(msg []byte, signature Signature) error

	// Equal returns true when both objects are similar.
	Equal(other interface{}) bool
}

// PublicKeyFactory is a factory to decode public keys.
type PublicKeyFactory interface {
	serde.Factory

	// PublicKeyOf populates the public key associated to the data if
	// appropriate, otherwise it returns an error.
	PublicKeyOf(ctx serde.Context, data []byte) (PublicKey, error)

	// FromBytes returns the public key unmarshaled from the bytes.
	FromBytes(data []byte) (PublicKey, error)
}

// Signature is a verifiable element for a unique message.
type Signature interface {
	encoding.BinaryMarshaler
	serde.Message

	// Equal returns true when both objects are similar.
	Equal(other Signature) bool
}

// SignatureFactory is a factory to decode signatures.
type SignatureFactory interface {
	serde.Factory

	// SignatureOf populates the signature associated to the data if
	// appropriate, otherwise it returns an error.
	SignatureOf(ctx serde.Context, data []byte) (Signature, error)
}

// Verifier provides the primitive to verify a signature w.r.t. a message.
type Verifier interface {
	// Verify returns nil if the signature matches the message for the public
	// key internal to the verifier.
	Verify(msg []byte, signature Signature) error
}

// VerifierFactory provides the primitives to create a verifier.
type VerifierFactory interface {
	// FromArray returns a verifier that will process the list of public keys.
	FromArray(keys []PublicKey) (Verifier, error)
}

// Signer provides the primitives to sign and verify signatures.
type Signer interface {
	encoding.BinaryMarshaler

	// GetPublicKeyFactory returns a factory that can deserialize public keys
	// of the same algorithm than the signer.
	GetPublicKeyFactory() PublicKeyFactory

	// GetSignatureFactory returns a factory that can deserialize signatures of
	// the same algorithm than the signer.
	GetSignatureFactory() SignatureFactory

	// GetPublicKey returns the public key of the signer.
	GetPublicKey() PublicKey

	// Sign returns a signature that will match the message for the signer
	// public key.
	Sign(msg []byte) (Signature, error)
}

// AggregateSigner offers the same primitives as the Signer interface but
// also includes a primitive to aggregate signatures into one.
type AggregateSigner interface {
	Signer

	// GetVerifierFactory returns a factory that can create a verifier to
	// check the validity of a signature.
	GetVerifierFactory() VerifierFactory

	// Aggregate returns the aggregate signature of the ones in parameter.
	Aggregate(signatures ...Signature) (Signature, error)
}
