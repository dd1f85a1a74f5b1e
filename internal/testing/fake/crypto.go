package fake

import (
	"hash"

	"go.dedis.ch/acta/crypto"
	"go.dedis.ch/acta/serde"
)

// PublicKey is a fake implementation of crypto.PublicKey.
//
// - implements crypto.PublicKey
type PublicKey struct {
	err       error
	verifyErr error
}

// NewBadPublicKey returns a new fake public key that returns errors when
// appropriate.
func NewBadPublicKey() PublicKey {
	return PublicKey{
		err:       fakeErr,
		verifyErr: fakeErr,
	}
}

// NewInvalidPublicKey returns a fake public key that refuses signatures.
func NewInvalidPublicKey() PublicKey {
	return PublicKey{verifyErr: fakeErr}
}

// Verify implements crypto.PublicKey.
func (pk PublicKey) Verify([]byte, crypto.Signature) error {
	return pk.verifyErr
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return []byte("PK"), pk.err
}

// MarshalText implements encoding.TextMarshaler.
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte("fake.PublicKey"), pk.err
}

// Equal implements crypto.PublicKey.
func (pk PublicKey) Equal(other interface{}) bool {
	_, ok := other.(PublicKey)
	return ok
}

// Serialize implements serde.Message.
func (pk PublicKey) Serialize(serde.Context) ([]byte, error) {
	return []byte(`{}`), pk.err
}

// String implements fmt.Stringer.
func (pk PublicKey) String() string {
	return "fake.PublicKey"
}

// Signature is a fake implementation of crypto.Signature.
//
// - implements crypto.Signature
type Signature struct {
	err error
}

// NewBadSignature returns a signature that produces errors when appropriate.
func NewBadSignature() Signature {
	return Signature{err: fakeErr}
}

// Equal implements crypto.Signature.
func (s Signature) Equal(other crypto.Signature) bool {
	_, ok := other.(Signature)
	return ok
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Signature) MarshalBinary() ([]byte, error) {
	return []byte("fake signature"), s.err
}

// Serialize implements serde.Message.
func (s Signature) Serialize(serde.Context) ([]byte, error) {
	return []byte(`{}`), s.err
}

// String implements fmt.Stringer.
func (s Signature) String() string {
	return "fake.Signature"
}

// PublicKeyFactory is a fake implementation of crypto.PublicKeyFactory.
//
// - implements crypto.PublicKeyFactory
type PublicKeyFactory struct {
	pubkey PublicKey
	err    error
}

// NewPublicKeyFactory returns a fake public key factory that returns the given
// public key.
func NewPublicKeyFactory(pubkey PublicKey) PublicKeyFactory {
	return PublicKeyFactory{pubkey: pubkey}
}

// NewBadPublicKeyFactory returns a fake public key factory that returns an
// error when appropriate.
func NewBadPublicKeyFactory() PublicKeyFactory {
	return PublicKeyFactory{err: fakeErr}
}

// Deserialize implements serde.Factory.
func (f PublicKeyFactory) Deserialize(serde.Context, []byte) (serde.Message, error) {
	return f.pubkey, f.err
}

// PublicKeyOf implements crypto.PublicKeyFactory.
func (f PublicKeyFactory) PublicKeyOf(serde.Context, []byte) (crypto.PublicKey, error) {
	return f.pubkey, f.err
}

// FromBytes implements crypto.PublicKeyFactory.
func (f PublicKeyFactory) FromBytes([]byte) (crypto.PublicKey, error) {
	return f.pubkey, f.err
}

// SignatureFactory is a fake implementation of crypto.SignatureFactory.
//
// - implements crypto.SignatureFactory
type SignatureFactory struct {
	signature Signature
	err       error
}

// NewSignatureFactory returns a fake signature factory that returns the given
// signature.
func NewSignatureFactory(signature Signature) SignatureFactory {
	return SignatureFactory{signature: signature}
}

// NewBadSignatureFactory returns a fake signature factory that returns an
// error when appropriate.
func NewBadSignatureFactory() SignatureFactory {
	return SignatureFactory{err: fakeErr}
}

// Deserialize implements serde.Factory.
func (f SignatureFactory) Deserialize(serde.Context, []byte) (serde.Message, error) {
	return f.signature, f.err
}

// SignatureOf implements crypto.SignatureFactory.
func (f SignatureFactory) SignatureOf(serde.Context, []byte) (crypto.Signature, error) {
	return f.signature, f.err
}

// Signer is a fake implementation of crypto.Signer.
//
// - implements crypto.Signer
type Signer struct {
	pubkey PublicKey
	err    error
}

// NewSigner returns a fake signer.
func NewSigner() crypto.Signer {
	return Signer{}
}

// NewBadSigner returns a fake signer that fails to sign.
func NewBadSigner() crypto.Signer {
	return Signer{err: fakeErr}
}

// NewSignerWithPublicKey returns a fake signer with the given public key.
func NewSignerWithPublicKey(pubkey PublicKey) crypto.Signer {
	return Signer{pubkey: pubkey}
}

// GetPublicKeyFactory implements crypto.Signer.
func (s Signer) GetPublicKeyFactory() crypto.PublicKeyFactory {
	return PublicKeyFactory{pubkey: s.pubkey}
}

// GetSignatureFactory implements crypto.Signer.
func (s Signer) GetSignatureFactory() crypto.SignatureFactory {
	return SignatureFactory{}
}

// GetPublicKey implements crypto.Signer.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return s.pubkey
}

// Sign implements crypto.Signer.
func (s Signer) Sign([]byte) (crypto.Signature, error) {
	return Signature{}, s.err
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Signer) MarshalBinary() ([]byte, error) {
	return []byte("fake signer"), s.err
}

// Hash is a fake implementation of hash.Hash.
//
// - implements hash.Hash
type Hash struct {
	delay int
	err   error
	Call  *Call
}

// NewBadHash returns a hash that returns an error when writing.
func NewBadHash() *Hash {
	return &Hash{err: fakeErr}
}

// NewBadHashWithDelay returns a hash that returns an error after the given
// amount of writes.
func NewBadHashWithDelay(delay int) *Hash {
	return &Hash{
		delay: delay,
		err:   fakeErr,
	}
}

// Write implements io.Writer.
func (h *Hash) Write(in []byte) (int, error) {
	h.Call.Add(in)

	if h.err != nil {
		if h.delay == 0 {
			return 0, h.err
		}

		h.delay--
	}

	return len(in), nil
}

// Sum implements hash.Hash.
func (h *Hash) Sum([]byte) []byte {
	return make([]byte, 32)
}

// Reset implements hash.Hash.
func (h *Hash) Reset() {}

// Size implements hash.Hash.
func (h *Hash) Size() int {
	return 32
}

// BlockSize implements hash.Hash.
func (h *Hash) BlockSize() int {
	return 64
}

// HashFactory is a fake implementation of crypto.HashFactory.
//
// - implements crypto.HashFactory
type HashFactory struct {
	hash *Hash
}

// NewHashFactory returns a fake hash factory producing the given hash.
func NewHashFactory(h *Hash) HashFactory {
	return HashFactory{hash: h}
}

// New implements crypto.HashFactory.
func (f HashFactory) New() hash.Hash {
	return f.hash
}
