package json

import (
	"go.dedis.ch/acta/crypto/bls"
	"go.dedis.ch/acta/crypto/common/json"
	"go.dedis.ch/acta/serde"
	"golang.org/x/xerrors"
)

func init() {
	bls.RegisterPublicKeyFormat(serde.FormatJSON, pubkeyFormat{})
	bls.RegisterSignatureFormat(serde.FormatJSON, sigFormat{})
}

func assert(err error) {
	if err != nil {
		panic("unexpected error: " + err.Error())
	}
}

// PubkeyFormat is the JSON engine to encode and decode BLS public keys.
//
// - implements serde.FormatEngine
type pubkeyFormat struct{}

// Encode implements serde.FormatEngine. It returns the JSON data of the public
// key if appropriate, otherwise an error.
func (f pubkeyFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	pubkey, ok := msg.(bls.PublicKey)
	if !ok {
		return nil, xerrors.Errorf("unsupported message of type '%T'", msg)
	}

	buffer, err := pubkey.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal point: %v", err)
	}

	m := json.PublicKey{
		Algorithm: json.Algorithm{Name: bls.Algorithm},
		Data:      buffer,
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It populates the public key from the
// JSON data if appropriate, otherwise it returns an error.
func (f pubkeyFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := json.PublicKey{}
	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't deserialize data: %v", err)
	}

	pubkey, err := bls.NewPublicKey(m.Data)
	if err != nil {
		return nil, err
	}

	return pubkey, nil
}

// SigFormat is the JSON engine to encode and decode BLS signatures.
//
// - implements serde.FormatEngine
type sigFormat struct{}

// Encode implements serde.FormatEngine. It returns the JSON data of the
// signature if appropriate, otherwise an error.
func (f sigFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	sig, ok := msg.(bls.Signature)
	if !ok {
		return nil, xerrors.Errorf("unsupported message of type '%T'", msg)
	}

	buffer, err := sig.MarshalBinary()
	// A BLS signature is its raw data thus it never fails.
	assert(err)

	m := json.Signature{
		Algorithm: json.Algorithm{Name: bls.Algorithm},
		Data:      buffer,
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It populates the signature from the
// JSON data if appropriate, otherwise it returns an error.
func (f sigFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := json.Signature{}
	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't deserialize data: %v", err)
	}

	signature := bls.NewSignature(m.Data)

	return signature, nil
}
