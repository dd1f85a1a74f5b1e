// Package json implements the JSON format for signed transactions.
package json

import (
	"encoding/json"

	"go.dedis.ch/acta/core/txn/signed"
	"go.dedis.ch/acta/crypto"
	"go.dedis.ch/acta/serde"
	"golang.org/x/xerrors"
)

func init() {
	signed.RegisterTransactionFormat(serde.FormatJSON, txFormat{})
}

// TransactionJSON is the JSON message of a transaction. The signature travels
// with the transaction so that it can be verified after decoding.
type TransactionJSON struct {
	Nonce     uint64
	Args      map[string][]byte
	PublicKey json.RawMessage
	Signature json.RawMessage
}

// TxFormat is the JSON format engine for transactions.
//
// - implements serde.FormatEngine
type txFormat struct {
	hashFactory crypto.HashFactory
}

// Encode implements serde.FormatEngine. It returns the JSON data of the
// provided transaction if appropriate, otherwise it returns an error.
func (fmt txFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	tx, ok := msg.(*signed.Transaction)
	if !ok {
		return nil, xerrors.Errorf("unsupported message of type '%T'", msg)
	}

	args := map[string][]byte{}
	for _, arg := range tx.GetArgs() {
		args[arg] = tx.GetArg(arg)
	}

	if tx.GetSignature() == nil {
		return nil, xerrors.New("signature is missing")
	}

	sig, err := tx.GetSignature().Serialize(ctx)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode signature: %v", err)
	}

	pubkey, err := tx.GetIdentity().Serialize(ctx)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode public key: %v", err)
	}

	m := TransactionJSON{
		Nonce:     tx.GetNonce(),
		Args:      args,
		PublicKey: pubkey,
		Signature: sig,
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It returns the transaction from the
// JSON data if appropriate, otherwise it returns an error.
func (fmt txFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := TransactionJSON{}
	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal: %v", err)
	}

	pubkey, err := decodePubkey(ctx, m.PublicKey)
	if err != nil {
		return nil, xerrors.Errorf("public key: %v", err)
	}

	sig, err := decodeSig(ctx, m.Signature)
	if err != nil {
		return nil, xerrors.Errorf("signature: %v", err)
	}

	opts := make([]signed.TransactionOption, 0, len(m.Args)+2)
	for key, value := range m.Args {
		opts = append(opts, signed.WithArg(key, value))
	}

	opts = append(opts, signed.WithSignature(sig))

	if fmt.hashFactory != nil {
		opts = append(opts, signed.WithHashFactory(fmt.hashFactory))
	}

	tx, err := signed.NewTransaction(m.Nonce, pubkey, opts...)
	if err != nil {
		return nil, xerrors.Errorf("failed to create tx: %v", err)
	}

	return tx, nil
}

func decodePubkey(ctx serde.Context, data []byte) (crypto.PublicKey, error) {
	fac := ctx.GetFactory(signed.PublicKeyFac{})

	factory, ok := fac.(crypto.PublicKeyFactory)
	if !ok {
		return nil, xerrors.Errorf("invalid factory '%T'", fac)
	}

	pubkey, err := factory.PublicKeyOf(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("malformed: %v", err)
	}

	return pubkey, nil
}

func decodeSig(ctx serde.Context, data []byte) (crypto.Signature, error) {
	fac := ctx.GetFactory(signed.SignatureFac{})

	factory, ok := fac.(crypto.SignatureFactory)
	if !ok {
		return nil, xerrors.Errorf("invalid factory '%T'", fac)
	}

	sig, err := factory.SignatureOf(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("malformed: %v", err)
	}

	return sig, nil
}
