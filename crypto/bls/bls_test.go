package bls

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/acta/crypto"
	"go.dedis.ch/acta/internal/testing/fake"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/sign/bls"
	"go.dedis.ch/kyber/v3/util/key"
)

func init() {
	RegisterPublicKeyFormat(fake.GoodFormat, fake.Format{Msg: PublicKey{}})
	RegisterPublicKeyFormat(fake.BadFormat, fake.NewBadFormat())
	RegisterPublicKeyFormat("BAD_POINT", fake.Format{Msg: fake.Message{}})

	RegisterSignatureFormat(fake.GoodFormat, fake.Format{Msg: Signature{}})
	RegisterSignatureFormat(fake.BadFormat, fake.NewBadFormat())
	RegisterSignatureFormat("BAD_SIG", fake.Format{Msg: fake.Message{}})
}

func TestPublicKey_New(t *testing.T) {
	point := suite.Point()
	pointBuf, err := point.MarshalBinary()
	require.NoError(t, err)

	pubKey, err := NewPublicKey(pointBuf)
	require.NoError(t, err)

	require.True(t, pubKey.GetPoint().Equal(point))

	_, err = NewPublicKey([]byte{})
	require.EqualError(t, err,
		"couldn't unmarshal point: bn256.G2: not enough data")
}

func TestPublicKey_NewFromPoint(t *testing.T) {
	point := suite.Point()
	pk := NewPublicKeyFromPoint(point)
	require.True(t, pk.GetPoint().Equal(point))
}

func TestPublicKey_MarshalBinary(t *testing.T) {
	point := suite.Point()
	pointBuf, err := point.MarshalBinary()
	require.NoError(t, err)

	pk := PublicKey{point: point}
	pointBuf2, err := pk.MarshalBinary()
	require.NoError(t, err)

	require.Equal(t, pointBuf, pointBuf2)
}

func TestPublicKey_Serialize(t *testing.T) {
	pk := PublicKey{}
	ctx := fake.NewContext()

	pkBuf, err := pk.Serialize(ctx)
	require.NoError(t, err)
	require.Equal(t, fake.GetFakeFormatValue(), pkBuf)

	_, err = pk.Serialize(fake.NewBadContext())
	require.EqualError(t, err, fake.Err("couldn't encode public key"))
}

func TestPublicKey_Verify(t *testing.T) {
	kp := key.NewKeyPair(suite)
	pk := PublicKey{point: kp.Public}

	msg := []byte("hello")
	signature, err := bls.Sign(suite, kp.Private, msg)
	require.NoError(t, err)

	err = pk.Verify(msg, Signature{data: signature})
	require.NoError(t, err)

	err = pk.Verify(msg, fake.NewBadSignature())
	require.EqualError(t, err, "invalid signature type 'fake.Signature'")

	err = pk.Verify(msg, Signature{data: []byte{}})
	// the second error part depends on kyber implementation
	require.Regexp(t, "^bls verify failed: ", err)
}

func TestPublicKey_Equal(t *testing.T) {
	point := suite.Point()
	pk := PublicKey{point: point}
	pk2 := PublicKey{point: point}

	require.True(t, pk.Equal(pk2))
	require.False(t, pk.Equal(fake.NewBadPublicKey()))

	point2 := suite.Point().Pick(suite.RandomStream())
	pk2 = PublicKey{point: point2}

	require.False(t, pk.Equal(pk2))
}

func TestPublicKey_MarshalText(t *testing.T) {
	point := suite.Point()
	pk := PublicKey{point: point}

	res, err := pk.MarshalText()
	require.NoError(t, err)
	require.Regexp(t, "^bls:", string(res))

	pk.point = badPoint{}
	_, err = pk.MarshalText()
	require.EqualError(t, err, fake.Err("couldn't marshal"))
}

func TestPublicKey_String(t *testing.T) {
	point := suite.Point()
	pk := PublicKey{point: point}

	res := pk.String()
	require.Regexp(t, "^bls:[a-f0-9]{16}$", res)

	pk.point = badPoint{}
	res = pk.String()
	require.Equal(t, "bls:malformed_point", res)
}

func TestSignature_New(t *testing.T) {
	data := []byte("hello")
	sig := NewSignature(data)
	require.Equal(t, data, sig.data)
}

func TestSignature_MarshalBinary(t *testing.T) {
	data := []byte("hello")
	sig := NewSignature(data)

	buf, err := sig.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, data, buf)
}

func TestSignature_Serialize(t *testing.T) {
	sig := NewSignature([]byte("hello"))

	ctx := fake.NewContext()
	buf, err := sig.Serialize(ctx)
	require.NoError(t, err)
	require.Equal(t, fake.GetFakeFormatValue(), buf)

	_, err = sig.Serialize(fake.NewBadContext())
	require.EqualError(t, err, fake.Err("couldn't encode signature"))
}

func TestSignature_Equal(t *testing.T) {
	data := []byte("hello")
	sig := NewSignature(data)
	sig2 := NewSignature(data)

	require.True(t, sig.Equal(sig2))
	require.False(t, sig.Equal(fake.NewBadSignature()))

	sig2 = NewSignature([]byte("world"))
	require.False(t, sig.Equal(sig2))
}

func TestPublicKeyFactory_Deserialize(t *testing.T) {
	pkf := NewPublicKeyFactory()
	ctx := fake.NewContext()

	msg, err := pkf.Deserialize(ctx, nil)
	require.NoError(t, err)
	require.IsType(t, PublicKey{}, msg)
}

func TestPublicKeyFactory_PublicKeyOf(t *testing.T) {
	pkf := NewPublicKeyFactory()
	ctx := fake.NewContext()

	msg, err := pkf.PublicKeyOf(ctx, nil)
	require.NoError(t, err)
	require.IsType(t, PublicKey{}, msg)

	ctx = fake.NewBadContext()
	_, err = pkf.PublicKeyOf(ctx, nil)
	require.EqualError(t, err, fake.Err("couldn't decode public key"))

	ctx = fake.NewContextWithFormat("BAD_POINT")
	_, err = pkf.PublicKeyOf(ctx, nil)
	require.EqualError(t, err, "invalid public key of type 'fake.Message'")
}

func TestPublicKeyFactory_FromBytes(t *testing.T) {
	fac := NewPublicKeyFactory()

	point := suite.Point()
	data, err := point.MarshalBinary()
	require.NoError(t, err)

	pk, err := fac.FromBytes(data)
	require.NoError(t, err)
	require.True(t, pk.(PublicKey).point.Equal(point))

	_, err = fac.FromBytes(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to unmarshal the key: ")
}

func TestSignatureFactory_Deserialize(t *testing.T) {
	sf := NewSignatureFactory()
	ctx := fake.NewContext()

	msg, err := sf.Deserialize(ctx, nil)
	require.NoError(t, err)
	require.IsType(t, Signature{}, msg)
}

func TestSignatureFactory_SignatureOf(t *testing.T) {
	sf := NewSignatureFactory()
	ctx := fake.NewContext()

	msg, err := sf.SignatureOf(ctx, nil)
	require.NoError(t, err)
	require.IsType(t, Signature{}, msg)

	ctx = fake.NewBadContext()
	_, err = sf.SignatureOf(ctx, nil)
	require.EqualError(t, err, fake.Err("couldn't decode signature"))

	ctx = fake.NewContextWithFormat("BAD_SIG")
	_, err = sf.SignatureOf(ctx, nil)
	require.EqualError(t, err, "invalid signature of type 'fake.Message'")
}

func TestVerifierFactory_FromArray(t *testing.T) {
	factory := verifierFactory{}

	signer := Generate()

	v, err := factory.FromArray([]crypto.PublicKey{signer.GetPublicKey()})
	require.NoError(t, err)
	require.Len(t, v.(verifier).points, 1)

	_, err = factory.FromArray([]crypto.PublicKey{fake.PublicKey{}})
	require.EqualError(t, err, "invalid public key type: fake.PublicKey")
}

func TestVerifier_Verify(t *testing.T) {
	signerA := Generate()
	signerB := Generate()

	msg := []byte("deadbeef")

	sigA, err := signerA.Sign(msg)
	require.NoError(t, err)

	sigB, err := signerB.Sign(msg)
	require.NoError(t, err)

	aggregate, err := signerA.Aggregate(sigA, sigB)
	require.NoError(t, err)

	v, err := signerA.GetVerifierFactory().FromArray([]crypto.PublicKey{
		signerA.GetPublicKey(),
		signerB.GetPublicKey(),
	})
	require.NoError(t, err)

	err = v.Verify(msg, aggregate)
	require.NoError(t, err)

	err = v.Verify(msg, fake.NewBadSignature())
	require.EqualError(t, err, "invalid signature type 'fake.Signature'")

	err = v.Verify([]byte("wrong message"), aggregate)
	require.Regexp(t, "^bls verify failed: ", err)
}

func TestSigner_New(t *testing.T) {
	signer := NewSigner()
	require.IsType(t, Signer{}, signer)
}

func TestSigner_GetVerifierFactory(t *testing.T) {
	signer := Generate()
	factory := signer.GetVerifierFactory()
	require.IsType(t, verifierFactory{}, factory)
}

func TestSigner_GetPublicKeyFactory(t *testing.T) {
	signer := Generate()
	factory := signer.GetPublicKeyFactory()
	require.IsType(t, publicKeyFactory{}, factory)
}

func TestSigner_GetSignatureFactory(t *testing.T) {
	signer := Generate()
	factory := signer.GetSignatureFactory()
	require.IsType(t, signatureFactory{}, factory)
}

func TestSigner_GetPublicKey(t *testing.T) {
	kp := key.NewKeyPair(suite)
	signer := Signer{keyPair: kp}

	pk := NewPublicKeyFromPoint(kp.Public)

	require.True(t, pk.Equal(signer.GetPublicKey()))
}

func TestSigner_GetPrivateKey(t *testing.T) {
	kp := key.NewKeyPair(suite)
	signer := Signer{keyPair: kp}

	secret := signer.GetPrivateKey()
	require.True(t, secret.Equal(kp.Private))
}

func TestSigner_Sign(t *testing.T) {
	kp := key.NewKeyPair(suite)
	signer := Signer{keyPair: kp}

	f := func(msg []byte) bool {
		signature, err := signer.Sign(msg)
		require.NoError(t, err)

		signData, err := signature.MarshalBinary()
		require.NoError(t, err)

		err = bls.Verify(suite, kp.Public, msg, signData)
		require.NoError(t, err)

		return true
	}

	err := quick.Check(f, nil)
	require.NoError(t, err)
}

func TestSigner_Aggregate(t *testing.T) {
	signer := Generate()

	_, err := signer.Aggregate(fake.NewBadSignature())
	require.EqualError(t, err, fake.Err("couldn't marshal signature"))
}

func TestSigner_MarshalBinary(t *testing.T) {
	signer := Generate().(Signer)

	data, err := signer.MarshalBinary()
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestSigner_NewSignerFromBytes(t *testing.T) {
	signer := Generate().(Signer)

	data, err := signer.MarshalBinary()
	require.NoError(t, err)

	signer2, err := NewSignerFromBytes(data)
	require.NoError(t, err)
	require.True(t, signer.GetPublicKey().Equal(signer2.GetPublicKey()))

	msg := []byte("deadbeef")

	sig, err := signer2.Sign(msg)
	require.NoError(t, err)
	require.NoError(t, signer.GetPublicKey().Verify(msg, sig))

	_, err = NewSignerFromBytes([]byte{1, 2, 3})
	// the second error part depends on the kyber implementation
	require.Regexp(t, "^while unmarshaling scalar: ", err)
}

// -----------------------------------------------------------------------------
// Utility functions

type badPoint struct {
	kyber.Point
}

func (p badPoint) MarshalBinary() ([]byte, error) {
	return nil, fake.GetError()
}
