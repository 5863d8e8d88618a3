package signer

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "vaultledger/pkg/domain-errors"
)

type SignerSuite struct {
	suite.Suite
}

func TestSignerSuite(t *testing.T) {
	suite.Run(t, new(SignerSuite))
}

func (s *SignerSuite) signers() []Signer {
	return []Signer{NewEd25519(), NewBLS()}
}

func (s *SignerSuite) TestSignVerifyRoundTrip() {
	for _, sg := range s.signers() {
		s.Run(string(sg.Algorithm()), func() {
			priv, pub, err := sg.GenerateKey(rand.Reader)
			s.Require().NoError(err)

			derived, err := sg.PublicKey(priv)
			s.Require().NoError(err)
			s.Equal(pub, derived)

			payload := []byte(`{"credentialSubject":{"id":"did:example:1"}}`)
			sig, err := sg.Sign(context.Background(), payload, priv)
			s.Require().NoError(err)
			s.False(IsPlaceholder(sig))

			s.NoError(sg.Verify(payload, sig, pub))

			err = sg.Verify([]byte("other payload"), sig, pub)
			s.True(dErrors.HasCode(err, dErrors.CodeVerification))
		})
	}
}

func (s *SignerSuite) TestMalformedKeys() {
	for _, sg := range s.signers() {
		s.Run(string(sg.Algorithm()), func() {
			_, err := sg.Sign(context.Background(), []byte("x"), []byte("short"))
			s.True(dErrors.HasCode(err, dErrors.CodeSigning))

			_, err = sg.PublicKey(nil)
			s.True(dErrors.HasCode(err, dErrors.CodeSigning))
		})
	}

	s.Run("zero bls secret", func() {
		_, err := NewBLS().Sign(context.Background(), []byte("x"), make([]byte, BLSSecretKeySize))
		s.True(dErrors.HasCode(err, dErrors.CodeSigning))
	})

	s.Run("ed25519 key with wrong public half", func() {
		priv, _, err := NewEd25519().GenerateKey(rand.Reader)
		s.Require().NoError(err)
		full := append(append([]byte(nil), priv...), make([]byte, 32)...)
		_, err = NewEd25519().Sign(context.Background(), []byte("x"), full)
		s.True(dErrors.HasCode(err, dErrors.CodeSigning))
	})
}

func (s *SignerSuite) TestWrongPublicKeyRejected() {
	for _, sg := range s.signers() {
		s.Run(string(sg.Algorithm()), func() {
			priv, _, err := sg.GenerateKey(rand.Reader)
			s.Require().NoError(err)
			_, otherPub, err := sg.GenerateKey(rand.Reader)
			s.Require().NoError(err)

			sig, err := sg.Sign(context.Background(), []byte("x"), priv)
			s.Require().NoError(err)
			s.Error(sg.Verify([]byte("x"), sig, otherPub))
		})
	}
}

func (s *SignerSuite) TestIsPlaceholder() {
	tests := []struct {
		name string
		sig  []byte
		want bool
	}{
		{"empty", nil, true},
		{"zeros", make([]byte, 64), true},
		{"fake signature", []byte("FAKE_SIGNATURE"), true},
		{"placeholder", []byte(" placeholder "), true},
		{"real bytes", []byte{0x01, 0x02}, false},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Equal(tt.want, IsPlaceholder(tt.sig))
		})
	}
}

func (s *SignerSuite) TestRegistry() {
	r := Default()

	sg, err := r.Get(BLS12381)
	s.Require().NoError(err)
	s.Equal(BLS12381, sg.Algorithm())

	_, err = NewRegistry(NewEd25519()).Get(BLS12381)
	s.True(dErrors.HasCode(err, dErrors.CodeSigning))
}

func (s *SignerSuite) TestParseAlgorithm() {
	alg, err := ParseAlgorithm("BLS")
	s.Require().NoError(err)
	s.Equal(BLS12381, alg)

	alg, err = ParseAlgorithm("")
	s.Require().NoError(err)
	s.Equal(Ed25519, alg)

	_, err = ParseAlgorithm("rsa")
	s.Error(err)
}
