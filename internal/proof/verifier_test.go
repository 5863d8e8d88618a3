package proof_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"vaultledger/internal/proof"
	dErrors "vaultledger/pkg/domain-errors"
)

const validProof = `{
	"pi_a": ["1", "2", "1"],
	"pi_b": [["3", "4"], ["5", "6"], ["1", "0"]],
	"pi_c": ["7", "8", "1"],
	"protocol": "groth16",
	"curve": "bn128"
}`

type backendCall struct {
	circuitID string
	proof     json.RawMessage
	inputs    []string
}

type VerifierSuite struct {
	suite.Suite
	calls   []backendCall
	verdict bool
	err     error
	v       *proof.Verifier
	stmt    proof.Statement
}

func TestVerifierSuite(t *testing.T) {
	suite.Run(t, new(VerifierSuite))
}

func (s *VerifierSuite) SetupTest() {
	s.calls = nil
	s.verdict = true
	s.err = nil
	backend := proof.BackendFunc(func(_ context.Context, circuitID string, p json.RawMessage, in []string) (bool, error) {
		s.calls = append(s.calls, backendCall{circuitID: circuitID, proof: p, inputs: in})
		return s.verdict, s.err
	})
	v, err := proof.New(backend)
	s.Require().NoError(err)
	s.v = v
	s.stmt = proof.Statement{
		ID:          "degree-holder",
		CircuitID:   "degree_v1",
		Arity:       2,
		BoundInputs: map[int]string{0: "42"},
	}
}

func (s *VerifierSuite) artifact(inputs ...string) proof.Artifact {
	return proof.Artifact{ProofData: json.RawMessage(validProof), PublicInputs: inputs}
}

func (s *VerifierSuite) TestNewRequiresBackend() {
	v, err := proof.New(nil)
	s.Nil(v)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *VerifierSuite) TestAcceptsWhenBackendAccepts() {
	s.True(s.v.Verify(context.Background(), s.artifact("42", "7"), s.stmt))
	s.Require().Len(s.calls, 1)
	s.Equal("degree_v1", s.calls[0].circuitID)
	s.Equal([]string{"42", "7"}, s.calls[0].inputs)
}

func (s *VerifierSuite) TestBackendRejection() {
	s.verdict = false
	err := s.v.VerifyStrict(context.Background(), s.artifact("42", "7"), s.stmt)
	s.Equal(proof.ReasonRejected, proof.ReasonOf(err))
	s.ErrorIs(err, proof.ErrVerification)
}

func (s *VerifierSuite) TestBackendErrorFailsClosed() {
	s.err = errors.New("connection refused")

	s.False(s.v.Verify(context.Background(), s.artifact("42", "7"), s.stmt))

	err := s.v.VerifyStrict(context.Background(), s.artifact("42", "7"), s.stmt)
	var ve *proof.VerificationError
	s.Require().ErrorAs(err, &ve)
	s.True(ve.Unavailable())
	s.True(dErrors.HasCode(err, dErrors.CodeVerification))
}

func (s *VerifierSuite) TestBackendErrorWinsOverTrueVerdict() {
	s.verdict = true
	s.err = errors.New("partial response")
	s.False(s.v.Verify(context.Background(), s.artifact("42", "7"), s.stmt))
}

func (s *VerifierSuite) TestStructuralFailuresNeverReachBackend() {
	cases := []struct {
		name   string
		proof  string
		inputs []string
		reason proof.Reason
	}{
		{"arity mismatch", validProof, []string{"42"}, proof.ReasonArityMismatch},
		{"too many inputs", validProof, []string{"42", "1", "2"}, proof.ReasonArityMismatch},
		{"bound input differs", validProof, []string{"41", "7"}, proof.ReasonInputMismatch},
		{"non-decimal input", validProof, []string{"42", "0x07"}, proof.ReasonMalformedProof},
		{"input at scalar modulus", validProof, []string{"42", "21888242871839275222246405745257275088548364400416034343698204186575808495617"}, proof.ReasonMalformedProof},
		{"empty proof", ``, []string{"42", "7"}, proof.ReasonMalformedProof},
		{"not json", `pi_a`, []string{"42", "7"}, proof.ReasonMalformedProof},
		{"missing pi_b", `{"pi_a":["1","2"],"pi_c":["1","2"]}`, []string{"42", "7"}, proof.ReasonMalformedProof},
		{"pi_a too long", `{"pi_a":["1","2","1","1"],"pi_b":[["1","2"],["3","4"]],"pi_c":["1","2"]}`, []string{"42", "7"}, proof.ReasonMalformedProof},
		{"pi_b element not a pair", `{"pi_a":["1","2"],"pi_b":[["1"],["3","4"]],"pi_c":["1","2"]}`, []string{"42", "7"}, proof.ReasonMalformedProof},
		{"negative coordinate", `{"pi_a":["-1","2"],"pi_b":[["1","2"],["3","4"]],"pi_c":["1","2"]}`, []string{"42", "7"}, proof.ReasonMalformedProof},
		{"wrong protocol", `{"pi_a":["1","2"],"pi_b":[["1","2"],["3","4"]],"pi_c":["1","2"],"protocol":"plonk"}`, []string{"42", "7"}, proof.ReasonMalformedProof},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.calls = nil
			p := proof.Artifact{ProofData: json.RawMessage(tc.proof), PublicInputs: tc.inputs}
			err := s.v.VerifyStrict(context.Background(), p, s.stmt)
			s.Equal(tc.reason, proof.ReasonOf(err))
			s.Empty(s.calls)
		})
	}
}

func (s *VerifierSuite) TestInvalidStatementFailsClosed() {
	stmt := s.stmt
	stmt.CircuitID = ""
	err := s.v.VerifyStrict(context.Background(), s.artifact("42", "7"), stmt)
	s.Equal(proof.ReasonInvalidStatement, proof.ReasonOf(err))
	s.Empty(s.calls)
}

func (s *VerifierSuite) TestShortFormIsLiftedBeforeBackend() {
	short := `{"a":["1","2"],"b":[["3","4"],["5","6"]],"c":["7","8"]}`
	ok := s.v.Verify(context.Background(), proof.Artifact{ProofData: json.RawMessage(short), PublicInputs: []string{"42", "7"}}, s.stmt)
	s.Require().True(ok)
	s.Require().Len(s.calls, 1)

	var sent proof.Groth16
	s.Require().NoError(json.Unmarshal(s.calls[0].proof, &sent))
	s.Equal([]string{"1", "2", "1"}, sent.PiA)
	s.Equal([][]string{{"3", "4"}, {"5", "6"}, {"1", "0"}}, sent.PiB)
	s.Equal([]string{"7", "8", "1"}, sent.PiC)
	s.Equal("groth16", sent.Protocol)
}

func (s *VerifierSuite) TestBoundInputComparesNumerically() {
	s.True(s.v.Verify(context.Background(), s.artifact("042", "7"), s.stmt))
}
