package proof

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

// BN254 moduli. Proof coordinates live in the base field, public inputs in
// the scalar field.
var (
	baseModulus, _   = new(big.Int).SetString("21888242871839275222246405745257275088696311157297823662689037894645226208583", 10)
	scalarModulus, _ = new(big.Int).SetString("21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)
)

// Artifact is a submitted proof: the proof object and its public inputs.
// It is consumed by one verification and never persisted.
type Artifact struct {
	ProofData    json.RawMessage `json:"proof"`
	PublicInputs []string        `json:"public_inputs"`
}

// Groth16 is a proof in snarkjs projective form.
type Groth16 struct {
	PiA      []string   `json:"pi_a"`
	PiB      [][]string `json:"pi_b"`
	PiC      []string   `json:"pi_c"`
	Protocol string     `json:"protocol"`
	Curve    string     `json:"curve"`
}

// groth16Wire accepts both the snarkjs keys and the short a/b/c form.
type groth16Wire struct {
	PiA      []string   `json:"pi_a"`
	PiB      [][]string `json:"pi_b"`
	PiC      []string   `json:"pi_c"`
	A        []string   `json:"a"`
	B        [][]string `json:"b"`
	C        []string   `json:"c"`
	Protocol string     `json:"protocol"`
	Curve    string     `json:"curve"`
}

var errMalformed = errors.New("malformed groth16 proof")

// ParseGroth16 decodes raw and checks its structure: pi_a and pi_c hold 2 or
// 3 base field elements, pi_b holds 2 or 3 pairs of them. Affine points are
// lifted to projective form so the result is what snarkjs expects.
func ParseGroth16(raw json.RawMessage) (*Groth16, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty proof", errMalformed)
	}
	var w groth16Wire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}

	a, b, c := w.PiA, w.PiB, w.PiC
	if a == nil && b == nil && c == nil {
		a, b, c = w.A, w.B, w.C
	}

	if w.Protocol != "" && w.Protocol != "groth16" {
		return nil, fmt.Errorf("%w: unsupported protocol %q", errMalformed, w.Protocol)
	}
	if w.Curve != "" && w.Curve != "bn128" && w.Curve != "bn254" {
		return nil, fmt.Errorf("%w: unsupported curve %q", errMalformed, w.Curve)
	}

	if err := checkG1("pi_a", a); err != nil {
		return nil, err
	}
	if err := checkG2("pi_b", b); err != nil {
		return nil, err
	}
	if err := checkG1("pi_c", c); err != nil {
		return nil, err
	}

	return &Groth16{
		PiA:      liftG1(a),
		PiB:      liftG2(b),
		PiC:      liftG1(c),
		Protocol: "groth16",
		Curve:    "bn128",
	}, nil
}

// JSON returns the normalized proof encoding.
func (g *Groth16) JSON() (json.RawMessage, error) {
	return json.Marshal(g)
}

func checkG1(name string, p []string) error {
	if len(p) < 2 || len(p) > 3 {
		return fmt.Errorf("%w: %s has %d elements", errMalformed, name, len(p))
	}
	for i, v := range p {
		if _, err := parseFieldElement(v, baseModulus); err != nil {
			return fmt.Errorf("%w: %s[%d]: %v", errMalformed, name, i, err)
		}
	}
	return nil
}

func checkG2(name string, p [][]string) error {
	if len(p) < 2 || len(p) > 3 {
		return fmt.Errorf("%w: %s has %d pairs", errMalformed, name, len(p))
	}
	for i, pair := range p {
		if len(pair) != 2 {
			return fmt.Errorf("%w: %s[%d] is not a pair", errMalformed, name, i)
		}
		for j, v := range pair {
			if _, err := parseFieldElement(v, baseModulus); err != nil {
				return fmt.Errorf("%w: %s[%d][%d]: %v", errMalformed, name, i, j, err)
			}
		}
	}
	return nil
}

func liftG1(p []string) []string {
	if len(p) == 3 {
		return p
	}
	return []string{p[0], p[1], "1"}
}

func liftG2(p [][]string) [][]string {
	if len(p) == 3 {
		return p
	}
	return [][]string{p[0], p[1], {"1", "0"}}
}

// parseFieldElement accepts an unsigned decimal strictly below modulus.
func parseFieldElement(s string, modulus *big.Int) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("empty field element")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("%q is not an unsigned decimal", s)
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not an unsigned decimal", s)
	}
	if n.Cmp(modulus) >= 0 {
		return nil, fmt.Errorf("%q exceeds field modulus", s)
	}
	return n, nil
}
