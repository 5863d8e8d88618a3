package proof

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	dErrors "vaultledger/pkg/domain-errors"
)

// Statement is the explicit claim a proof must attest: which circuit, how many
// public inputs, and which of them are pinned to known values.
type Statement struct {
	ID          string         `yaml:"id" json:"id"`
	CircuitID   string         `yaml:"circuit_id" json:"circuit_id"`
	Description string         `yaml:"description" json:"description,omitempty"`
	Arity       int            `yaml:"arity" json:"arity"`
	BoundInputs map[int]string `yaml:"bound_inputs" json:"bound_inputs,omitempty"`
}

// Validate checks the statement is usable for verification.
func (s Statement) Validate() error {
	if s.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "statement id is required")
	}
	if s.CircuitID == "" {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("statement %s: circuit_id is required", s.ID))
	}
	if s.Arity <= 0 {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("statement %s: arity must be positive", s.ID))
	}
	for idx, v := range s.BoundInputs {
		if idx < 0 || idx >= s.Arity {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("statement %s: bound input %d outside arity %d", s.ID, idx, s.Arity))
		}
		if _, err := parseFieldElement(v, scalarModulus); err != nil {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("statement %s: bound input %d: %v", s.ID, idx, err))
		}
	}
	return nil
}

// Catalogue holds the statements a deployment accepts proofs for.
type Catalogue struct {
	statements map[string]Statement
}

type catalogueFile struct {
	Statements []Statement `yaml:"statements"`
}

// NewCatalogue builds a catalogue from already-constructed statements.
func NewCatalogue(statements ...Statement) (*Catalogue, error) {
	c := &Catalogue{statements: make(map[string]Statement, len(statements))}
	for _, s := range statements {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.statements[s.ID]; dup {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("duplicate statement id %s", s.ID))
		}
		c.statements[s.ID] = s
	}
	return c, nil
}

// LoadCatalogue parses a YAML statement catalogue. Unknown fields are rejected.
func LoadCatalogue(r io.Reader) (*Catalogue, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file catalogueFile
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "parse statement catalogue")
	}
	return NewCatalogue(file.Statements...)
}

// LoadCatalogueFile reads a YAML catalogue from path.
func LoadCatalogueFile(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read statement catalogue: %w", err)
	}
	return LoadCatalogue(bytes.NewReader(data))
}

// Get returns the statement with id.
func (c *Catalogue) Get(id string) (Statement, error) {
	s, ok := c.statements[id]
	if !ok {
		return Statement{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unknown statement %s", id))
	}
	return s, nil
}

// IDs returns the catalogue's statement ids in sorted order.
func (c *Catalogue) IDs() []string {
	ids := make([]string, 0, len(c.statements))
	for id := range c.statements {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of statements.
func (c *Catalogue) Len() int {
	return len(c.statements)
}
