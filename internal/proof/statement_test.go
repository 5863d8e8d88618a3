package proof_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultledger/internal/proof"
	dErrors "vaultledger/pkg/domain-errors"
)

const catalogueYAML = `
statements:
  - id: degree-holder
    circuit_id: degree_v1
    description: holder owns an anchored education record
    arity: 2
    bound_inputs:
      0: "42"
  - id: adult
    circuit_id: age_over_18
    arity: 1
`

func TestLoadCatalogue(t *testing.T) {
	c, err := proof.LoadCatalogue(strings.NewReader(catalogueYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"adult", "degree-holder"}, c.IDs())
	assert.Equal(t, 2, c.Len())

	stmt, err := c.Get("degree-holder")
	require.NoError(t, err)
	assert.Equal(t, "degree_v1", stmt.CircuitID)
	assert.Equal(t, 2, stmt.Arity)
	assert.Equal(t, map[int]string{0: "42"}, stmt.BoundInputs)

	_, err = c.Get("missing")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestLoadCatalogueRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "statements:\n  - id: a\n    circuit_id: c\n    arity: 1\n    verdict: true\n"},
		{"missing circuit", "statements:\n  - id: a\n    arity: 1\n"},
		{"zero arity", "statements:\n  - id: a\n    circuit_id: c\n    arity: 0\n"},
		{"bound index out of range", "statements:\n  - id: a\n    circuit_id: c\n    arity: 1\n    bound_inputs:\n      1: \"5\"\n"},
		{"bound value not decimal", "statements:\n  - id: a\n    circuit_id: c\n    arity: 1\n    bound_inputs:\n      0: abc\n"},
		{"duplicate id", "statements:\n  - id: a\n    circuit_id: c\n    arity: 1\n  - id: a\n    circuit_id: d\n    arity: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := proof.LoadCatalogue(strings.NewReader(tt.yaml))
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
}

func TestLoadCatalogueEmpty(t *testing.T) {
	c, err := proof.LoadCatalogue(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, c.Len())
}
