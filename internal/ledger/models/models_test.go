package models

import (
	"crypto/sha256"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHashJSON(t *testing.T) {
	h := ContentHash(sha256.Sum256([]byte("record")))

	b, err := json.Marshal(h)
	require.NoError(t, err)
	assert.Equal(t, `"`+h.Hex()+`"`, string(b))

	var back ContentHash
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, h, back)

	assert.Error(t, json.Unmarshal([]byte(`"abcd"`), &back))
}

func TestParseContentHash(t *testing.T) {
	_, err := ParseContentHash("zz")
	assert.Error(t, err)

	h, err := ParseContentHash(strings.Repeat("0", 64))
	require.NoError(t, err)
	assert.True(t, h.IsZero())
}

func TestBinds(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		tx   Transaction
		want bool
	}{
		{"pending binds", Transaction{Status: StatusPending}, true},
		{"confirmed binds", Transaction{Status: StatusConfirmed}, true},
		{"failed released", Transaction{Status: StatusFailed}, false},
		{"revoked released", Transaction{Status: StatusConfirmed, RevokedAt: &now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tx.Binds())
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Now()
	tx := &Transaction{
		Attributes:   map[string]string{"owner": "alice"},
		ChainReceipt: []byte{1, 2},
		ConfirmedAt:  &now,
	}
	c := tx.Clone()
	c.Attributes["owner"] = "bob"
	c.ChainReceipt[0] = 9
	*c.ConfirmedAt = now.Add(time.Hour)

	assert.Equal(t, "alice", tx.Attributes["owner"])
	assert.Equal(t, byte(1), tx.ChainReceipt[0])
	assert.Equal(t, now, *tx.ConfirmedAt)
}
