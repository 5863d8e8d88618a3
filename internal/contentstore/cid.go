package contentstore

import (
	"bytes"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/zeebo/blake3"

	dErrors "vaultledger/pkg/domain-errors"
)

// HashFunc selects the multihash function used to derive content ids.
type HashFunc string

const (
	// SHA256 matches the ids IPFS assigns to raw blocks by default.
	SHA256 HashFunc = "sha2-256"
	// BLAKE3 is faster on large blobs; ids remain valid IPFS CIDs.
	BLAKE3 HashFunc = "blake3"
)

// ParseHashFunc validates a configured hash function name.
func ParseHashFunc(name string) (HashFunc, error) {
	switch HashFunc(name) {
	case "", SHA256:
		return SHA256, nil
	case BLAKE3:
		return BLAKE3, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported content hash: "+name)
	}
}

// ContentID is a CIDv1 string (raw codec) naming a blob by its digest.
type ContentID string

// String returns the canonical string form.
func (id ContentID) String() string {
	return string(id)
}

// IsNil reports whether the id is empty.
func (id ContentID) IsNil() bool {
	return id == ""
}

// ParseContentID validates a CID string. CIDv0 ("Qm...") is accepted too, as
// long as it carries a multihash the store can recompute.
func ParseContentID(s string) (ContentID, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid content id")
	}
	if _, err := hashFuncOf(c.Hash()); err != nil {
		return "", err
	}
	return ContentID(c.String()), nil
}

// ComputeID derives the deterministic content id of data.
func ComputeID(data []byte, hf HashFunc) (ContentID, error) {
	mh, err := sum(data, hf)
	if err != nil {
		return "", err
	}
	return ContentID(cid.NewCidV1(cid.Raw, mh).String()), nil
}

// Verify recomputes the digest of data with the hash function named inside
// id and fails with CodeIntegrity on mismatch.
func Verify(id ContentID, data []byte) error {
	c, err := cid.Decode(string(id))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid content id")
	}
	hf, err := hashFuncOf(c.Hash())
	if err != nil {
		return err
	}
	got, err := sum(data, hf)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, c.Hash()) {
		return ErrIntegrity
	}
	return nil
}

// SameContent reports whether two CID strings carry the same multihash,
// ignoring CID version and codec differences.
func SameContent(a, b string) bool {
	ca, err := cid.Decode(a)
	if err != nil {
		return false
	}
	cb, err := cid.Decode(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ca.Hash(), cb.Hash())
}

func sum(data []byte, hf HashFunc) (multihash.Multihash, error) {
	switch hf {
	case SHA256:
		mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash content")
		}
		return mh, nil
	case BLAKE3:
		digest := blake3.Sum256(data)
		mh, err := multihash.Encode(digest[:], multihash.BLAKE3)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode blake3 multihash")
		}
		return mh, nil
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported content hash: "+string(hf))
	}
}

func hashFuncOf(mh multihash.Multihash) (HashFunc, error) {
	decoded, err := multihash.Decode(mh)
	if err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid content id multihash")
	}
	switch decoded.Code {
	case multihash.SHA2_256:
		return SHA256, nil
	case multihash.BLAKE3:
		if decoded.Length != 32 {
			return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported blake3 digest length")
		}
		return BLAKE3, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported content id hash function")
	}
}
