package credential

import (
	"bytes"
	"encoding/json"
	"time"

	dErrors "vaultledger/pkg/domain-errors"
)

// CanonicalPayload returns the exact bytes that are signed: a JSON object
// with a fixed field set whose keys are sorted at every nesting level.
// The proof is not part of the payload.
func CanonicalPayload(c *Credential) ([]byte, error) {
	subject, err := normalize(c.Claims)
	if err != nil {
		return nil, err
	}
	subjectMap, _ := subject.(map[string]any)
	if subjectMap == nil {
		subjectMap = map[string]any{}
	}
	subjectMap["id"] = c.SubjectID

	doc := map[string]any{
		"@context":          stringsToAny(c.Context),
		"type":              stringsToAny(c.Types),
		"id":                c.ID.String(),
		"issuer":            c.IssuerID,
		"issuanceDate":      c.IssuedAt.UTC().Format(time.RFC3339),
		"credentialSubject": subjectMap,
	}
	return marshalCanonical(doc)
}

// normalize round-trips v through JSON so every nested value becomes a
// map, slice or scalar. encoding/json writes map keys in sorted order, so
// structs inside claims lose their field order dependence.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "claims are not serializable")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "claims are not serializable")
	}
	return out, nil
}

func marshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode canonical payload")
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
