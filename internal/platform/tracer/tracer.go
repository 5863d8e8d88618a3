// Package tracer is the tracing abstraction used by the record engine.
//
// Implementations:
//   - NoopTracer: tests and deployments without a collector
//   - OTelTracer: OpenTelemetry adapter
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
//
//	ctx, span := tr.Start(ctx, tracer.SpanAnchorRecord, tracer.String(tracer.AttrRecordID, id))
//	defer func() { span.End(err) }()
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashActor shortens an owner or verifier id to a correlation token so
// traces do not carry the identifier itself.
func HashActor(actorID string) string {
	if actorID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(actorID))
	return hex.EncodeToString(sum[:8])
}

// Span names.
const (
	SpanAnchorRecord     = "record.anchor"
	SpanResumeAnchor     = "record.resume"
	SpanFetchRecord      = "record.fetch"
	SpanRevokeRecord     = "record.revoke"
	SpanIssueCredential  = "credential.issue"
	SpanVerifyCredential = "credential.verify"
	SpanVerifyProof      = "proof.verify"
)

// Attribute keys.
const (
	AttrRecordID    = "record.id"
	AttrRecordType  = "record.type"
	AttrOwner       = "record.owner_hash"
	AttrContentID   = "content.id"
	AttrTxHash      = "ledger.tx_hash"
	AttrAnchorState = "ledger.status"
	AttrStep        = "engine.step"
	AttrStatement   = "proof.statement"
	AttrCredential  = "credential.id"
)

// Event names.
const (
	EventStepCompleted = "step.completed"
)
