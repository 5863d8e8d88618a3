package audit

import (
	"context"
	"log/slog"

	"vaultledger/pkg/requestcontext"
)

// Emitter is the interface for audit event emission.
// Satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Logger writes audit events to the text log and, when configured, to an
// Emitter. Emission failures are logged, never returned: auditing must not
// undo a completed operation.
type Logger struct {
	textLogger *slog.Logger
	emitter    Emitter
}

// NewLogger creates an audit logger. emitter may be nil.
func NewLogger(textLogger *slog.Logger, emitter Emitter) *Logger {
	return &Logger{
		textLogger: textLogger,
		emitter:    emitter,
	}
}

// Log records event about subject. The actor and request id come from ctx.
//
//	logger.Log(ctx, audit.EventRecordAnchored, audit.Event{Subject: recordID, TxHash: tx})
func (l *Logger) Log(ctx context.Context, action AuditEvent, event Event) {
	if l == nil {
		return
	}
	event.Action = string(action)
	event.Category = action.Category()
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ActorID == "" {
		event.ActorID = requestcontext.ActorID(ctx)
	}

	l.logToText(ctx, event)
	l.emit(ctx, event)
}

func (l *Logger) logToText(ctx context.Context, event Event) {
	if l.textLogger == nil {
		return
	}
	args := []any{
		"event", event.Action,
		"log_type", "audit",
		"category", string(event.Category),
		"subject", event.Subject,
	}
	if event.ActorID != "" {
		args = append(args, "actor_id", event.ActorID)
	}
	if event.Reason != "" {
		args = append(args, "reason", event.Reason)
	}
	if event.ContentID != "" {
		args = append(args, "content_id", event.ContentID)
	}
	if event.TxHash != "" {
		args = append(args, "tx_hash", event.TxHash)
	}
	if event.RequestID != "" {
		args = append(args, "request_id", event.RequestID)
	}
	l.textLogger.InfoContext(ctx, event.Action, args...)
}

func (l *Logger) emit(ctx context.Context, event Event) {
	if l.emitter == nil {
		return
	}
	if err := l.emitter.Emit(ctx, event); err != nil && l.textLogger != nil {
		l.textLogger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"event", event.Action,
			"subject", event.Subject,
		)
	}
}
