// Package tracer provides a small tracing abstraction for the verification engine
// so the sequencer does not depend on OpenTelemetry directly.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
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

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanRegister    = "kyc.register"
	SpanSendOtp     = "kyc.identity.send_otp"
	SpanVerifyOtp   = "kyc.identity.verify_otp"
	SpanVerifyPan   = "kyc.pan.verify"
	SpanVerifyBank  = "kyc.bank.verify"
	SpanLockAcquire = "kyc.lock.acquire"
)

// Attribute keys.
const (
	AttrApplicationID = "application.id"
	AttrSubjectID     = "subject.id"
	AttrEntityType    = "entity.type"
	AttrOutcome       = "outcome"
	AttrReason        = "reason"
	AttrBankMethod    = "bank.method"
	AttrSimilarity    = "name.similarity"
)

// Event names.
const (
	EventReviewFlagged = "review.flagged"
)
