// Package context carries request-scoped correlation fields for logs and spans.
package context

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Fields are the identifiers attached to every log line and span of a request.
type Fields struct {
	RequestID     string
	CorrelationID string
	OrgID         string
	ActorType     string
	ActorID       string
}

type fieldsKey struct{}

// FieldsFromContext returns the correlation fields stored on ctx, or the zero value.
func FieldsFromContext(ctx context.Context) Fields {
	if ctx == nil {
		return Fields{}
	}
	f, _ := ctx.Value(fieldsKey{}).(Fields)
	return f
}

func update(ctx context.Context, fn func(*Fields)) context.Context {
	f := FieldsFromContext(ctx)
	fn(&f)
	return context.WithValue(ctx, fieldsKey{}, f)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return update(ctx, func(f *Fields) { f.RequestID = strings.TrimSpace(requestID) })
}

func RequestIDFromContext(ctx context.Context) string {
	return FieldsFromContext(ctx).RequestID
}

func WithOrgID(ctx context.Context, orgID string) context.Context {
	return update(ctx, func(f *Fields) { f.OrgID = strings.TrimSpace(orgID) })
}

// WithActor records who is acting, e.g. ("user", subject).
func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	return update(ctx, func(f *Fields) {
		f.ActorType = strings.TrimSpace(actorType)
		f.ActorID = strings.TrimSpace(actorID)
	})
}

// EnsureCorrelationID keeps the given upstream id when present and otherwise
// mints a ULID. It returns the id that ended up on the context.
func EnsureCorrelationID(ctx context.Context, upstream string) (context.Context, string) {
	cid := strings.TrimSpace(upstream)
	if cid == "" {
		cid = FieldsFromContext(ctx).CorrelationID
	}
	if cid == "" {
		cid = ulid.Make().String()
	}
	return update(ctx, func(f *Fields) { f.CorrelationID = cid }), cid
}
