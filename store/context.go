package store

import "context"

type commentContextKey struct{}

// WithComment attaches a free-form comment to the context for the duration
// of a write. Backends that support per-record comments (the document store
// schema has a comments field) persist it with the entry; others ignore it.
func WithComment(ctx context.Context, comment string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if comment == "" {
		return ctx
	}
	return context.WithValue(ctx, commentContextKey{}, comment)
}

// CommentFromContext returns the comment attached by WithComment, if any.
func CommentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if c, ok := ctx.Value(commentContextKey{}).(string); ok {
		return c
	}
	return ""
}
