package reports

import "context"

// ActivityContext captures actor/user/tenant identifiers for activity events.
type ActivityContext struct {
	ActorID  string
	UserID   string
	TenantID string
}

type activityContextKey struct{}

// ContextWithActivity stores activity context on ctx.
func ContextWithActivity(ctx context.Context, meta ActivityContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, activityContextKey{}, meta)
}

// ActivityFromContext returns the activity context stored on ctx, if any.
func ActivityFromContext(ctx context.Context) ActivityContext {
	if ctx == nil {
		return ActivityContext{}
	}
	if meta, ok := ctx.Value(activityContextKey{}).(ActivityContext); ok {
		return meta
	}
	return ActivityContext{}
}
