package shared

import "context"

// Actor identifies who performs an administrative operation. Authentication
// itself happens upstream; the service only propagates the identity for
// audit records and grant attribution.
type Actor struct {
	Type string
	ID   int64
}

type actorContextKey struct{}

// ContextWithActor stores the acting identity in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the acting identity from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
