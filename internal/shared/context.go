package shared

import "context"

// Actor identifies the authenticated caller of a request.
type Actor struct {
	UserID int64
	Email  string
	Role   string
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}

// ActorID returns the acting user id or zero when unauthenticated.
func ActorID(ctx context.Context) int64 {
	if actor := ActorFromContext(ctx); actor != nil {
		return actor.UserID
	}
	return 0
}
