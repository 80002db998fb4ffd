package app

import (
	"context"
	"strings"
)

// ActorType names who issued a mutation.
type ActorType string

// ActorType values.
const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
)

// MutationActor carries caller identity for mutation attribution in logs.
type MutationActor struct {
	ActorID   string
	ActorType ActorType
}

// WithMutationActor attaches normalized mutation-actor identity metadata to context.
func WithMutationActor(ctx context.Context, actor MutationActor) context.Context {
	return context.WithValue(ctx, mutationActorContextKey{}, normalizeMutationActor(actor))
}

// MutationActorFromContext returns normalized mutation-actor metadata when present.
func MutationActorFromContext(ctx context.Context) (MutationActor, bool) {
	actor, ok := ctx.Value(mutationActorContextKey{}).(MutationActor)
	if !ok {
		return MutationActor{}, false
	}
	actor = normalizeMutationActor(actor)
	if actor.ActorID == "" {
		return MutationActor{}, false
	}
	return actor, true
}

// mutationActorContextKey stores context keys for mutation actor metadata.
type mutationActorContextKey struct{}

// actorLogValue renders the actor for a log key, "anonymous" when absent.
func actorLogValue(ctx context.Context) string {
	actor, ok := MutationActorFromContext(ctx)
	if !ok {
		return "anonymous"
	}
	return string(actor.ActorType) + ":" + actor.ActorID
}

// normalizeMutationActor trims and canonicalizes mutation actor metadata.
func normalizeMutationActor(actor MutationActor) MutationActor {
	actor.ActorID = strings.TrimSpace(actor.ActorID)
	actor.ActorType = ActorType(strings.TrimSpace(strings.ToLower(string(actor.ActorType))))
	switch actor.ActorType {
	case ActorTypeUser, ActorTypeSystem:
	default:
		actor.ActorType = ActorTypeUser
	}
	return actor
}
