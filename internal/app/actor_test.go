package app

import (
	"context"
	"testing"
)

// TestMutationActorContextRoundTrip verifies normalization and retrieval from context.
func TestMutationActorContextRoundTrip(t *testing.T) {
	ctx := WithMutationActor(context.Background(), MutationActor{ActorID: " ada ", ActorType: " SYSTEM "})
	actor, ok := MutationActorFromContext(ctx)
	if !ok {
		t.Fatal("MutationActorFromContext() expected actor")
	}
	if actor.ActorID != "ada" {
		t.Fatalf("ActorID = %q, want ada", actor.ActorID)
	}
	if actor.ActorType != ActorTypeSystem {
		t.Fatalf("ActorType = %q, want system", actor.ActorType)
	}
	if got := actorLogValue(ctx); got != "system:ada" {
		t.Fatalf("actorLogValue() = %q, want system:ada", got)
	}
}

// TestMutationActorContextEmpty verifies absence and unknown-type defaults.
func TestMutationActorContextEmpty(t *testing.T) {
	if _, ok := MutationActorFromContext(context.Background()); ok {
		t.Fatal("MutationActorFromContext() expected no actor for empty context")
	}
	empty := WithMutationActor(context.Background(), MutationActor{ActorType: ActorTypeUser})
	if _, ok := MutationActorFromContext(empty); ok {
		t.Fatal("MutationActorFromContext() expected no actor without an id")
	}
	if got := actorLogValue(empty); got != "anonymous" {
		t.Fatalf("actorLogValue() = %q, want anonymous", got)
	}
	odd := WithMutationActor(context.Background(), MutationActor{ActorID: "x", ActorType: "robot"})
	actor, _ := MutationActorFromContext(odd)
	if actor.ActorType != ActorTypeUser {
		t.Fatalf("ActorType = %q, want user fallback", actor.ActorType)
	}
}
