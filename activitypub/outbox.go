package activitypub

import (
	"context"
	"fmt"
)

const activityStreamsContext = "https://www.w3.org/ns/activitystreams"

// Follow asks the actor's server to deliver its activities to this site.
// The activity id is derived from both actors so a repeated follow is the
// same activity, not a new one.
func (s *Service) Follow(ctx context.Context, actor *Actor) error {
	return s.client.Post(ctx, actor.Inbox, map[string]any{
		"@context": activityStreamsContext,
		"id":       fmt.Sprintf("%s#follow-%s", s.actorID, hostOf(actor.ActorID)),
		"type":     "Follow",
		"actor":    s.actorID,
		"object":   actor.ActorID,
	})
}

// Unfollow undoes an earlier follow of the actor.
func (s *Service) Unfollow(ctx context.Context, actor *Actor) error {
	return s.client.Post(ctx, actor.Inbox, map[string]any{
		"@context": activityStreamsContext,
		"id":       fmt.Sprintf("%s#unfollow-%s", s.actorID, hostOf(actor.ActorID)),
		"type":     "Undo",
		"actor":    s.actorID,
		"object": map[string]any{
			"id":     fmt.Sprintf("%s#follow-%s", s.actorID, hostOf(actor.ActorID)),
			"type":   "Follow",
			"actor":  s.actorID,
			"object": actor.ActorID,
		},
	})
}

// Delete tells the actor's server that an object this site published is
// gone.
func (s *Service) Delete(ctx context.Context, actor *Actor, objectURI string) error {
	return s.client.Post(ctx, actor.Inbox, map[string]any{
		"@context": activityStreamsContext,
		"id":       objectURI + "#delete",
		"type":     "Delete",
		"actor":    s.actorID,
		"object": map[string]any{
			"id":   objectURI,
			"type": "Tombstone",
		},
	})
}
