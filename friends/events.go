package friends

import (
	"context"
	"sync"

	"github.com/amityhq/amity/internal/snowflake"
	"github.com/amityhq/amity/models"
)

// RoleChanged is published when an identity's role changes, e.g. when the
// local admin accepts a pending friend request.
type RoleChanged struct {
	Identity *models.Identity
	OldRole  models.Role
}

// ReactionChanged is published when a reaction set on a post changed.
// Exclude names the identity whose own statement caused the change, so
// fan-out does not echo it back.
type ReactionChanged struct {
	PostID  snowflake.ID
	Exclude snowflake.ID
}

// LocalPostDeleted is published when a locally authored post is deleted.
type LocalPostDeleted struct {
	Post *models.Post
}

// RequestAccepted is published when a peer completed the handshake through
// the accept endpoint.
type RequestAccepted struct {
	Identity *models.Identity
}

// Events is the in-process bus connecting the handshake, the dispatcher
// and the inbound handlers. Handlers run synchronously on the publishing
// goroutine.
type Events struct {
	mu              sync.Mutex
	roleChanged     []func(context.Context, RoleChanged)
	reactionChanged []func(context.Context, ReactionChanged)
	postDeleted     []func(context.Context, LocalPostDeleted)
	requestAccepted []func(context.Context, RequestAccepted)
}

func NewEvents() *Events {
	return &Events{}
}

func (e *Events) OnRoleChanged(fn func(context.Context, RoleChanged)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.roleChanged = append(e.roleChanged, fn)
}

func (e *Events) OnReactionChanged(fn func(context.Context, ReactionChanged)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reactionChanged = append(e.reactionChanged, fn)
}

func (e *Events) OnLocalPostDeleted(fn func(context.Context, LocalPostDeleted)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.postDeleted = append(e.postDeleted, fn)
}

func (e *Events) OnRequestAccepted(fn func(context.Context, RequestAccepted)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requestAccepted = append(e.requestAccepted, fn)
}

func (e *Events) PublishRoleChanged(ctx context.Context, ev RoleChanged) {
	e.mu.Lock()
	subs := e.roleChanged
	e.mu.Unlock()
	for _, fn := range subs {
		fn(ctx, ev)
	}
}

func (e *Events) PublishReactionChanged(ctx context.Context, ev ReactionChanged) {
	e.mu.Lock()
	subs := e.reactionChanged
	e.mu.Unlock()
	for _, fn := range subs {
		fn(ctx, ev)
	}
}

func (e *Events) PublishLocalPostDeleted(ctx context.Context, ev LocalPostDeleted) {
	e.mu.Lock()
	subs := e.postDeleted
	e.mu.Unlock()
	for _, fn := range subs {
		fn(ctx, ev)
	}
}

func (e *Events) PublishRequestAccepted(ctx context.Context, ev RequestAccepted) {
	e.mu.Lock()
	subs := e.requestAccepted
	e.mu.Unlock()
	for _, fn := range subs {
		fn(ctx, ev)
	}
}
