// Package activitypub is a secondary adapter: sites that are not running
// the friend protocol can still be followed and unfollowed over
// ActivityPub, and their mentions of local handles resolve through the
// same actor metadata.
package activitypub

import (
	"context"

	"github.com/amityhq/amity/friends"
	"github.com/amityhq/amity/models"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	logger  *slog.Logger
	client  *Client
	actors  *Actors
	actorID string
}

// NewService returns the ActivityPub adapter, signing as the site profile.
func NewService(db *gorm.DB, logger *slog.Logger, siteURL string, profile *models.Profile) (*Service, error) {
	client, err := NewClient(siteURL, profile)
	if err != nil {
		return nil, err
	}
	s := &Service{
		db:      db,
		logger:  logger,
		client:  client,
		actorID: ActorID(siteURL),
	}
	s.actors = NewActors(db, &remoteResolver{client: client})
	return s, nil
}

// Actors returns the adapter's actor cache and resolver.
func (s *Service) Actors() *Actors {
	return s.actors
}

// Listen follows and unfollows remote actors as friendships come and go.
// A peer that never completes the handshake can still be followed the
// ActivityPub way; a removed friend is unfollowed.
func (s *Service) Listen(events *friends.Events) {
	events.OnRoleChanged(func(ctx context.Context, ev friends.RoleChanged) {
		actor, err := s.actors.ResolveActorID(ctx, ActorID(ev.Identity.SiteURL))
		if err != nil {
			s.logger.Debug("no activitypub actor", "site", ev.Identity.SiteURL, "error", err)
			return
		}
		if ev.Identity.IsFriend() {
			err = s.Follow(ctx, actor)
		} else {
			err = s.Unfollow(ctx, actor)
		}
		if err != nil {
			s.logger.Warn("activitypub follow state", "site", ev.Identity.SiteURL, "error", err)
		}
	})
	events.OnLocalPostDeleted(func(ctx context.Context, ev friends.LocalPostDeleted) {
		if ev.Post.URL == "" {
			return
		}
		friendsList, err := models.NewIdentities(s.db).Friends()
		if err != nil {
			s.logger.Warn("activitypub delete", "error", err)
			return
		}
		for i := range friendsList {
			actor, err := s.actors.ResolveActorID(ctx, ActorID(friendsList[i].SiteURL))
			if err != nil {
				continue
			}
			if err := s.Delete(ctx, actor, ev.Post.URL); err != nil {
				s.logger.Warn("activitypub delete", "site", friendsList[i].SiteURL, "error", err)
			}
		}
	})
}

// AllTables returns the adapter's tables for migration.
func AllTables() []any {
	return []any{
		&Actor{},
		&Activity{},
	}
}
