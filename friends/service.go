// Package friends implements the friend-to-friend trust and notification
// protocol: two independently operated sites establish mutual bearer
// tokens through a challenge/proof handshake, then exchange signed
// notifications about posts, reactions and recommendations over
// authenticated HTTP callbacks.
package friends

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/amityhq/amity/internal/snowflake"
	"github.com/amityhq/amity/models"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"
)

// Version identifies this protocol implementation to peers.
const Version = "1.0"

// RestPrefix is the versioned route prefix of the protocol surface.
const RestPrefix = "/amity/v1"

const (
	dispatchTimeout   = 20 * time.Second
	dispatchRedirects = 5
)

// RestURL returns the callback base URL for a site.
func RestURL(siteURL string) string {
	return strings.TrimSuffix(siteURL, "/") + RestPrefix
}

// Service wires the protocol's parts together over a shared database.
// Each request is handled independently; all shared state lives in the
// store.
type Service struct {
	db      *gorm.DB
	logger  *slog.Logger
	events  *Events
	limiter *RateLimiter

	// AcceptRecommendation, if set, decides whether a recommendation for
	// the given link (or its hash) from the given peer should be kept.
	AcceptRecommendation func(link string, from *models.Identity) bool
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	s := &Service{
		db:      db,
		logger:  logger,
		events:  NewEvents(),
		limiter: NewRateLimiter(requestWindow),
	}
	// Local domain events drive the protocol: accepting a pending request
	// notifies the requester, reaction changes and deletions fan out to
	// the remaining friends.
	s.events.OnRoleChanged(func(ctx context.Context, ev RoleChanged) {
		if ev.Identity.IsFriend() && ev.Identity.RequestToken != "" {
			if err := s.NotifyAcceptedOnRemote(ctx, ev.Identity); err != nil {
				s.logger.Warn("notify accepted on remote", "site", ev.Identity.SiteURL, "error", err)
			}
		}
	})
	s.events.OnLocalPostDeleted(func(ctx context.Context, ev LocalPostDeleted) {
		s.Dispatcher().PostDeleted(ctx, ev.Post)
	})
	s.events.OnReactionChanged(func(ctx context.Context, ev ReactionChanged) {
		s.Dispatcher().PostReactionChanged(ctx, ev.PostID, ev.Exclude)
	})
	return s
}

// Events returns the service's event bus for additional subscribers, e.g.
// the ActivityPub adapter.
func (s *Service) Events() *Events {
	return s.events
}

func (s *Service) identities() *models.Identities {
	return models.NewIdentities(s.db)
}

func (s *Service) acceptTokens() *models.AcceptTokens {
	return models.NewAcceptTokens(s.db)
}

func (s *Service) challenges() *models.Challenges {
	return models.NewChallenges(s.db)
}

func (s *Service) posts() *models.Posts {
	return models.NewPosts(s.db)
}

func (s *Service) reactions() *models.Reactions {
	return models.NewReactions(s.db)
}

func (s *Service) profiles() *models.Profiles {
	return models.NewProfiles(s.db)
}

// Settings returns the site's option store.
func (s *Service) Settings() *models.Settings {
	return models.NewSettings(s.db)
}

// authenticate resolves the bearer token of an inbound protocol call to
// the friend identity it was issued to. Any failure is the uniform
// request-failed error with no side effects.
func (s *Service) authenticate(token string) (*models.Identity, error) {
	identity, err := s.identities().VerifyToken(token)
	if err != nil {
		return nil, errRequestFailed()
	}
	return identity, nil
}

// protocolClient bounds every outbound protocol call: 20 seconds overall,
// at most five redirects.
func (s *Service) protocolClient() *http.Client {
	return &http.Client{
		Timeout: dispatchTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= dispatchRedirects {
				return errors.New("stopped after 5 redirects")
			}
			return nil
		},
	}
}

// DeleteLocalPost deletes a locally authored post and notifies all friends
// that mirror it. Delivery failure never fails the deletion.
func (s *Service) DeleteLocalPost(ctx context.Context, id snowflake.ID) error {
	post, err := s.posts().Find(id)
	if err != nil {
		return err
	}
	if err := s.posts().Delete(post); err != nil {
		return err
	}
	if !post.IsMirror() {
		s.events.PublishLocalPostDeleted(ctx, LocalPostDeleted{Post: post})
	}
	return nil
}

// React records this site's own reaction set on a mirrored post and
// notifies the post's author.
func (s *Service) React(ctx context.Context, id snowflake.ID, emojis []string) error {
	post, err := s.posts().Find(id)
	if err != nil {
		return err
	}
	if err := s.reactions().Replace(post.ID, 0, emojis); err != nil {
		return err
	}
	if post.IsMirror() {
		s.Dispatcher().MyReactionChanged(ctx, post)
	} else {
		s.events.PublishReactionChanged(ctx, ReactionChanged{PostID: post.ID})
	}
	return nil
}

// Accept is the local admin's approval of a pending incoming friend
// request. The role change triggers the accept notification to the peer.
func (s *Service) Accept(ctx context.Context, identity *models.Identity) error {
	if identity.IsFriend() {
		return nil
	}
	old := identity.Role
	if err := s.identities().SetRole(identity, models.RoleFriend); err != nil {
		return err
	}
	s.events.PublishRoleChanged(ctx, RoleChanged{Identity: identity, OldRole: old})
	return nil
}
