package friends

import (
	"context"
	"net/http"
	"strconv"

	"github.com/amityhq/amity/internal/group"
	"github.com/amityhq/amity/internal/snowflake"
	"github.com/amityhq/amity/models"
	"github.com/carlmjohnson/requests"
)

// A Dispatcher delivers notifications to friends. Deliveries run in
// parallel, one goroutine per peer, and never fail the caller: an
// unreachable friend is logged and skipped so it cannot hold up the
// others.
type Dispatcher struct {
	service *Service
	client  *http.Client
}

func (s *Service) Dispatcher() *Dispatcher {
	return &Dispatcher{
		service: s,
		client:  s.protocolClient(),
	}
}

// post delivers one notification to one friend, authenticated with the
// token that friend issued to this site.
func (d *Dispatcher) post(ctx context.Context, identity *models.Identity, path string, body map[string]any) {
	payload := make(map[string]any, len(body)+1)
	for k, v := range body {
		payload[k] = v
	}
	payload["friend"] = identity.InToken
	err := requests.URL(RestURL(identity.SiteURL)+path).
		BodyJSON(payload).
		Client(d.client).
		CheckStatus(http.StatusOK).
		Fetch(ctx)
	if err != nil {
		d.service.logger.Warn("dispatch failed", "site", identity.SiteURL, "path", path, "error", err)
	}
}

// fanOut delivers the same notification to every friend except the
// excluded ones.
func (d *Dispatcher) fanOut(ctx context.Context, path string, body map[string]any, exclude ...snowflake.ID) {
	friends, err := d.service.identities().Friends(exclude...)
	if err != nil {
		d.service.logger.Warn("dispatch fan out", "path", path, "error", err)
		return
	}
	g := group.New(ctx)
	for i := range friends {
		identity := &friends[i]
		g.Go(func(ctx context.Context) {
			d.post(ctx, identity, path, body)
		})
	}
	g.Wait()
}

// PostDeleted tells all friends that a locally authored post was deleted,
// so they can drop their mirrors.
func (d *Dispatcher) PostDeleted(ctx context.Context, post *models.Post) {
	d.fanOut(ctx, "/post-deleted", map[string]any{
		"post_id": strconv.FormatUint(uint64(post.ID), 10),
	})
}

// PostReactionChanged tells all friends mirroring a locally authored post
// its combined reaction set, except the friend whose statement caused the
// change.
func (d *Dispatcher) PostReactionChanged(ctx context.Context, postID snowflake.ID, exclude snowflake.ID) {
	reactions, err := d.service.reactions().AllForPost(postID)
	if err != nil {
		d.service.logger.Warn("dispatch reactions", "error", err)
		return
	}
	d.fanOut(ctx, "/update-post-reactions", map[string]any{
		"post_id":   strconv.FormatUint(uint64(postID), 10),
		"reactions": reactions,
	}, exclude)
}

// MyReactionChanged tells a mirrored post's author this site's own
// reaction set on it.
func (d *Dispatcher) MyReactionChanged(ctx context.Context, post *models.Post) {
	identity, err := d.service.identities().Find(post.IdentityID)
	if err != nil {
		d.service.logger.Warn("dispatch my reactions", "error", err)
		return
	}
	if !identity.IsFriend() {
		return
	}
	reactions, err := d.service.reactions().ForPost(post.ID, 0)
	if err != nil {
		d.service.logger.Warn("dispatch my reactions", "error", err)
		return
	}
	d.post(ctx, identity, "/my-reactions", map[string]any{
		"post_id":   post.RemoteID,
		"reactions": reactions,
	})
}

// SendRecommendation recommends a link to all friends.
func (d *Dispatcher) SendRecommendation(ctx context.Context, post *models.Post, message string) {
	d.fanOut(ctx, "/recommendation", map[string]any{
		"link":        post.URL,
		"title":       post.Title,
		"author":      post.AuthorName,
		"description": post.Content,
		"icon_url":    post.IconURL,
		"message":     message,
	})
}
