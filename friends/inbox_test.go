package friends

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/amityhq/amity/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostDeletedIsIdempotent(t *testing.T) {
	require := require.New(t)
	a := newTestSite(t, "a")
	b := newTestSite(t, "b")
	befriend(t, a, b)

	// b mirrors post 123 from a
	aOnB := b.identityFor(a)
	mirror := b.mockMirror(aOnB, "123")
	token := aOnB.OutToken

	status, body := b.postJSON("/post-deleted", map[string]any{
		"friend":  token,
		"post_id": "123",
	})
	require.Equal(http.StatusOK, status)
	require.Equal(true, body["deleted"])
	_, err := models.NewPosts(b.db).Find(mirror.ID)
	require.ErrorIs(err, gorm.ErrRecordNotFound)

	// deleting again is not an error, just a no-op
	status, body = b.postJSON("/post-deleted", map[string]any{
		"friend":  token,
		"post_id": "123",
	})
	require.Equal(http.StatusOK, status)
	require.Equal(false, body["deleted"])
}

func TestInboundRejectsBadTokens(t *testing.T) {
	require := require.New(t)
	b := newTestSite(t, "b")

	for _, token := range []string{"", "no such token"} {
		status, body := b.postJSON("/post-deleted", map[string]any{
			"friend":  token,
			"post_id": "123",
		})
		require.Equal(http.StatusForbidden, status)
		require.Equal("friends_request_failed", body["code"])
	}
}

func TestReactionsTravelToTheAuthor(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := newTestSite(t, "a")
	b := newTestSite(t, "b")
	befriend(t, a, b)

	// a authors a post, b mirrors it
	post := a.mockLocalPost("hello world")
	bOnA := a.identityFor(b)
	mirror := b.mockMirror(b.identityFor(a), strconv.FormatUint(uint64(post.ID), 10))

	// b reacts on its mirror; the dispatcher carries the reaction to a
	require.NoError(b.svc.React(ctx, mirror.ID, []string{"2764"}))

	reactions, err := models.NewReactions(a.db).ForPost(post.ID, bOnA.ID)
	require.NoError(err)
	require.Equal([]string{"2764"}, reactions)

	// an empty statement clears b's reactions on a
	require.NoError(b.svc.React(ctx, mirror.ID, nil))
	reactions, err = models.NewReactions(a.db).ForPost(post.ID, bOnA.ID)
	require.NoError(err)
	require.Empty(reactions)
}

func TestUpdatePostReactionsStoresTheAuthorsSet(t *testing.T) {
	require := require.New(t)
	a := newTestSite(t, "a")
	b := newTestSite(t, "b")
	befriend(t, a, b)

	aOnB := b.identityFor(a)
	mirror := b.mockMirror(aOnB, "77")

	status, body := b.postJSON("/update-post-reactions", map[string]any{
		"friend":    aOnB.OutToken,
		"post_id":   "77",
		"reactions": []string{"1f44d", "2764"},
	})
	require.Equal(http.StatusOK, status)
	require.Equal(true, body["updated"])
	reactions, err := models.NewReactions(b.db).ForPost(mirror.ID, aOnB.ID)
	require.NoError(err)
	require.Equal([]string{"1f44d", "2764"}, reactions)

	// an unknown post id is acknowledged without storing anything
	status, body = b.postJSON("/update-post-reactions", map[string]any{
		"friend":    aOnB.OutToken,
		"post_id":   "no such post",
		"reactions": []string{"1f44d"},
	})
	require.Equal(http.StatusOK, status)
	require.Equal(false, body["updated"])
}

func TestRecommendation(t *testing.T) {
	require := require.New(t)
	a := newTestSite(t, "a")
	b := newTestSite(t, "b")
	befriend(t, a, b)
	token := b.identityFor(a).OutToken

	recommend := map[string]any{
		"friend":      token,
		"link":        "https://interesting.example/read-this",
		"title":       "read this",
		"author":      "someone",
		"description": "you will like it",
		"icon_url":    "https://interesting.example/author.png",
		"message":     "thought of you",
	}
	status, body := b.postJSON("/recommendation", recommend)
	require.Equal(http.StatusOK, status)
	require.Equal("you", body["thank"])

	post, err := models.NewPosts(b.db).FindByURL("https://interesting.example/read-this")
	require.NoError(err)
	require.True(post.Recommendation)
	require.Equal("thought of you", post.RecommendationMessage)
	require.Equal("read this", post.Title)
	require.Equal("you will like it", post.Content)
	require.Equal("https://interesting.example/author.png", post.IconURL)

	// recommending the same link twice is shrugged off
	status, body = b.postJSON("/recommendation", recommend)
	require.Equal(http.StatusOK, status)
	require.Equal("knew", body["already"])

	// a hash-only recommendation cannot be mirrored, but the filter still
	// gets to see the hash
	var filtered []string
	b.svc.AcceptRecommendation = func(link string, from *models.Identity) bool {
		filtered = append(filtered, link)
		return true
	}
	status, body = b.postJSON("/recommendation", map[string]any{
		"friend":    token,
		"sha1_link": "da39a3ee5e6b4b0d3255bfef95601890afd80709",
	})
	require.Equal(http.StatusOK, status)
	require.Equal("for now", body["ignored"])
	require.Equal([]string{"da39a3ee5e6b4b0d3255bfef95601890afd80709"}, filtered)

	// the site can decline recommendations outright
	b.svc.AcceptRecommendation = func(link string, from *models.Identity) bool {
		return false
	}
	status, body = b.postJSON("/recommendation", map[string]any{
		"friend": token,
		"link":   "https://interesting.example/another",
	})
	require.Equal(http.StatusOK, status)
	require.Equal("thanks", body["no"])
	_, err = models.NewPosts(b.db).FindByURL("https://interesting.example/another")
	require.ErrorIs(err, gorm.ErrRecordNotFound)
}

func TestMyReactionsOnlyUpdateLocalPosts(t *testing.T) {
	require := require.New(t)
	a := newTestSite(t, "a")
	b := newTestSite(t, "b")
	befriend(t, a, b)
	aOnB := b.identityFor(a)

	// a mirror is not b's own post; the reaction is shrugged off so the
	// friend's retries converge
	mirror := b.mockMirror(aOnB, "5")
	status, body := b.postJSON("/my-reactions", map[string]any{
		"friend":    aOnB.OutToken,
		"post_id":   strconv.FormatUint(uint64(mirror.ID), 10),
		"reactions": []string{"1f44d"},
	})
	require.Equal(http.StatusOK, status)
	require.Equal(false, body["updated"])
	reactions, err := models.NewReactions(b.db).ForPost(mirror.ID, aOnB.ID)
	require.NoError(err)
	require.Empty(reactions)

	// same for a post id that never existed
	status, body = b.postJSON("/my-reactions", map[string]any{
		"friend":    aOnB.OutToken,
		"post_id":   "999999999",
		"reactions": []string{"1f44d"},
	})
	require.Equal(http.StatusOK, status)
	require.Equal(false, body["updated"])

	// a post id that is not a number at all is a malformed request
	status, body = b.postJSON("/my-reactions", map[string]any{
		"friend":    aOnB.OutToken,
		"post_id":   "not a post id",
		"reactions": []string{"1f44d"},
	})
	require.Equal(http.StatusForbidden, status)
	require.Equal("friends_invalid_parameters", body["code"])
}
