package friends

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/amityhq/amity/internal/httpx"
	"github.com/amityhq/amity/internal/snowflake"
	"github.com/amityhq/amity/internal/to"
	"github.com/amityhq/amity/models"
	"gorm.io/gorm"
)

// Inbound callbacks from friends. Every handler authenticates the bearer
// token in the friend parameter first; post ids on the wire are the
// sender's ids, matched against the RemoteID of local mirrors.

type postDeletedParams struct {
	Friend string `json:"friend" schema:"friend"`
	PostID string `json:"post_id" schema:"post_id"`
}

// postDeleted removes the local mirror of a post the friend deleted.
// Deleting twice is fine, the second call reports deleted false.
func (s *Service) postDeleted(w http.ResponseWriter, r *http.Request) error {
	var params postDeletedParams
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	identity, err := s.authenticate(params.Friend)
	if err != nil {
		return err
	}
	post, err := s.posts().FindMirror(identity.ID, params.PostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return to.JSON(w, map[string]bool{
				"deleted": false,
			})
		}
		return err
	}
	if err := s.posts().Delete(post); err != nil {
		return err
	}
	return to.JSON(w, map[string]bool{
		"deleted": true,
	})
}

type updateReactionsParams struct {
	Friend    string   `json:"friend" schema:"friend"`
	PostID    string   `json:"post_id" schema:"post_id"`
	Reactions []string `json:"reactions" schema:"reactions"`
}

// updatePostReactions stores the reaction set the post's author reports
// for a post this site mirrors. The author's statement is authoritative
// and replaces whatever was stored before; absent reactions clear.
func (s *Service) updatePostReactions(w http.ResponseWriter, r *http.Request) error {
	var params updateReactionsParams
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	identity, err := s.authenticate(params.Friend)
	if err != nil {
		return err
	}
	post, err := s.posts().FindMirror(identity.ID, params.PostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return to.JSON(w, map[string]bool{
				"updated": false,
			})
		}
		return err
	}
	if err := s.reactions().Replace(post.ID, identity.ID, params.Reactions); err != nil {
		return err
	}
	return to.JSON(w, map[string]bool{
		"updated": true,
	})
}

// myReactions records a friend's own reaction set on a post this site
// authored, then fans the combined set out to the other friends. The
// post id is this site's id, quoted back by the friend from its mirror.
func (s *Service) myReactions(w http.ResponseWriter, r *http.Request) error {
	var params updateReactionsParams
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	identity, err := s.authenticate(params.Friend)
	if err != nil {
		return err
	}
	id, err := strconv.ParseUint(params.PostID, 10, 64)
	if err != nil {
		return errInvalidParameters()
	}
	// a reaction on a post this site no longer has, or never authored, is
	// acknowledged without effect so the friend's retries converge
	post, err := s.posts().Find(snowflake.ID(id))
	if err != nil || post.IsMirror() {
		return to.JSON(w, map[string]bool{
			"updated": false,
		})
	}
	if err := s.reactions().Replace(post.ID, identity.ID, params.Reactions); err != nil {
		return err
	}
	s.events.PublishReactionChanged(r.Context(), ReactionChanged{
		PostID:  post.ID,
		Exclude: identity.ID,
	})
	return to.JSON(w, map[string]bool{
		"updated": true,
	})
}

type recommendationParams struct {
	Friend      string `json:"friend" schema:"friend"`
	Link        string `json:"link" schema:"link"`
	Sha1Link    string `json:"sha1_link" schema:"sha1_link"`
	Title       string `json:"title" schema:"title"`
	Author      string `json:"author" schema:"author"`
	Message     string `json:"message" schema:"message"`
	Description string `json:"description" schema:"description"`
	IconURL     string `json:"icon_url" schema:"icon_url"`
}

// recommendation receives a link a friend recommends. The answers are
// deliberately low key: a filtered or linkless recommendation is shrugged
// off without telling the sender why.
func (s *Service) recommendation(w http.ResponseWriter, r *http.Request) error {
	var params recommendationParams
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	identity, err := s.authenticate(params.Friend)
	if err != nil {
		return err
	}
	link := params.Link
	if link == "" {
		// only the hash was sent; the filter still gets a say on it
		link = params.Sha1Link
	}
	if s.AcceptRecommendation != nil && !s.AcceptRecommendation(link, identity) {
		return to.JSON(w, map[string]string{
			"no": "thanks",
		})
	}
	if params.Link == "" {
		// we cannot mirror what we cannot fetch
		return to.JSON(w, map[string]string{
			"ignored": "for now",
		})
	}
	if _, err := s.posts().FindByURL(params.Link); err == nil {
		return to.JSON(w, map[string]string{
			"already": "knew",
		})
	}
	post := &models.Post{
		IdentityID:            identity.ID,
		URL:                   params.Link,
		Title:                 params.Title,
		Content:               params.Description,
		AuthorName:            params.Author,
		IconURL:               params.IconURL,
		Recommendation:        true,
		RecommendationMessage: params.Message,
	}
	if err := s.posts().Create(post); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race against the same recommendation
			return to.JSON(w, map[string]string{
				"already": "knew",
			})
		}
		return err
	}
	return to.JSON(w, map[string]string{
		"thank": "you",
	})
}
