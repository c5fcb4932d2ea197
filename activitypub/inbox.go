package activitypub

import (
	"context"
	"crypto"
	"net/http"
	"strings"

	"github.com/amityhq/amity/models"
	"github.com/go-fed/httpsig"
	"github.com/go-json-experiment/json"
	"gorm.io/gorm"
)

// An Activity is a raw inbound activity, stored as received. Application
// happens after storage so a crash never loses a delivery.
type Activity struct {
	gorm.Model
	Object map[string]any `gorm:"serializer:json"`
}

func (Activity) TableName() string {
	return "activitypub_inbox"
}

// Inbox accepts signed deliveries from remote servers. The signature is
// verified against the sender's published key before anything is stored.
func (s *Service) Inbox(w http.ResponseWriter, r *http.Request) {
	if err := s.validateSignature(r); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var body map[string]any
	if err := json.UnmarshalFull(r.Body, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	activity := Activity{
		Object: body,
	}
	if err := s.db.Create(&activity).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.apply(r.Context(), &activity)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Service) validateSignature(r *http.Request) error {
	verifier, err := httpsig.NewVerifier(r)
	if err != nil {
		return err
	}
	pubKey, err := s.getKey(r, verifier.KeyId())
	if err != nil {
		return err
	}
	return verifier.Verify(pubKey, httpsig.RSA_SHA256)
}

func (s *Service) getKey(r *http.Request, keyID string) (crypto.PublicKey, error) {
	actor, err := s.actors.ResolveActorID(r.Context(), trimKeyID(keyID))
	if err != nil {
		return nil, err
	}
	return actor.pemToPublicKey()
}

// apply reflects a stored activity in the local models. Unhandled
// activity types stay in the inbox table untouched.
func (s *Service) apply(ctx context.Context, activity *Activity) {
	typ, _ := activity.Object["type"].(string)
	switch typ {
	case "Create":
		s.applyCreate(activity)
	case "Delete":
		uri := objectURI(activity.Object["object"])
		if uri == "" {
			return
		}
		post, err := models.NewPosts(s.db).FindByURL(uri)
		if err != nil || !post.IsMirror() {
			return
		}
		if err := models.NewPosts(s.db).Delete(post); err != nil {
			s.logger.Warn("apply delete", "url", uri, "error", err)
		}
	case "Like":
		s.applyLike(activity)
	default:
		s.logger.Debug("unhandled activity", "type", typ)
	}
}

// applyCreate mirrors a new object from an actor whose site is a known
// identity. Objects from strangers stay in the inbox table only.
func (s *Service) applyCreate(activity *Activity) {
	identity, err := s.identityForActor(activity.Object["actor"])
	if err != nil {
		return
	}
	obj, ok := activity.Object["object"].(map[string]any)
	if !ok {
		return
	}
	id, _ := obj["id"].(string)
	if id == "" {
		return
	}
	if _, err := models.NewPosts(s.db).FindMirror(identity.ID, id); err == nil {
		// redelivery of a known object
		return
	}
	url, _ := obj["url"].(string)
	if url == "" {
		url = id
	}
	title, _ := obj["name"].(string)
	content, _ := obj["content"].(string)
	post := &models.Post{
		IdentityID: identity.ID,
		RemoteID:   id,
		URL:        url,
		Title:      title,
		Content:    content,
		AuthorName: identity.DisplayName,
	}
	if err := models.NewPosts(s.db).Create(post); err != nil {
		s.logger.Warn("apply create", "object", id, "error", err)
	}
}

// applyLike records a like of a locally authored post as that identity's
// reaction.
func (s *Service) applyLike(activity *Activity) {
	identity, err := s.identityForActor(activity.Object["actor"])
	if err != nil {
		return
	}
	uri := objectURI(activity.Object["object"])
	if uri == "" {
		return
	}
	post, err := models.NewPosts(s.db).FindByURL(uri)
	if err != nil || post.IsMirror() {
		return
	}
	if err := models.NewReactions(s.db).Replace(post.ID, identity.ID, []string{"2764"}); err != nil {
		s.logger.Warn("apply like", "url", uri, "error", err)
	}
}

// identityForActor maps an activity's actor to the identity of the site
// it belongs to, if that site is known.
func (s *Service) identityForActor(actor any) (*models.Identity, error) {
	actorID := objectURI(actor)
	siteURL := strings.TrimSuffix(actorID, "/actor")
	if siteURL == "" || siteURL == actorID {
		return nil, gorm.ErrRecordNotFound
	}
	return models.NewIdentities(s.db).FindBySiteURL(siteURL)
}

func objectURI(obj any) string {
	switch v := obj.(type) {
	case string:
		return v
	case map[string]any:
		uri, _ := v["id"].(string)
		return uri
	}
	return ""
}

// trimKeyID removes the #main-key style suffix from a key id.
func trimKeyID(id string) string {
	if i := strings.Index(id, "#"); i != -1 {
		return id[:i]
	}
	return id
}
