package activitypub

import (
	"context"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amityhq/amity/internal/webfinger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActorID returns the actor document URL for a site.
func ActorID(siteURL string) string {
	return strings.TrimSuffix(siteURL, "/") + "/actor"
}

// An Actor is a cached copy of a remote ActivityPub actor document, kept
// so mention resolution and inbox signature checks do not refetch it.
type Actor struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	ActorID   string `gorm:"size:255;uniqueIndex;not null"`
	Handle    string `gorm:"size:255;index"`
	Inbox     string `gorm:"size:255"`
	URL       string `gorm:"size:255"`
	IconURL   string `gorm:"size:255"`
	PublicKey string
}

func (Actor) TableName() string {
	return "activitypub_actors"
}

// pemToPublicKey converts the actor's PEM encoded public key to a
// crypto.PublicKey.
func (a *Actor) pemToPublicKey() (crypto.PublicKey, error) {
	block, _ := pem.Decode([]byte(a.PublicKey))
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("invalid public key for %s", a.ActorID)
	}
	publicKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key for %s: %w", a.ActorID, err)
	}
	return publicKey, nil
}

// A Resolver turns handles and actor URLs into actor metadata. The
// default implementation webfingers the handle's host and fetches the
// actor document with a signed request.
type Resolver interface {
	ResolveHandle(ctx context.Context, handle string) (*Actor, error)
	ResolveActorID(ctx context.Context, actorID string) (*Actor, error)
}

// Actors caches resolved actors in the database, resolving misses through
// the wrapped resolver.
type Actors struct {
	db       *gorm.DB
	resolver Resolver
}

func NewActors(db *gorm.DB, resolver Resolver) *Actors {
	return &Actors{
		db:       db,
		resolver: resolver,
	}
}

func (a *Actors) save(actor *Actor) error {
	return a.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "actor_id"}},
		UpdateAll: true,
	}).Create(actor).Error
}

// ResolveHandle returns the actor for a @user@host handle.
func (a *Actors) ResolveHandle(ctx context.Context, handle string) (*Actor, error) {
	acct, err := webfinger.Parse(handle)
	if err != nil {
		return nil, err
	}
	var actor Actor
	if err := a.db.Take(&actor, "handle = ?", acct.User+"@"+acct.Host).Error; err == nil {
		return &actor, nil
	}
	resolved, err := a.resolver.ResolveHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if err := a.save(resolved); err != nil {
		return nil, err
	}
	return resolved, nil
}

// ResolveActorID returns the actor behind an actor document URL.
func (a *Actors) ResolveActorID(ctx context.Context, actorID string) (*Actor, error) {
	var actor Actor
	if err := a.db.Take(&actor, "actor_id = ?", actorID).Error; err == nil {
		return &actor, nil
	}
	resolved, err := a.resolver.ResolveActorID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := a.save(resolved); err != nil {
		return nil, err
	}
	return resolved, nil
}

// remoteResolver fetches actors from their home servers.
type remoteResolver struct {
	client *Client
}

// actorDocument is the subset of an actor document the adapter uses.
type actorDocument struct {
	ID                string `json:"id"`
	PreferredUsername string `json:"preferredUsername"`
	Inbox             string `json:"inbox"`
	URL               string `json:"url"`
	Icon              struct {
		URL string `json:"url"`
	} `json:"icon"`
	PublicKey struct {
		ID           string `json:"id"`
		PublicKeyPem string `json:"publicKeyPem"`
	} `json:"publicKey"`
}

func (r *remoteResolver) ResolveHandle(ctx context.Context, handle string) (*Actor, error) {
	acct, err := webfinger.Parse(handle)
	if err != nil {
		return nil, err
	}
	wf, err := acct.Fetch(ctx, &http.Client{Timeout: 20 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("webfinger %s: %w", acct.String(), err)
	}
	actorID, err := wf.ActivityPub()
	if err != nil {
		return nil, err
	}
	return r.ResolveActorID(ctx, actorID)
}

func (r *remoteResolver) ResolveActorID(ctx context.Context, actorID string) (*Actor, error) {
	var doc actorDocument
	if err := r.client.Fetch(ctx, actorID, &doc); err != nil {
		return nil, fmt.Errorf("fetch actor %s: %w", actorID, err)
	}
	return docToActor(&doc)
}

func hostOf(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return u.Host
}

func docToActor(doc *actorDocument) (*Actor, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("actor document without id")
	}
	handle := ""
	if doc.PreferredUsername != "" && hostOf(doc.ID) != "" {
		handle = doc.PreferredUsername + "@" + hostOf(doc.ID)
	}
	return &Actor{
		ActorID:   doc.ID,
		Handle:    handle,
		Inbox:     doc.Inbox,
		URL:       doc.URL,
		IconURL:   doc.Icon.URL,
		PublicKey: doc.PublicKey.PublicKeyPem,
	}, nil
}
