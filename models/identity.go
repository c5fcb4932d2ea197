package models

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/amityhq/amity/internal/crypto"
	"github.com/amityhq/amity/internal/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// An Identity is an account participating in the friend protocol, local to
// this site but representing a remote peer site. The role records where the
// handshake with that site stands.
type Identity struct {
	ID          snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	SiteURL     string `gorm:"size:255;uniqueIndex;not null"`
	Handle      string `gorm:"size:128;not null"`
	DisplayName string `gorm:"size:128"`
	Avatar      string `gorm:"size:255"`
	Role        Role   `gorm:"default:'none';not null"`

	// OutToken is the token this site issued to the peer; the peer presents
	// it on every inbound call. One active token per identity.
	OutToken string `gorm:"size:64;index"`
	// InToken is the token the peer issued to this site; presented on every
	// outbound call to the peer. Never logged, never placed in URLs.
	InToken string `gorm:"size:64"`
	// AcceptSignature backs the proof a peer must present to complete an
	// outgoing friend request; deleted when the request completes.
	AcceptSignature string `gorm:"size:64"`
	// RequestToken is the challenge id this site must echo back when the
	// local admin accepts the peer's incoming request.
	RequestToken string `gorm:"size:64"`
}

// IsFriend reports whether the identity has completed the handshake.
func (i *Identity) IsFriend() bool {
	return i.Role == RoleFriend || i.Role == RoleRestrictedFriend
}

type Role string

const (
	RoleNone             Role = "none"
	RolePendingOutgoing  Role = "pending_outgoing"
	RolePendingIncoming  Role = "pending_incoming"
	RoleFriend           Role = "friend"
	RoleRestrictedFriend Role = "restricted_friend"
)

func (Role) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql", "postgres":
		return "enum('none', 'pending_outgoing', 'pending_incoming', 'friend', 'restricted_friend')"
	case "sqlite":
		return "TEXT"
	default:
		return ""
	}
}

// ErrTokenNotFound is returned when a bearer token does not resolve to an
// identity. Callers must not reveal more than this to the peer.
var ErrTokenNotFound = errors.New("token not found")

type Identities struct {
	db *gorm.DB
}

func NewIdentities(db *gorm.DB) *Identities {
	return &Identities{
		db: db,
	}
}

// FindBySiteURL returns the identity for the given site URL, if any.
func (i *Identities) FindBySiteURL(siteURL string) (*Identity, error) {
	var identity Identity
	if err := i.db.Take(&identity, "site_url = ?", siteURL).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

// Find returns the identity with the given id.
func (i *Identities) Find(id snowflake.ID) (*Identity, error) {
	var identity Identity
	if err := i.db.Take(&identity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

// Friends returns all identities with a completed handshake, optionally
// excluding some by id.
func (i *Identities) Friends(exclude ...snowflake.ID) ([]Identity, error) {
	var friends []Identity
	tx := i.db.Where("role IN ?", []Role{RoleFriend, RoleRestrictedFriend})
	if len(exclude) > 0 {
		tx = tx.Where("id NOT IN ?", exclude)
	}
	if err := tx.Find(&friends).Error; err != nil {
		return nil, err
	}
	return friends, nil
}

// Pending returns all identities waiting on a local accept decision.
func (i *Identities) Pending() ([]Identity, error) {
	var pending []Identity
	if err := i.db.Where("role = ?", RolePendingIncoming).Find(&pending).Error; err != nil {
		return nil, err
	}
	return pending, nil
}

// CreateForChallenge creates a pending incoming identity for the site that
// sent a friend request. The challenge id is stored as the identity's
// request token; echoing it back authorises the accept notification once
// the local admin approves.
func (i *Identities) CreateForChallenge(challenge, siteURL, displayName, avatar string) (*Identity, error) {
	existing, err := i.FindBySiteURL(siteURL)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		identity := Identity{
			ID:           snowflake.Now(),
			SiteURL:      siteURL,
			Handle:       HandleForSiteURL(siteURL),
			DisplayName:  displayName,
			Avatar:       avatar,
			Role:         RolePendingIncoming,
			RequestToken: challenge,
		}
		if err := i.db.Create(&identity).Error; err != nil {
			return nil, err
		}
		return &identity, nil
	case err != nil:
		return nil, err
	}
	// Roles move forward only; a repeated request from an established
	// friend refreshes the challenge but does not demote the role.
	updates := map[string]any{"request_token": challenge}
	if !existing.IsFriend() {
		updates["role"] = RolePendingIncoming
	}
	if err := i.db.Model(existing).Updates(updates).Error; err != nil {
		return nil, err
	}
	existing.RequestToken = challenge
	if !existing.IsFriend() {
		existing.Role = RolePendingIncoming
	}
	return existing, nil
}

// CreatePendingOutgoing creates (or refreshes) the identity for a site this
// site sent a friend request to. The key is the secret the peer will have
// to prove knowledge of; it is kept as the accept signature.
func (i *Identities) CreatePendingOutgoing(siteURL, key string) (*Identity, error) {
	existing, err := i.FindBySiteURL(siteURL)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		identity := Identity{
			ID:              snowflake.Now(),
			SiteURL:         siteURL,
			Handle:          HandleForSiteURL(siteURL),
			Role:            RolePendingOutgoing,
			AcceptSignature: key,
		}
		if err := i.db.Create(&identity).Error; err != nil {
			return nil, err
		}
		return &identity, nil
	case err != nil:
		return nil, err
	}
	updates := map[string]any{"accept_signature": key}
	if !existing.IsFriend() {
		updates["role"] = RolePendingOutgoing
	}
	if err := i.db.Model(existing).Updates(updates).Error; err != nil {
		return nil, err
	}
	existing.AcceptSignature = key
	if !existing.IsFriend() {
		existing.Role = RolePendingOutgoing
	}
	return existing, nil
}

// IssueOutToken issues a fresh inbound bearer token for the identity,
// atomically replacing any previous token. The old token is invalid the
// moment the update commits; there is no grace window.
func (i *Identities) IssueOutToken(identity *Identity) (string, error) {
	token := crypto.Token()
	if err := i.db.Model(identity).Update("out_token", token).Error; err != nil {
		return "", err
	}
	identity.OutToken = token
	return token, nil
}

// VerifyToken resolves an inbound bearer token to the friend identity it
// was issued to. Unknown and merely wrong tokens are indistinguishable to
// the caller; both return ErrTokenNotFound.
func (i *Identities) VerifyToken(token string) (*Identity, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}
	var identity Identity
	err := i.db.Take(&identity, "out_token = ? AND role IN ?", token, []Role{RoleFriend, RoleRestrictedFriend}).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrTokenNotFound
	case err != nil:
		return nil, err
	}
	return &identity, nil
}

// MakeFriend promotes the identity to friend and records the token the peer
// issued to this site. A restricted friend keeps its restricted role.
func (i *Identities) MakeFriend(identity *Identity, inToken string) error {
	role := RoleFriend
	if identity.Role == RoleRestrictedFriend {
		role = RoleRestrictedFriend
	}
	err := i.db.Model(identity).Updates(map[string]any{
		"role":             role,
		"in_token":         inToken,
		"accept_signature": "",
	}).Error
	if err != nil {
		return err
	}
	identity.Role = role
	identity.InToken = inToken
	identity.AcceptSignature = ""
	return nil
}

// AwaitAccept returns the identity to the pending outgoing state and
// records the key a later completion proof will be verified against.
func (i *Identities) AwaitAccept(identity *Identity, key string) error {
	err := i.db.Model(identity).Updates(map[string]any{
		"role":             RolePendingOutgoing,
		"accept_signature": key,
	}).Error
	if err != nil {
		return err
	}
	identity.Role = RolePendingOutgoing
	identity.AcceptSignature = key
	return nil
}

// SetRole updates the identity's role.
func (i *Identities) SetRole(identity *Identity, role Role) error {
	if err := i.db.Model(identity).Update("role", role).Error; err != nil {
		return err
	}
	identity.Role = role
	return nil
}

// ClearRequestToken removes the stored request token after the accept
// notification was answered by the peer.
func (i *Identities) ClearRequestToken(identity *Identity) error {
	if err := i.db.Model(identity).Update("request_token", "").Error; err != nil {
		return err
	}
	identity.RequestToken = ""
	return nil
}

// UpdateProfile updates the peer supplied display name and avatar. Empty
// values leave the stored ones untouched.
func (i *Identities) UpdateProfile(identity *Identity, displayName, avatar string) error {
	updates := map[string]any{}
	if displayName != "" {
		updates["display_name"] = displayName
		identity.DisplayName = displayName
	}
	if avatar != "" {
		updates["avatar"] = avatar
		identity.Avatar = avatar
	}
	if len(updates) == 0 {
		return nil
	}
	return i.db.Model(identity).Updates(updates).Error
}

var handleReplacer = regexp.MustCompile(`[^a-z0-9.-]+`)

// HandleForSiteURL derives the canonical handle for a site URL. The handle
// is stored when an identity is created; if the same site URL later derives
// a different handle the original friendship offer is no longer valid.
func HandleForSiteURL(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil {
		return ""
	}
	handle := strings.ToLower(u.Host + strings.TrimSuffix(u.Path, "/"))
	return strings.Trim(handleReplacer.ReplaceAllString(handle, "-"), "-")
}
