package models

import (
	"time"

	"github.com/amityhq/amity/internal/snowflake"
	"gorm.io/gorm"
)

// A Post is either a local post or a mirror of a peer's content item. For
// mirrors, RemoteID carries the id the peer knows the item by; the
// (identity, remote id) pair maps to exactly one local post and back.
type Post struct {
	ID         snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	// IdentityID is 0 for locally authored posts; no foreign key, the
	// author relationship is resolved by lookup.
	IdentityID snowflake.ID `gorm:"index;uniqueIndex:uidx_posts_identity_id_remote_id,where:remote_id != ''"`
	RemoteID   string       `gorm:"size:255;uniqueIndex:uidx_posts_identity_id_remote_id,where:remote_id != ''"`
	URL        string       `gorm:"size:255;uniqueIndex:uidx_posts_url,where:url != ''"`
	Title      string       `gorm:"size:255"`
	Content    string
	AuthorName string `gorm:"size:128"`
	IconURL    string `gorm:"size:255"`

	// Recommendation marks a mirror created from a peer's recommendation
	// rather than from the peer's own feed.
	Recommendation        bool   `gorm:"default:false;not null"`
	RecommendationMessage string `gorm:"size:2048"`
}

// IsMirror reports whether the post mirrors a peer's content item.
func (p *Post) IsMirror() bool {
	return p.RemoteID != ""
}

type Posts struct {
	db *gorm.DB
}

func NewPosts(db *gorm.DB) *Posts {
	return &Posts{
		db: db,
	}
}

// Find returns the post with the given local id.
func (p *Posts) Find(id snowflake.ID) (*Post, error) {
	var post Post
	if err := p.db.Take(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// FindMirror resolves a peer's remote post id to the local mirror.
func (p *Posts) FindMirror(identityID snowflake.ID, remoteID string) (*Post, error) {
	if remoteID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var post Post
	if err := p.db.Take(&post, "identity_id = ? AND remote_id = ?", identityID, remoteID).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// FindByURL returns the post with the given permalink, if one exists.
// Lookup is by exact URL; near-duplicate URLs are distinct posts.
func (p *Posts) FindByURL(url string) (*Post, error) {
	var post Post
	if err := p.db.Take(&post, "url = ?", url).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// Create stores a new post, assigning it an id.
func (p *Posts) Create(post *Post) error {
	if post.ID == 0 {
		post.ID = snowflake.Now()
	}
	return p.db.Create(post).Error
}

// Delete removes a post and its reactions.
func (p *Posts) Delete(post *Post) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Reaction{}, "post_id = ?", post.ID).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
}

// ByIdentity returns mirrors of the given identity's content.
func (p *Posts) ByIdentity(identityID snowflake.ID) ([]Post, error) {
	var posts []Post
	if err := p.db.Where("identity_id = ? AND remote_id != ''", identityID).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}
