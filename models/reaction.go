package models

import (
	"time"

	"github.com/amityhq/amity/internal/snowflake"
	"gorm.io/gorm"
)

// A Reaction is one emoji a reactor left on a post. IdentityID names the
// peer the reaction belongs to; 0 is this site's own reaction set.
type Reaction struct {
	PostID     snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	IdentityID snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	Emoji      string       `gorm:"size:64;primaryKey"`
	CreatedAt  time.Time
}

type Reactions struct {
	db *gorm.DB
}

func NewReactions(db *gorm.DB) *Reactions {
	return &Reactions{
		db: db,
	}
}

// ForPost returns the emoji left on the post by the given reactor.
func (r *Reactions) ForPost(postID, identityID snowflake.ID) ([]string, error) {
	var emojis []string
	err := r.db.Model(&Reaction{}).
		Where("post_id = ? AND identity_id = ?", postID, identityID).
		Order("emoji").
		Pluck("emoji", &emojis).Error
	if err != nil {
		return nil, err
	}
	return emojis, nil
}

// AllForPost returns the distinct emoji left on the post by any reactor.
func (r *Reactions) AllForPost(postID snowflake.ID) ([]string, error) {
	var emojis []string
	err := r.db.Model(&Reaction{}).
		Distinct("emoji").
		Where("post_id = ?", postID).
		Order("emoji").
		Pluck("emoji", &emojis).Error
	if err != nil {
		return nil, err
	}
	return emojis, nil
}

// Replace overwrites the reactor's reaction set on the post. The caller's
// statement is authoritative; an empty set clears all their reactions.
func (r *Reactions) Replace(postID, identityID snowflake.ID, emojis []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Reaction{}, "post_id = ? AND identity_id = ?", postID, identityID).Error; err != nil {
			return err
		}
		for _, emoji := range emojis {
			reaction := Reaction{
				PostID:     postID,
				IdentityID: identityID,
				Emoji:      emoji,
			}
			if err := tx.Create(&reaction).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
