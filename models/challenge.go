package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// A Challenge is a short-lived secret-bearing record tied to a friend
// request in flight. On the receiving site it holds the key the requester
// sent; on the sending site it holds the key this site generated. Either
// way the record is keyed both by the challenge id and by the hash of the
// other site's callback URL, which lets the hello endpoint prove knowledge
// of the key without revealing it.
type Challenge struct {
	ID        string `gorm:"size:64;primaryKey"`
	CreatedAt time.Time
	URLHash   string `gorm:"size:40;index;not null"`
	Key       string `gorm:"size:64;not null"`
	SiteURL   string `gorm:"size:255;not null"`
	IconURL   string `gorm:"size:255"`
	Message   string `gorm:"size:2048"`
}

type Challenges struct {
	db *gorm.DB
}

func NewChallenges(db *gorm.DB) *Challenges {
	return &Challenges{
		db: db,
	}
}

// Store records a challenge, replacing any previous challenge for the same
// site so that at most one is in flight per peer.
func (c *Challenges) Store(challenge *Challenge) error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Challenge{}, "url_hash = ?", challenge.URLHash).Error; err != nil {
			return err
		}
		return tx.Create(challenge).Error
	})
}

// Find returns the challenge with the given id without consuming it.
func (c *Challenges) Find(id string) (*Challenge, error) {
	var challenge Challenge
	if err := c.db.Take(&challenge, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &challenge, nil
}

// FindByURLHash returns the challenge stored for the site whose callback
// URL hashes to urlHash. Used by hello proofs; does not consume.
func (c *Challenges) FindByURLHash(urlHash string) (*Challenge, error) {
	var challenge Challenge
	if err := c.db.Take(&challenge, "url_hash = ?", urlHash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &challenge, nil
}

// Consume returns the challenge and deletes it atomically; the delete's
// row count decides the winner under concurrency.
func (c *Challenges) Consume(id string) (*Challenge, error) {
	var challenge Challenge
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&challenge, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenNotFound
			}
			return err
		}
		res := tx.Delete(&Challenge{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}
