package models

import (
	"errors"
	"time"

	"github.com/amityhq/amity/internal/crypto"
	"github.com/amityhq/amity/internal/snowflake"
	"gorm.io/gorm"
)

// An AcceptToken authorises completion of a single in-flight friend
// request. It is consumed on first use, whatever the outcome.
type AcceptToken struct {
	Token      string `gorm:"size:64;primaryKey"`
	CreatedAt  time.Time
	IdentityID snowflake.ID `gorm:"not null"`
	Identity   *Identity    `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
}

type AcceptTokens struct {
	db *gorm.DB
}

func NewAcceptTokens(db *gorm.DB) *AcceptTokens {
	return &AcceptTokens{
		db: db,
	}
}

// Issue creates a new accept token for the identity.
func (a *AcceptTokens) Issue(identityID snowflake.ID) (string, error) {
	token := crypto.Token()
	if err := a.Store(token, identityID); err != nil {
		return "", err
	}
	return token, nil
}

// Store records an externally supplied accept token, e.g. one handed back
// by a peer whose accept decision is still pending.
func (a *AcceptTokens) Store(token string, identityID snowflake.ID) error {
	return a.db.Create(&AcceptToken{
		Token:      token,
		IdentityID: identityID,
	}).Error
}

// Consume resolves the token to an identity id and deletes it, atomically.
// The row delete is the arbiter: of two concurrent consumers only the one
// whose delete removes the row wins, the other gets ErrTokenNotFound.
func (a *AcceptTokens) Consume(token string) (snowflake.ID, error) {
	var identityID snowflake.ID
	err := a.db.Transaction(func(tx *gorm.DB) error {
		var at AcceptToken
		if err := tx.Take(&at, "token = ?", token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenNotFound
			}
			return err
		}
		res := tx.Delete(&AcceptToken{}, "token = ?", token)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenNotFound
		}
		identityID = at.IdentityID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return identityID, nil
}
