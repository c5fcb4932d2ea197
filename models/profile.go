package models

import (
	"time"

	"github.com/amityhq/amity/internal/snowflake"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// A Profile is the local admin account of this site. It authenticates the
// management surface (identity listing, accepting requests) and holds the
// keypair the ActivityPub adapter signs with.
type Profile struct {
	ID                snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Email             string `gorm:"size:64;uniqueIndex;not null"`
	DisplayName       string `gorm:"size:128"`
	Avatar            string `gorm:"size:255"`
	EncryptedPassword []byte `gorm:"size:60;not null"`
	AccessToken       string `gorm:"size:64;uniqueIndex;not null"`
	PublicKey         []byte `gorm:"not null"`
	PrivateKey        []byte `gorm:"not null"`
}

// VerifyPassword reports whether the given password matches the profile's.
func (p *Profile) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(p.EncryptedPassword, []byte(password)) == nil
}

type Profiles struct {
	db *gorm.DB
}

func NewProfiles(db *gorm.DB) *Profiles {
	return &Profiles{
		db: db,
	}
}

// Find returns the site profile. There is at most one.
func (p *Profiles) Find() (*Profile, error) {
	var profile Profile
	if err := p.db.First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByEmail returns the profile with the given email.
func (p *Profiles) FindByEmail(email string) (*Profile, error) {
	var profile Profile
	if err := p.db.Take(&profile, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByAccessToken resolves a management bearer token to the profile.
func (p *Profiles) FindByAccessToken(token string) (*Profile, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}
	var profile Profile
	if err := p.db.Take(&profile, "access_token = ?", token).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &profile, nil
}
