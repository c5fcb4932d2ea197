package models

import (
	"fmt"
	"strings"
	"testing"

	"github.com/amityhq/amity/internal/crypto"
	"github.com/amityhq/amity/internal/snowflake"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// WithRole sets the role of an identity.
func WithRole(role Role) func(*Identity) {
	return func(i *Identity) {
		i.Role = role
	}
}

// MockIdentity creates a new identity in the database.
func MockIdentity(t *testing.T, tx *gorm.DB, host string, opts ...func(*Identity)) *Identity {
	t.Helper()
	require := require.New(t)

	siteURL := fmt.Sprintf("https://%s", host)
	identity := &Identity{
		ID:          snowflake.Now(),
		SiteURL:     siteURL,
		Handle:      HandleForSiteURL(siteURL),
		DisplayName: host,
		Avatar:      fmt.Sprintf("https://%s/avatar.png", host),
		Role:        RoleFriend,
	}
	for _, opt := range opts {
		opt(identity)
	}
	require.NoError(tx.Create(identity).Error)
	return identity
}

// MockMirror creates a mirror of a peer's post in the database.
func MockMirror(t *testing.T, tx *gorm.DB, identity *Identity, remoteID string) *Post {
	t.Helper()
	require := require.New(t)

	id := snowflake.Now()
	post := &Post{
		ID:         id,
		IdentityID: identity.ID,
		RemoteID:   remoteID,
		URL:        fmt.Sprintf("%s/?p=%s", identity.SiteURL, remoteID),
		Title:      "a post",
	}
	require.NoError(tx.Create(post).Error)
	return post
}

// MockLocalPost creates a post authored by this site.
func MockLocalPost(t *testing.T, tx *gorm.DB, title string) *Post {
	t.Helper()
	require := require.New(t)

	id := snowflake.Now()
	post := &Post{
		ID:    id,
		URL:   fmt.Sprintf("https://local.example/?p=%d", id),
		Title: title,
	}
	require.NoError(tx.Create(post).Error)
	return post
}

// MockProfile creates the site profile.
func MockProfile(t *testing.T, tx *gorm.DB, email string) *Profile {
	t.Helper()
	require := require.New(t)

	kp, err := crypto.GenerateRSAKeypair()
	require.NoError(err)
	passwd, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(err)

	profile := &Profile{
		ID:                snowflake.Now(),
		Email:             email,
		DisplayName:       "admin",
		EncryptedPassword: passwd,
		AccessToken:       crypto.Token(),
		PublicKey:         kp.PublicKey,
		PrivateKey:        kp.PrivateKey,
	}
	require.NoError(tx.Create(profile).Error)
	return profile
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	require := require.New(t)
	// each test gets its own shared-cache database, named after the test
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	require.NoError(err)

	err = db.AutoMigrate(AllTables()...)
	require.NoError(err)

	// enable foreign key constraints
	err = db.Exec("PRAGMA foreign_keys = ON").Error
	require.NoError(err)

	return db
}
