package models

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// A Setting is one site-scoped option. Options are injected where needed
// rather than read from ambient global state.
type Setting struct {
	Key   string `gorm:"size:64;primaryKey"`
	Value string `gorm:"size:255"`
}

const (
	// SettingSiteURL is the canonical URL of this site.
	SettingSiteURL = "site_url"
	// SettingPreSharedSecret gates the friend-request endpoint.
	SettingPreSharedSecret = "pre_shared_secret"
	// SettingIgnoreIncomingRequests disables creation of pending
	// identities for incoming friend requests.
	SettingIgnoreIncomingRequests = "ignore_incoming_requests"
)

// DefaultPreSharedSecret is used when no pre-shared secret is configured,
// matching the protocol's out of the box behaviour.
const DefaultPreSharedSecret = "friends"

type Settings struct {
	db *gorm.DB
}

func NewSettings(db *gorm.DB) *Settings {
	return &Settings{
		db: db,
	}
}

// Get returns the value for key, or def if the key is not set.
func (s *Settings) Get(key, def string) string {
	var setting Setting
	if err := s.db.Take(&setting, "key = ?", key).Error; err != nil {
		return def
	}
	return setting.Value
}

// Set stores the value for key, replacing any previous value.
func (s *Settings) Set(key, value string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Setting{Key: key, Value: value}).Error
}

// Delete removes the key.
func (s *Settings) Delete(key string) error {
	return s.db.Delete(&Setting{}, "key = ?", key).Error
}

// SiteURL returns the configured canonical site URL.
func (s *Settings) SiteURL() string {
	return s.Get(SettingSiteURL, "")
}

// PreSharedSecret returns the secret required on friend requests.
func (s *Settings) PreSharedSecret() string {
	return s.Get(SettingPreSharedSecret, DefaultPreSharedSecret)
}

// IgnoreIncomingRequests reports whether incoming friend requests should
// not create pending identities.
func (s *Settings) IgnoreIncomingRequests() bool {
	return s.Get(SettingIgnoreIncomingRequests, "") != ""
}
