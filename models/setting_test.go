package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSettings(t *testing.T) {
	require := require.New(t)
	db := setupTestDB(t)
	tx := db.Begin()
	defer tx.Rollback()

	settings := NewSettings(tx)
	require.Equal(DefaultPreSharedSecret, settings.PreSharedSecret())
	require.Empty(settings.SiteURL())
	require.False(settings.IgnoreIncomingRequests())

	require.NoError(settings.Set(SettingSiteURL, "https://alice.example"))
	require.NoError(settings.Set(SettingPreSharedSecret, "s3cret"))
	require.NoError(settings.Set(SettingIgnoreIncomingRequests, "1"))
	require.Equal("https://alice.example", settings.SiteURL())
	require.Equal("s3cret", settings.PreSharedSecret())
	require.True(settings.IgnoreIncomingRequests())

	// Set replaces
	require.NoError(settings.Set(SettingPreSharedSecret, "other"))
	require.Equal("other", settings.PreSharedSecret())

	require.NoError(settings.Delete(SettingIgnoreIncomingRequests))
	require.False(settings.IgnoreIncomingRequests())
}
