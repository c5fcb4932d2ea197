package models

import (
	"testing"

	"github.com/amityhq/amity/internal/crypto"
	"github.com/stretchr/testify/require"
)

func TestAcceptTokens(t *testing.T) {
	db := setupTestDB(t)

	t.Run("Consume is one-shot", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockIdentity(t, tx, "alice.example", WithRole(RolePendingOutgoing))
		tokens := NewAcceptTokens(tx)

		token, err := tokens.Issue(alice.ID)
		require.NoError(err)
		require.NotEmpty(token)

		id, err := tokens.Consume(token)
		require.NoError(err)
		require.Equal(alice.ID, id)

		_, err = tokens.Consume(token)
		require.ErrorIs(err, ErrTokenNotFound)
	})

	t.Run("Consume of an unknown token fails", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		_, err := NewAcceptTokens(tx).Consume("never issued")
		require.ErrorIs(err, ErrTokenNotFound)
	})
}

func TestChallenges(t *testing.T) {
	db := setupTestDB(t)

	t.Run("Store replaces the challenge for the same site", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		challenges := NewChallenges(tx)
		hash := crypto.URLHash("https://alice.example/amity/v1")

		require.NoError(challenges.Store(&Challenge{
			ID:      "first",
			URLHash: hash,
			Key:     "key-1",
			SiteURL: "https://alice.example",
		}))
		require.NoError(challenges.Store(&Challenge{
			ID:      "second",
			URLHash: hash,
			Key:     "key-2",
			SiteURL: "https://alice.example",
		}))

		found, err := challenges.FindByURLHash(hash)
		require.NoError(err)
		require.Equal("second", found.ID)
		require.Equal("key-2", found.Key)

		_, err = challenges.Find("first")
		require.ErrorIs(err, ErrTokenNotFound)
	})

	t.Run("Consume is one-shot", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		challenges := NewChallenges(tx)
		require.NoError(challenges.Store(&Challenge{
			ID:      "challenge-1",
			URLHash: crypto.URLHash("https://bob.example/amity/v1"),
			Key:     "key",
			SiteURL: "https://bob.example",
		}))

		found, err := challenges.Consume("challenge-1")
		require.NoError(err)
		require.Equal("key", found.Key)

		_, err = challenges.Consume("challenge-1")
		require.ErrorIs(err, ErrTokenNotFound)
	})
}
