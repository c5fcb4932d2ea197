package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentities(t *testing.T) {
	db := setupTestDB(t)

	t.Run("IssueOutToken replaces the previous token", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockIdentity(t, tx, "alice.example")
		identities := NewIdentities(tx)

		first, err := identities.IssueOutToken(alice)
		require.NoError(err)
		require.NotEmpty(first)

		second, err := identities.IssueOutToken(alice)
		require.NoError(err)
		require.NotEmpty(second)
		require.NotEqual(first, second)

		// the old token is invalid the moment the new one exists
		_, err = identities.VerifyToken(first)
		require.ErrorIs(err, ErrTokenNotFound)

		resolved, err := identities.VerifyToken(second)
		require.NoError(err)
		require.Equal(alice.ID, resolved.ID)
	})

	t.Run("VerifyToken rejects unknown and empty tokens", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		MockIdentity(t, tx, "alice.example")
		identities := NewIdentities(tx)

		_, err := identities.VerifyToken("no such token")
		require.ErrorIs(err, ErrTokenNotFound)
		_, err = identities.VerifyToken("")
		require.ErrorIs(err, ErrTokenNotFound)
	})

	t.Run("VerifyToken ignores identities that are not friends", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		pending := MockIdentity(t, tx, "pending.example", WithRole(RolePendingIncoming))
		identities := NewIdentities(tx)

		token, err := identities.IssueOutToken(pending)
		require.NoError(err)
		_, err = identities.VerifyToken(token)
		require.ErrorIs(err, ErrTokenNotFound)
	})

	t.Run("Friends excludes by id", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockIdentity(t, tx, "alice.example")
		bob := MockIdentity(t, tx, "bob.example")
		MockIdentity(t, tx, "carol.example", WithRole(RolePendingIncoming))

		identities := NewIdentities(tx)
		friends, err := identities.Friends()
		require.NoError(err)
		require.Len(friends, 2)

		friends, err = identities.Friends(alice.ID)
		require.NoError(err)
		require.Len(friends, 1)
		require.Equal(bob.ID, friends[0].ID)
	})

	t.Run("CreateForChallenge does not demote a friend", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockIdentity(t, tx, "alice.example")
		identities := NewIdentities(tx)

		identity, err := identities.CreateForChallenge("challenge-1", alice.SiteURL, "", "")
		require.NoError(err)
		require.Equal(alice.ID, identity.ID)
		require.Equal(RoleFriend, identity.Role)
		require.Equal("challenge-1", identity.RequestToken)
	})

	t.Run("MakeFriend stores the peer token and clears the signature", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		identities := NewIdentities(tx)
		identity, err := identities.CreatePendingOutgoing("https://bob.example", "secret-key")
		require.NoError(err)
		require.Equal(RolePendingOutgoing, identity.Role)
		require.Equal("secret-key", identity.AcceptSignature)

		require.NoError(identities.MakeFriend(identity, "their-token"))
		require.Equal(RoleFriend, identity.Role)
		require.Equal("their-token", identity.InToken)
		require.Empty(identity.AcceptSignature)

		found, err := identities.FindBySiteURL("https://bob.example")
		require.NoError(err)
		require.Equal(RoleFriend, found.Role)
		require.Equal("their-token", found.InToken)
	})
}

func TestHandleForSiteURL(t *testing.T) {
	require := require.New(t)
	require.Equal("alice.example", HandleForSiteURL("https://alice.example"))
	require.Equal("alice.example", HandleForSiteURL("https://alice.example/"))
	require.Equal("alice.example-blog", HandleForSiteURL("https://alice.example/blog"))
	require.Equal("alice.example", HandleForSiteURL("https://ALICE.example"))
}
