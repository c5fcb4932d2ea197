package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReactions(t *testing.T) {
	db := setupTestDB(t)

	t.Run("Replace overwrites the reactor's set", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockIdentity(t, tx, "alice.example")
		post := MockMirror(t, tx, alice, "42")
		reactions := NewReactions(tx)

		require.NoError(reactions.Replace(post.ID, alice.ID, []string{"2764", "1f44d"}))
		emojis, err := reactions.ForPost(post.ID, alice.ID)
		require.NoError(err)
		require.Equal([]string{"1f44d", "2764"}, emojis)

		require.NoError(reactions.Replace(post.ID, alice.ID, []string{"1f389"}))
		emojis, err = reactions.ForPost(post.ID, alice.ID)
		require.NoError(err)
		require.Equal([]string{"1f389"}, emojis)

		require.NoError(reactions.Replace(post.ID, alice.ID, nil))
		emojis, err = reactions.ForPost(post.ID, alice.ID)
		require.NoError(err)
		require.Empty(emojis)
	})

	t.Run("deleting a post removes its reactions", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockIdentity(t, tx, "alice.example")
		post := MockMirror(t, tx, alice, "42")
		reactions := NewReactions(tx)
		require.NoError(reactions.Replace(post.ID, alice.ID, []string{"2764"}))

		require.NoError(NewPosts(tx).Delete(post))

		emojis, err := reactions.ForPost(post.ID, alice.ID)
		require.NoError(err)
		require.Empty(emojis)

		_, err = NewPosts(tx).FindMirror(alice.ID, "42")
		require.Error(err)
	})
}
