package webfinger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for query, want := range map[string]Acct{
		"alice@a.example":       {User: "alice", Host: "a.example"},
		"@alice@a.example":      {User: "alice", Host: "a.example"},
		"acct:alice@a.example":  {User: "alice", Host: "a.example"},
		"alice%40a.example":     {User: "alice", Host: "a.example"},
		"@bob@social.b.example": {User: "bob", Host: "social.b.example"},
	} {
		acct, err := Parse(query)
		require.NoError(t, err, query)
		require.Equal(t, want, *acct, query)
	}

	for _, query := range []string{"", "alice", "@a.example", "alice@"} {
		_, err := Parse(query)
		require.Error(t, err, query)
	}
}

func TestWebfingerURL(t *testing.T) {
	acct := Acct{User: "alice", Host: "a.example"}
	require.Equal(t, "https://a.example/.well-known/webfinger?resource=acct%3Aalice%40a.example", acct.Webfinger())
}

func TestActivityPubLink(t *testing.T) {
	wf := Webfinger{
		Subject: "acct:alice@a.example",
		Links: []Link{
			{Rel: "http://webfinger.net/rel/profile-page", Type: "text/html", Href: "https://a.example/@alice"},
			{Rel: "self", Type: "application/activity+json", Href: "https://a.example/actor"},
		},
	}
	href, err := wf.ActivityPub()
	require.NoError(t, err)
	require.Equal(t, "https://a.example/actor", href)

	_, err = (&Webfinger{}).ActivityPub()
	require.Error(t, err)
}
