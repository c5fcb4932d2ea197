package activitypub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRewriteMentions(t *testing.T) {
	require := require.New(t)
	resolve := func(handle string) string {
		if handle == "@alice@example.com" {
			return "https://example.com/@alice"
		}
		return ""
	}

	for input, want := range map[string]string{
		"say hi to @alice@example.com today": `say hi to <a rel="mention" class="u-url mention" href="https://example.com/@alice">@alice</a> today`,

		// unresolvable handles stay as written
		"cc @bob@nowhere.example thanks": "cc @bob@nowhere.example thanks",

		// mentions inside existing anchors are not touched
		`see <a href="https://example.com/@alice">@alice@example.com</a>`: `see <a href="https://example.com/@alice">@alice@example.com</a>`,

		// but text around an anchor still is
		`<a href="/x">link</a> and @alice@example.com`: `<a href="/x">link</a> and <a rel="mention" class="u-url mention" href="https://example.com/@alice">@alice</a>`,

		// a bare @word is not a mention
		"email me @ home": "email me @ home",
	} {
		require.Equal(want, rewriteMentions(input, resolve), input)
	}
}
