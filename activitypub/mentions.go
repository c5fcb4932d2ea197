package activitypub

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	mentionRE = regexp.MustCompile(`@[a-zA-Z0-9_.-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	anchorRE  = regexp.MustCompile(`(?is)<a\s[^>]*>.*?</a>`)
)

// RewriteMentions links @user@host mentions in content to the mentioned
// actors. Anything already inside an anchor is left alone, and a handle
// that does not resolve stays as written.
func (s *Service) RewriteMentions(ctx context.Context, content string) string {
	return rewriteMentions(content, func(handle string) string {
		actor, err := s.actors.ResolveHandle(ctx, handle)
		if err != nil {
			s.logger.Debug("mention did not resolve", "handle", handle, "error", err)
			return ""
		}
		if actor.URL != "" {
			return actor.URL
		}
		return actor.ActorID
	})
}

// rewriteMentions replaces mentions outside existing anchors with links,
// using resolve to map a handle to its URL. An empty URL leaves the
// mention as written.
func rewriteMentions(content string, resolve func(handle string) string) string {
	var b strings.Builder
	last := 0
	for _, anchor := range anchorRE.FindAllStringIndex(content, -1) {
		b.WriteString(linkMentions(content[last:anchor[0]], resolve))
		b.WriteString(content[anchor[0]:anchor[1]])
		last = anchor[1]
	}
	b.WriteString(linkMentions(content[last:], resolve))
	return b.String()
}

func linkMentions(text string, resolve func(handle string) string) string {
	return mentionRE.ReplaceAllStringFunc(text, func(mention string) string {
		href := resolve(mention)
		if href == "" {
			return mention
		}
		// display the short form, the way the mentioned server shows it
		display := mention[:strings.Index(mention[1:], "@")+1]
		return fmt.Sprintf(`<a rel="mention" class="u-url mention" href="%s">%s</a>`, href, display)
	})
}
