package friends

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/amityhq/amity/internal/crypto"
	"github.com/amityhq/amity/internal/httpx"
	"github.com/amityhq/amity/internal/to"
	"github.com/amityhq/amity/models"
	"github.com/carlmjohnson/requests"
)

// SendFriendRequest starts a handshake with the site at targetSiteURL.
// A fresh key is generated and posted to the target together with this
// site's URL; the challenge the target answers with authorises the target
// to complete the handshake later, by presenting a proof binding the
// challenge to the key.
func (s *Service) SendFriendRequest(ctx context.Context, targetSiteURL, message, preSharedSecret string) (*models.Identity, error) {
	siteURL := s.Settings().SiteURL()
	target, err := validateSiteURL(targetSiteURL, siteURL)
	if err != nil {
		return nil, err
	}
	if preSharedSecret == "" {
		preSharedSecret = s.Settings().PreSharedSecret()
	}

	key := crypto.Token()
	var resp struct {
		Challenge string `json:"challenge"`
	}
	err = requests.URL(RestURL(target)+"/friend-request").
		BodyJSON(map[string]any{
			"pre_shared_secret": preSharedSecret,
			"site_url":          siteURL,
			"key":               key,
			"message":           message,
		}).
		Client(s.protocolClient()).
		CheckStatus(http.StatusOK).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not send friend request to %s: %w", target, err)
	}
	if resp.Challenge == "" {
		return nil, fmt.Errorf("%s did not answer with a challenge", target)
	}

	identity, err := s.identities().CreatePendingOutgoing(target, key)
	if err != nil {
		return nil, err
	}
	// The key is kept against the target's callback URL so hello can prove
	// we are the site that sent it, and the challenge becomes the one-time
	// accept token the target must echo back.
	err = s.challenges().Store(&models.Challenge{
		ID:      resp.Challenge,
		URLHash: crypto.URLHash(RestURL(target)),
		Key:     key,
		SiteURL: target,
		Message: message,
	})
	if err != nil {
		return nil, err
	}
	if err := s.acceptTokens().Store(resp.Challenge, identity.ID); err != nil {
		return nil, err
	}
	return identity, nil
}

type friendRequestParams struct {
	PreSharedSecret string `json:"pre_shared_secret" schema:"pre_shared_secret"`
	SiteURL         string `json:"site_url" schema:"site_url"`
	Key             string `json:"key" schema:"key"`
	Message         string `json:"message" schema:"message"`
	IconURL         string `json:"icon_url" schema:"icon_url"`
}

// friendRequest receives a friend request from a remote site. The caller
// must present the configured pre-shared secret and is rate limited by
// address; a valid request is answered with a challenge and, unless
// incoming requests are disabled, creates a pending identity for the
// local admin to decide on.
func (s *Service) friendRequest(w http.ResponseWriter, r *http.Request) error {
	var params friendRequestParams
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	if !crypto.Equal(params.PreSharedSecret, s.Settings().PreSharedSecret()) {
		return errInvalidSecret()
	}
	if !s.limiter.Allow("friend-request|"+remoteAddr(r), allowedRequests, requestWindow) {
		return errTooManyRequests()
	}
	siteURL, err := validateSiteURL(params.SiteURL, s.Settings().SiteURL())
	if err != nil {
		return errInvalidSite()
	}

	challenge := crypto.Token()
	err = s.challenges().Store(&models.Challenge{
		ID:      challenge,
		URLHash: crypto.URLHash(RestURL(siteURL)),
		Key:     params.Key,
		SiteURL: siteURL,
		IconURL: params.IconURL,
		Message: params.Message,
	})
	if err != nil {
		return err
	}
	if !s.Settings().IgnoreIncomingRequests() {
		if _, err := s.identities().CreateForChallenge(challenge, siteURL, "", params.IconURL); err != nil {
			return err
		}
	}
	return to.JSON(w, map[string]string{
		"challenge": challenge,
	})
}

type acceptParams struct {
	Token   string `json:"token" schema:"token"`
	Friend  string `json:"friend" schema:"friend"`
	Proof   string `json:"proof" schema:"proof"`
	Name    string `json:"name" schema:"name"`
	IconURL string `json:"icon_url" schema:"icon_url"`
}

// acceptFriendRequest completes a handshake this site initiated. The peer
// echoes the challenge it was issued (our one-time accept token), hands
// over the bearer token it created for us, and proves it received our key.
// The accept token is consumed whatever the outcome.
func (s *Service) acceptFriendRequest(w http.ResponseWriter, r *http.Request) error {
	var params acceptParams
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	if params.Token == "" || params.Friend == "" || params.Proof == "" {
		return errInvalidParameters()
	}
	identityID, err := s.acceptTokens().Consume(params.Token)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			return errInvalidParameters()
		}
		return err
	}
	identity, err := s.identities().Find(identityID)
	if err != nil {
		return errInvalidParameters()
	}
	if !crypto.VerifyProof(params.Proof, params.Token, identity.AcceptSignature) {
		return errInvalidProof()
	}
	// The offer was made to the site as it was when challenged; if its URL
	// no longer derives the same handle, someone else answers there now.
	if models.HandleForSiteURL(identity.SiteURL) != identity.Handle {
		return errOfferNoLongerValid()
	}

	if err := s.identities().MakeFriend(identity, params.Friend); err != nil {
		return err
	}
	outToken, err := s.identities().IssueOutToken(identity)
	if err != nil {
		return err
	}
	if err := s.identities().UpdateProfile(identity, params.Name, params.IconURL); err != nil {
		return err
	}
	s.events.PublishRequestAccepted(r.Context(), RequestAccepted{Identity: identity})

	return to.JSON(w, map[string]string{
		"friend": outToken,
	})
}

// NotifyAcceptedOnRemote tells the requesting site that its friend request
// was accepted here. It presents the challenge the requester was issued
// together with a proof binding it to the requester's key, and hands over
// a fresh bearer token for the requester to call us with. On an ambiguous
// answer the identity stays pending; on failure nothing changes.
func (s *Service) NotifyAcceptedOnRemote(ctx context.Context, identity *models.Identity) error {
	if identity.RequestToken == "" {
		// The handshake was initiated remotely and completed through the
		// accept endpoint; there is nobody to notify.
		return nil
	}
	restURL := RestURL(identity.SiteURL)
	challenge, err := s.challenges().FindByURLHash(crypto.URLHash(restURL))
	if err != nil {
		return fmt.Errorf("no challenge on file for %s: %w", identity.SiteURL, err)
	}
	outToken, err := s.identities().IssueOutToken(identity)
	if err != nil {
		return err
	}

	var name, icon string
	if profile, err := s.profiles().Find(); err == nil {
		name, icon = profile.DisplayName, profile.Avatar
	}

	var resp struct {
		Friend               string `json:"friend"`
		FriendRequestPending string `json:"friend_request_pending"`
		Name                 string `json:"name"`
		UserIconURL          string `json:"user_icon_url"`
	}
	err = requests.URL(restURL+"/friend-request-accepted").
		BodyJSON(map[string]any{
			"token":    identity.RequestToken,
			"friend":   outToken,
			"proof":    crypto.Proof(identity.RequestToken, challenge.Key),
			"name":     name,
			"icon_url": icon,
		}).
		Client(s.protocolClient()).
		CheckStatus(http.StatusOK).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		// Leave the handshake state untouched; a later role change or
		// manual retry will notify again.
		return fmt.Errorf("could not notify %s: %w", identity.SiteURL, err)
	}

	if err := s.identities().ClearRequestToken(identity); err != nil {
		return err
	}
	if resp.Friend != "" {
		if err := s.identities().MakeFriend(identity, resp.Friend); err != nil {
			return err
		}
		return s.identities().UpdateProfile(identity, resp.Name, resp.UserIconURL)
	}
	// The peer acknowledged but has not decided; keep the request pending
	// and remember the peer's accept token so a later completion works.
	// The completion proof will bind that token to the key on file.
	if err := s.identities().AwaitAccept(identity, challenge.Key); err != nil {
		return err
	}
	if resp.FriendRequestPending != "" {
		return s.acceptTokens().Store(resp.FriendRequestPending, identity.ID)
	}
	return nil
}

// helloShow answers an unauthenticated ping with this site's coordinates.
func (s *Service) helloShow(w http.ResponseWriter, r *http.Request) error {
	siteURL := s.Settings().SiteURL()
	return to.JSON(w, map[string]string{
		"version":  Version,
		"site_url": siteURL,
		"rest_url": RestURL(siteURL),
	})
}

type helloParams struct {
	RestURL   string `json:"rest_url" schema:"rest_url"`
	Challenge string `json:"challenge" schema:"challenge"`
}

// helloProve answers a challenge from a site this site exchanged a key
// with: the response proves knowledge of the key without revealing it, so
// the caller can verify it is talking to the genuine site.
func (s *Service) helloProve(w http.ResponseWriter, r *http.Request) error {
	var params helloParams
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	challenge, err := s.challenges().FindByURLHash(crypto.URLHash(params.RestURL))
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			return errUnknownRequest()
		}
		return err
	}
	return to.JSON(w, map[string]string{
		"version":  Version,
		"response": crypto.Proof(challenge.Key, params.Challenge),
	})
}

// validateSiteURL checks that raw is an absolute http(s) URL and not this
// site itself, and returns it in trimmed form.
func validateSiteURL(raw, localSiteURL string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid site url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid site url %q", raw)
	}
	if strings.EqualFold(strings.TrimSuffix(raw, "/"), strings.TrimSuffix(localSiteURL, "/")) {
		return "", fmt.Errorf("cannot befriend your own site %q", raw)
	}
	return strings.TrimSuffix(raw, "/"), nil
}

// remoteAddr returns the caller's address without the port.
func remoteAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
