package activitypub

import (
	"context"
	"crypto/rsa"
	"fmt"
	"io"
	"net/http"

	"github.com/amityhq/amity/internal/crypto"
	"github.com/amityhq/amity/internal/httpsig"
	"github.com/amityhq/amity/models"
	"github.com/carlmjohnson/requests"
)

const activityContentType = `application/ld+json; profile="https://www.w3.org/ns/activitystreams"`

// Client is an ActivityPub client which fetches and delivers ActivityPub
// resources, signing every request with the site profile's key.
type Client struct {
	keyID      string
	privateKey *rsa.PrivateKey
}

// NewClient returns a client signing as the site profile.
func NewClient(siteURL string, profile *models.Profile) (*Client, error) {
	_, priv, err := crypto.ParseRSAPrivateKey(profile.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("could not parse profile key: %w", err)
	}
	return &Client{
		keyID:      ActorID(siteURL) + "#main-key",
		privateKey: priv,
	}, nil
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	// the Digest header must cover the body actually sent
	var body []byte
	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		body, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
	}
	if err := httpsig.Sign(req, c.keyID, c.privateKey, body); err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}
	return http.DefaultTransport.RoundTrip(req)
}

// Fetch fetches the ActivityPub resource at the given URL and decodes it
// into the given object.
func (c *Client) Fetch(ctx context.Context, uri string, obj any) error {
	return requests.URL(uri).
		Accept(activityContentType).
		Transport(c).
		CheckContentType("application/ld+json", "application/activity+json", "application/json").
		CheckStatus(http.StatusOK).
		ToJSON(obj).
		Fetch(ctx)
}

// Post posts the given ActivityPub object to the given URL.
func (c *Client) Post(ctx context.Context, url string, obj map[string]any) error {
	return requests.URL(url).
		Header("Content-Type", activityContentType).
		BodyJSON(obj).
		Transport(c).
		CheckStatus(http.StatusOK, http.StatusCreated, http.StatusAccepted).
		Fetch(ctx)
}
