// Package media is a read-through proxy for friend avatars. Serving them
// from this site keeps readers' browsers from calling the peer directly.
package media

import (
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"

	"github.com/amityhq/amity/internal/crypto"
	"github.com/amityhq/amity/internal/httpx"
	"github.com/amityhq/amity/internal/snowflake"
	"github.com/amityhq/amity/models"
	"github.com/go-chi/chi/v5"
	"github.com/nfnt/resize"
)

// maxDimension caps proxied images; anything larger is scaled down.
const maxDimension = 400

// Avatar serves the avatar of the identity named in the URL. The hash in
// the path is derived from the avatar URL, so a stale link 404s instead
// of serving the wrong image.
func Avatar(env *models.Env, w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return httpx.Error(http.StatusNotFound, err)
	}
	identity, err := models.NewIdentities(env.DB).Find(snowflake.ID(id))
	if err != nil {
		return httpx.Error(http.StatusNotFound, err)
	}
	if identity.Avatar == "" || chi.URLParam(r, "hash") != crypto.URLHash(identity.Avatar) {
		return httpx.Error(http.StatusNotFound, fmt.Errorf("no such avatar"))
	}
	return fetch(w, identity.Avatar)
}

func fetch(w http.ResponseWriter, url string) error {
	resp, err := http.DefaultClient.Get(url)
	if err != nil {
		return httpx.Error(http.StatusBadGateway, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return httpx.Error(http.StatusBadGateway, fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return httpx.Error(http.StatusBadGateway, err)
	}
	img = resize.Thumbnail(maxDimension, maxDimension, img, resize.Lanczos3)

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	return png.Encode(w, img)
}

// ProxyAvatarURL returns the local proxy URL for an identity's avatar, or
// the empty string if it has none.
func ProxyAvatarURL(siteURL string, identity *models.Identity) string {
	if identity.Avatar == "" {
		return ""
	}
	return fmt.Sprintf("%s/media/avatar/%s/%d", siteURL, crypto.URLHash(identity.Avatar), identity.ID)
}
