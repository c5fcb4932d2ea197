package media

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amityhq/amity/internal/crypto"
	"github.com/amityhq/amity/internal/httpx"
	"github.com/amityhq/amity/internal/snowflake"
	"github.com/amityhq/amity/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestEnv(t *testing.T) *models.Env {
	t.Helper()
	require := require.New(t)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(err)
	require.NoError(db.AutoMigrate(models.AllTables()...))
	return &models.Env{DB: db}
}

func TestAvatarProxy(t *testing.T) {
	require := require.New(t)
	env := setupTestEnv(t)

	// a peer serving a large avatar
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		require.NoError(png.Encode(w, image.NewRGBA(image.Rect(0, 0, 800, 600))))
	}))
	t.Cleanup(origin.Close)

	identity := &models.Identity{
		ID:      snowflake.Now(),
		SiteURL: "https://peer.example",
		Handle:  models.HandleForSiteURL("https://peer.example"),
		Avatar:  origin.URL + "/avatar.png",
		Role:    models.RoleFriend,
	}
	require.NoError(env.DB.Create(identity).Error)

	router := chi.NewRouter()
	router.Get("/media/avatar/{hash}/{id}", httpx.HandlerFunc(func(r *http.Request) *models.Env {
		return env
	}, Avatar))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := ProxyAvatarURL(server.URL, identity)
	require.NotEmpty(url)
	resp, err := http.Get(url)
	require.NoError(err)
	defer resp.Body.Close()
	require.Equal(http.StatusOK, resp.StatusCode)
	require.Equal("image/png", resp.Header.Get("Content-Type"))

	// the proxied image is capped, not served at original size
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(err)
	img, err := png.Decode(&buf)
	require.NoError(err)
	require.LessOrEqual(img.Bounds().Dx(), 400)
	require.LessOrEqual(img.Bounds().Dy(), 400)

	// a stale hash does not serve the image
	stale := fmt.Sprintf("%s/media/avatar/%s/%d", server.URL, crypto.URLHash("https://old.example/avatar.png"), identity.ID)
	resp, err = http.Get(stale)
	require.NoError(err)
	resp.Body.Close()
	require.Equal(http.StatusNotFound, resp.StatusCode)
}
