package friends

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/amityhq/amity/internal/httpx"
	"github.com/amityhq/amity/internal/snowflake"
	"github.com/amityhq/amity/internal/to"
	"github.com/amityhq/amity/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the protocol surface, to be mounted under RestPrefix.
func (s *Service) Routes() chi.Router {
	env := func(r *http.Request) *Service {
		return s
	}
	r := chi.NewRouter()

	r.Get("/hello", httpx.HandlerFunc(env, (*Service).helloShow))
	r.Post("/hello", httpx.HandlerFunc(env, (*Service).helloProve))
	r.Post("/friend-request", httpx.HandlerFunc(env, (*Service).friendRequest))
	// Both spellings answer the same handler; older peers post to the
	// accept-friend-request path.
	r.Post("/friend-request-accepted", httpx.HandlerFunc(env, (*Service).acceptFriendRequest))
	r.Post("/accept-friend-request", httpx.HandlerFunc(env, (*Service).acceptFriendRequest))

	r.Post("/post-deleted", httpx.HandlerFunc(env, (*Service).postDeleted))
	r.Post("/update-post-reactions", httpx.HandlerFunc(env, (*Service).updatePostReactions))
	r.Post("/my-reactions", httpx.HandlerFunc(env, (*Service).myReactions))
	r.Post("/recommendation", httpx.HandlerFunc(env, (*Service).recommendation))

	r.Route("/identities", func(r chi.Router) {
		r.Use(s.requireProfile)
		r.Get("/", httpx.HandlerFunc(env, (*Service).identitiesIndex))
		r.Post("/{id}/accept", httpx.HandlerFunc(env, (*Service).identityAccept))
	})
	return r
}

// requireProfile gates the admin surface behind the site profile's
// credentials: either basic auth with the profile's email and password,
// or the profile's access token as a bearer token.
func (s *Service) requireProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if email, password, ok := r.BasicAuth(); ok {
			profile, err := s.profiles().FindByEmail(email)
			if err == nil && profile.VerifyPassword(password) {
				next.ServeHTTP(w, r)
				return
			}
		}
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token := strings.TrimPrefix(auth, "Bearer ")
			if _, err := s.profiles().FindByAccessToken(token); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		to.JSON(w, map[string]any{
			"code":    "rest_forbidden",
			"message": "sorry, you are not allowed to do that",
		})
	})
}

type serialisedIdentity struct {
	ID          string `json:"id"`
	SiteURL     string `json:"site_url"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
	Role        string `json:"role"`
}

// serialiseIdentity renders an identity for the admin surface. Tokens and
// handshake secrets stay out of it.
func serialiseIdentity(identity *models.Identity) serialisedIdentity {
	return serialisedIdentity{
		ID:          strconv.FormatUint(uint64(identity.ID), 10),
		SiteURL:     identity.SiteURL,
		Handle:      identity.Handle,
		DisplayName: identity.DisplayName,
		Avatar:      identity.Avatar,
		Role:        string(identity.Role),
	}
}

// identitiesIndex lists all known identities, friends and pending alike.
func (s *Service) identitiesIndex(w http.ResponseWriter, r *http.Request) error {
	friends, err := s.identities().Friends()
	if err != nil {
		return err
	}
	pending, err := s.identities().Pending()
	if err != nil {
		return err
	}
	out := make([]serialisedIdentity, 0, len(friends)+len(pending))
	for i := range friends {
		out = append(out, serialiseIdentity(&friends[i]))
	}
	for i := range pending {
		out = append(out, serialiseIdentity(&pending[i]))
	}
	return to.JSON(w, out)
}

// identityAccept approves a pending incoming friend request.
func (s *Service) identityAccept(w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return httpx.Error(http.StatusNotFound, err)
	}
	identity, err := s.identities().Find(snowflake.ID(id))
	if err != nil {
		return httpx.Error(http.StatusNotFound, err)
	}
	if err := s.Accept(r.Context(), identity); err != nil {
		return err
	}
	return to.JSON(w, serialiseIdentity(identity))
}
