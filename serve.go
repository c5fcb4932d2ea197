package main

import (
	"net/http"
	"time"

	"github.com/amityhq/amity/activitypub"
	"github.com/amityhq/amity/friends"
	"github.com/amityhq/amity/internal/httpx"
	"github.com/amityhq/amity/media"
	"github.com/amityhq/amity/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ServeCmd struct {
	Addr    string `default:":8080" help:"address to listen"`
	SiteURL string `help:"canonical site URL; stored in settings when given"`
}

func (s *ServeCmd) Run(ctx *Context) error {
	db, err := ctx.Open()
	if err != nil {
		return err
	}

	svc := friends.NewService(db, ctx.Logger)
	if s.SiteURL != "" {
		if err := svc.Settings().Set(models.SettingSiteURL, s.SiteURL); err != nil {
			return err
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Mount(friends.RestPrefix, svc.Routes())
	env := &models.Env{DB: db, Logger: ctx.Logger}
	r.Get("/media/avatar/{hash}/{id}", httpx.HandlerFunc(func(*http.Request) *models.Env {
		return env
	}, media.Avatar))

	// the ActivityPub adapter needs the profile's keypair; without a
	// profile the site still speaks the friend protocol
	if profile, err := models.NewProfiles(db).Find(); err == nil {
		ap, err := activitypub.NewService(db, ctx.Logger, svc.Settings().SiteURL(), profile)
		if err != nil {
			return err
		}
		ap.Listen(svc.Events())
		r.Post("/inbox", ap.Inbox)
	} else {
		ctx.Logger.Warn("no profile found, activitypub adapter disabled", "error", err)
	}

	svr := &http.Server{
		Addr:         s.Addr,
		Handler:      r,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	ctx.Logger.Info("listening", "addr", s.Addr, "site", svc.Settings().SiteURL())
	return svr.ListenAndServe()
}
