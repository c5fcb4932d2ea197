package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/amityhq/amity/friends"
	"github.com/amityhq/amity/models"
)

type AcceptCmd struct {
	URL string `arg:"" help:"site URL of the pending request to accept"`
}

func (a *AcceptCmd) Run(ctx *Context) error {
	db, err := ctx.Open()
	if err != nil {
		return err
	}

	svc := friends.NewService(db, ctx.Logger)
	identity, err := models.NewIdentities(db).FindBySiteURL(strings.TrimSuffix(a.URL, "/"))
	if err != nil {
		return fmt.Errorf("no request from %s: %w", a.URL, err)
	}
	if err := svc.Accept(context.Background(), identity); err != nil {
		return err
	}
	fmt.Printf("%s is now a %s\n", identity.SiteURL, identity.Role)
	return nil
}
