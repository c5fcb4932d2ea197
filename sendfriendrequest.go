package main

import (
	"context"
	"fmt"

	"github.com/amityhq/amity/friends"
)

type SendFriendRequestCmd struct {
	URL     string `arg:"" help:"site URL to befriend"`
	Message string `help:"message shown to the other site's admin"`
	Secret  string `help:"pre-shared secret, if the other site requires one"`
}

func (s *SendFriendRequestCmd) Run(ctx *Context) error {
	db, err := ctx.Open()
	if err != nil {
		return err
	}

	svc := friends.NewService(db, ctx.Logger)
	identity, err := svc.SendFriendRequest(context.Background(), s.URL, s.Message, s.Secret)
	if err != nil {
		return err
	}
	fmt.Printf("friend request sent to %s, waiting for them to accept\n", identity.SiteURL)
	return nil
}
