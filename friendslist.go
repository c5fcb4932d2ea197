package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/amityhq/amity/models"
)

type FriendsCmd struct {
}

func (f *FriendsCmd) Run(ctx *Context) error {
	db, err := ctx.Open()
	if err != nil {
		return err
	}

	identities := models.NewIdentities(db)
	friends, err := identities.Friends()
	if err != nil {
		return err
	}
	pending, err := identities.Pending()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "SITE\tHANDLE\tROLE")
	for _, identity := range append(friends, pending...) {
		fmt.Fprintf(w, "%s\t%s\t%s\n", identity.SiteURL, identity.Handle, identity.Role)
	}
	return nil
}
