package main

import (
	"github.com/amityhq/amity/activitypub"
	"github.com/amityhq/amity/models"
)

type AutoMigrateCmd struct {
}

func (a *AutoMigrateCmd) Run(ctx *Context) error {
	db, err := ctx.Open()
	if err != nil {
		return err
	}
	tables := models.AllTables()
	tables = append(tables, activitypub.AllTables()...)
	return db.AutoMigrate(tables...)
}
