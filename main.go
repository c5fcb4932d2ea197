package main

import (
	"os"

	"github.com/alecthomas/kong"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Context struct {
	Debug  bool
	DSN    string
	Logger *slog.Logger
}

// Open opens the configured database.
func (c *Context) Open() (*gorm.DB, error) {
	cfg := gorm.Config{
		TranslateError: true,
	}
	if !c.Debug {
		cfg.Logger = logger.Default.LogMode(logger.Warn)
	}
	db, err := gorm.Open(newDialector(c.DSN), &cfg)
	if err != nil {
		return nil, err
	}
	return db, configureDB(db)
}

var cli struct {
	Debug bool   `help:"Enable debug mode."`
	DSN   string `required:"" help:"Data source name."`

	Serve             ServeCmd             `cmd:"" help:"Serve the site."`
	AutoMigrate       AutoMigrateCmd       `cmd:"" help:"Create or update the database schema."`
	CreateProfile     CreateProfileCmd     `cmd:"" help:"Create the site admin profile."`
	SendFriendRequest SendFriendRequestCmd `cmd:"" help:"Send a friend request to another site."`
	Accept            AcceptCmd            `cmd:"" help:"Accept a pending friend request."`
	Friends           FriendsCmd           `cmd:"" help:"List friends and pending requests."`
}

func main() {
	ctx := kong.Parse(&cli)
	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	err := ctx.Run(&Context{
		Debug:  cli.Debug,
		DSN:    cli.DSN,
		Logger: slog.New(slog.HandlerOptions{Level: level}.NewTextHandler(os.Stderr)),
	})
	ctx.FatalIfErrorf(err)
}
