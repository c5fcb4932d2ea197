package main

import (
	"fmt"

	"github.com/amityhq/amity/internal/crypto"
	"github.com/amityhq/amity/internal/snowflake"
	"github.com/amityhq/amity/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type CreateProfileCmd struct {
	Email       string `required:"" help:"admin email address"`
	Password    string `required:"" help:"admin password"`
	DisplayName string `help:"name shown to friends"`
}

func (c *CreateProfileCmd) Run(ctx *Context) error {
	db, err := ctx.Open()
	if err != nil {
		return err
	}

	passwd, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	kp, err := crypto.GenerateRSAKeypair()
	if err != nil {
		return err
	}
	profile := &models.Profile{
		ID:                snowflake.Now(),
		Email:             c.Email,
		DisplayName:       c.DisplayName,
		EncryptedPassword: passwd,
		AccessToken:       uuid.New().String(),
		PublicKey:         kp.PublicKey,
		PrivateKey:        kp.PrivateKey,
	}
	if err := db.Create(profile).Error; err != nil {
		return err
	}
	fmt.Println("profile created, access token:", profile.AccessToken)
	return nil
}
