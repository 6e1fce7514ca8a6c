// cmd/adduser/main.go
// Creates or updates a user in the database.
//
// Usage:
//
//	go run ./cmd/adduser -email max@example.com -username max -password verstappen -admin
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/padraicbc/gridpredict/config"
	bundb "github.com/padraicbc/gridpredict/db"
	applog "github.com/padraicbc/gridpredict/logger"
	"github.com/padraicbc/gridpredict/models"
	"github.com/padraicbc/gridpredict/service"
	"github.com/padraicbc/gridpredict/store"
)

func main() {
	email := flag.String("email", "", "email address (required)")
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "plain-text password (required)")
	admin := flag.Bool("admin", false, "grant the admin role")
	superadmin := flag.Bool("superadmin", false, "grant the superadmin role (implies -admin)")
	flag.Parse()

	if *email == "" || *username == "" || *password == "" {
		log.Fatal("-email, -username and -password are required")
	}

	hash, err := service.HashPassword(*password)
	if err != nil {
		log.Fatal("hash password: ", err)
	}

	cfg := config.Load()
	if !cfg.UsesPostgres() {
		log.Fatal("adduser needs STORE_DRIVER=postgres")
	}
	db := bundb.Setup(cfg)
	defer db.Close()

	logger, err := applog.New(cfg.Debug)
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	if err := bundb.CreateTables(ctx, db, logger); err != nil {
		log.Fatal("create tables: ", err)
	}

	user := &models.User{
		Email:        *email,
		Username:     *username,
		Password:     hash,
		IsActive:     true,
		IsAdmin:      *admin || *superadmin,
		IsSuperadmin: *superadmin,
	}
	if err := store.NewBun(db).SaveUser(ctx, user); err != nil {
		log.Fatal("save user: ", err)
	}

	fmt.Printf("user %q saved (id %d)\n", user.Username, user.ID)
}
