package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/livepaste/backend/internal/config"
	"github.com/livepaste/backend/internal/model/user"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	username := flag.String("user", "", "username to create")
	password := flag.String("pass", "", "password for the new user")
	flag.Parse()

	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	users := user.NewStore(cfg.Store.UsersFile)
	added, err := users.Add(*username, *password)
	if err != nil {
		log.Fatalf("failed to add user: %v", err)
	}
	if !added {
		log.Fatalf("user %q already exists", *username)
	}

	fmt.Printf("user %q added to %s\n", *username, cfg.Store.UsersFile)
}
