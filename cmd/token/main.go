// Command token mints a bearer token for local use against the API.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/moneyflow/internal/config"
	"github.com/MrJamesThe3rd/moneyflow/internal/identity"
)

func main() {
	userFlag := flag.String("user", "", "user id to put in the token subject (random when empty)")
	email := flag.String("email", "", "email claim")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to JWT_TOKEN_TTL)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	userID := uuid.New()

	if *userFlag != "" {
		userID, err = uuid.Parse(*userFlag)
		if err != nil {
			slog.Error("invalid user id", "user", *userFlag, "error", err)
			os.Exit(1)
		}
	}

	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, err := identity.NewService(cfg.Auth.JWTSecret, lifetime).Issue(userID, *email)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "user %s, expires in %s\n", userID, lifetime.Round(time.Second))
	fmt.Println(token)
}
