// Command token mints a signed bearer token, typically the long-lived
// trigger identity configured on the change-feed publisher.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/go-chat-push/internal/config"
	"github.com/go-chat-push/internal/domain"
	jwtinfra "github.com/go-chat-push/internal/infrastructure/jwt"
	"github.com/joho/godotenv"
)

func main() {
	subject := flag.String("sub", "change-feed", "user_id claim")
	role := flag.String("role", domain.RoleTrigger, "role claim (user, admin, trigger)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	if !slices.Contains([]string{domain.RoleUser, domain.RoleAdmin, domain.RoleTrigger}, *role) {
		slog.Error("unknown role", "role", *role)
		os.Exit(2)
	}

	p, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		slog.Error("load keys", "err", err)
		os.Exit(1)
	}
	tok, err := p.Sign(*subject, *role)
	if err != nil {
		slog.Error("sign token", "err", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
