package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/makkenzo/license-dashboard-api/internal/config"
	"github.com/makkenzo/license-dashboard-api/internal/service"
	"go.uber.org/zap"
)

// issuetoken mints a bearer token signed with auth.jwtSecret for local
// development and manual testing.
func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	userID := flag.Int64("user", 0, "Numeric user id placed in the token subject")
	role := flag.String("role", service.RoleUser, "Token role: admin or user")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	authService, err := service.NewAuthService(&cfg.Auth, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to initialize auth service: %v", err)
	}

	token, err := authService.IssueToken(*userID, *role)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println(token)
}
