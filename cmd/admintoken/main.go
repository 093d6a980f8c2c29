// Command admintoken issues an operator token for the admin API, signed with
// the configured JWT secret.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"webhook-dispatcher/config"
	"webhook-dispatcher/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	subject := flag.String("subject", "", "operator identity recorded in audit logs (required)")
	roles := flag.String("roles", service.RoleViewer, "comma separated roles: viewer, operator")
	flag.Parse()

	if *subject == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "jwt.secret is not configured")
		os.Exit(1)
	}

	var granted []string
	for _, r := range strings.Split(*roles, ",") {
		switch r = strings.TrimSpace(r); r {
		case service.RoleViewer, service.RoleOperator:
			granted = append(granted, r)
		case "":
		default:
			fmt.Fprintf(os.Stderr, "unknown role %q\n", r)
			os.Exit(2)
		}
	}

	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	token, expiresAt, err := tokenSvc.Generate(*subject, granted)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
}
