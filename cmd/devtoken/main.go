package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/platform/auth/session"
	platformclock "github.com/luxeladies/community-api/internal/platform/clock"
	"github.com/luxeladies/community-api/internal/platform/config"
)

// Dev-only session token minter.
//
// Signs a token with the configured SESSION_SECRET so local requests can be
// made without going through /auth/login. The member must still exist and be
// approved for the API to accept the token.
func main() {
	memberID := flag.String("member", "", "member id to put in the token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to SESSION_TTL)")
	flag.Parse()

	if *memberID == "" {
		fmt.Fprintln(os.Stderr, "usage: devtoken -member <id> [-ttl 30m]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		fmt.Fprintln(os.Stderr, "SESSION_SECRET is required")
		os.Exit(1)
	}

	lifetime := cfg.SessionTTL
	if *ttl > 0 {
		lifetime = *ttl
	}
	mgr := session.NewManager(session.Config{
		Secret: cfg.SessionSecret,
		Issuer: cfg.SessionIssuer,
		TTL:    lifetime,
	}, platformclock.NewSystemClock())

	tok, err := mgr.Issue(domain.MemberID(*memberID))
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.ExpiresAt.Format(time.RFC3339))
	fmt.Println(tok.Value)
}
