// sessionctl is a small CLI for exercising the session store against a
// running gateway: login, register, reconcile, logout. It keeps the local
// profile cache under the user config directory, mirroring what the web
// client does with its local profile copy.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/interviewai/authgate/internal/core/domain"
	"github.com/interviewai/authgate/internal/core/repository"
	"github.com/interviewai/authgate/internal/logging"
	logicv1 "github.com/interviewai/authgate/internal/logic/v1"
)

func main() {
	gateway := flag.String("gateway", "http://localhost:8080/api", "gateway API base URL")
	email := flag.String("email", "", "email for login/register")
	password := flag.String("password", "", "password for login/register")
	fullName := flag.String("name", "", "full name for register")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logging.Setup(*logLevel, true)

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: sessionctl [flags] login|register|status|logout")
		os.Exit(2)
	}
	cmd := flag.Arg(0)

	store, err := newStore(*gateway)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build session store")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch cmd {
	case "login":
		user, err := store.Login(ctx, domain.LoginRequest{Email: *email, Password: *password})
		if err != nil {
			log.Fatal().Err(err).Msg("Login failed")
		}
		printProfile(user)
	case "register":
		user, err := store.Register(ctx, domain.RegisterRequest{
			Email:    *email,
			Password: *password,
			FullName: *fullName,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Registration failed")
		}
		printProfile(user)
	case "status":
		if err := store.Init(ctx); err != nil {
			log.Warn().Err(err).Msg("Reconcile failed")
		}
		snap := store.Snapshot()
		fmt.Printf("phase: %s\n", snap.Phase)
		if snap.User != nil {
			printProfile(snap.User)
		} else {
			fmt.Println("not logged in")
		}
	case "logout":
		if err := store.Logout(ctx); err != nil {
			log.Fatal().Err(err).Msg("Logout failed")
		}
		fmt.Println("logged out")
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		os.Exit(2)
	}
}

func newStore(gatewayURL string) (*logicv1.SessionStore, error) {
	confDir, err := os.UserConfigDir()
	if err != nil {
		confDir = os.TempDir()
	}
	dir := filepath.Join(confDir, "interviewai")

	// The jar file keeps the HttpOnly credential across invocations the
	// way a browser cookie store would; this code still never reads it.
	jar, err := repository.NewFileCookieJar(filepath.Join(dir, "cookies.json"))
	if err != nil {
		return nil, err
	}
	authority := repository.NewHTTPAuthorityWithJar(gatewayURL, 10*time.Second, jar)

	cache, err := repository.NewFileProfileCache(dir)
	if err != nil {
		return nil, err
	}

	return logicv1.NewSessionStore(authority, cache), nil
}

func printProfile(u *domain.UserProfile) {
	fmt.Printf("id: %s\nemail: %s\n", u.ID, u.Email)
	if u.FullName != "" {
		fmt.Printf("name: %s\n", u.FullName)
	}
	if u.JobTitle != "" {
		fmt.Printf("title: %s\n", u.JobTitle)
	}
}
