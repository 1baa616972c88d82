// Command gentoken generates staff session tokens for local development and
// testing. It does not touch the database; the user ID is taken at face value.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/firmaria/docsign/internal/auth"
)

func main() {
	var (
		userID = flag.String("user", "", "staff user ID to embed in the token")
		email  = flag.String("email", "", "staff user email to embed in the token")
		secret = flag.String("secret", os.Getenv("JWT_SECRET"), "JWT signing secret (defaults to JWT_SECRET)")
		expiry = flag.Duration("expiry", 24*time.Hour, "token lifetime")
	)
	flag.Parse()

	if *userID == "" || *secret == "" {
		fmt.Fprintln(os.Stderr, "usage: gentoken -user <id> [-email <email>] [-secret <secret>] [-expiry <duration>]")
		os.Exit(2)
	}

	svc := auth.NewService(&auth.Config{
		JWTSecret:   []byte(*secret),
		TokenExpiry: *expiry,
	}, nil, nil)

	token, err := svc.GenerateToken(*userID, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
