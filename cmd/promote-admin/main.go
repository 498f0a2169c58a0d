// Command promote-admin grants or removes the platform admin role for
// a user, identified by email. It talks to the database directly and
// is meant to be run from an operator shell, not exposed over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sapbridge/sapbridge-api/internal/config"
	"github.com/sapbridge/sapbridge-api/internal/database"
	"github.com/sapbridge/sapbridge-api/internal/models"
)

func main() {
	demote := flag.Bool("demote", false, "set the user back to a regular account")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: promote-admin [-demote] <email>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	email := flag.Arg(0)

	role := models.GlobalRoleSuperAdmin
	if *demote {
		role = models.GlobalRoleUser
	}

	if err := run(email, role); err != nil {
		fmt.Fprintf(os.Stderr, "promote-admin: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s is now %s\n", email, role)
}

func run(email, role string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	tag, err := db.Pool.Exec(ctx, `
		UPDATE users SET global_role = $1, updated_at = NOW()
		WHERE email = $2
	`, role, email)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no user found with email %s", email)
	}
	return nil
}
