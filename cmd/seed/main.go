// seed asks the server to install its default catalogs (shop items, daily
// challenges, milestone ladders) for local development. Idempotent: the
// server skips catalogs that are already populated. Requires a signed-in
// admin credential.
package main

import (
	"context"
	"fmt"
	"os"

	"focusbuddy/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "init:", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx := context.Background()
	if !a.Auth.CheckAuth(ctx) {
		fmt.Fprintln(os.Stderr, "not signed in; run 'focusbuddy login' first")
		os.Exit(1)
	}

	if err := a.Shop.SeedDefaults(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "seed shop:", err)
		os.Exit(1)
	}
	if err := a.Challenges.SeedDefaults(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "seed challenges:", err)
		os.Exit(1)
	}
	if err := a.Milestones.SeedDefaults(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "seed milestones:", err)
		os.Exit(1)
	}
	fmt.Println("default catalogs seeded")
}
