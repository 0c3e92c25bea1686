// migrate applies the local state database schema from embedded SQL; use go run ./cmd/migrate.
package main

import (
	"flag"
	"fmt"
	"os"

	"focusbuddy/internal/config"
	"focusbuddy/internal/db"
	"focusbuddy/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	path, err := cfg.StatePath()
	if err != nil {
		fmt.Fprintln(os.Stderr, "state path:", err)
		os.Exit(1)
	}

	sqlDB, err := db.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := migrate.Run(sqlDB, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
