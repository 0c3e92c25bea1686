package db

import "embed"

// MigrationFS embeds SQL migration files from internal/db/migrations.
// Used by the migrate runner to bring the local state database up to date
// before the credential store opens it.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
