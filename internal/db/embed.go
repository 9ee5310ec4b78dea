package db

import "embed"

// EmbedMigrations holds the graph store migrations.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
