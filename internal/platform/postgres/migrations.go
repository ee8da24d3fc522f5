package postgres

import "embed"

// Migrations holds the goose SQL migrations for every table this package owns.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that goose reads from.
const MigrationsDir = "migrations"
