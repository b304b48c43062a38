// Package migrations embeds the schema files applied at startup by
// database.RunMigrations.
package migrations

import "embed"

// FS holds every *.up.sql file in lexical order of version.
//
//go:embed *.sql
var FS embed.FS
