// Package migrations embeds the SQL migration files so the binary can
// migrate its own schema on startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
