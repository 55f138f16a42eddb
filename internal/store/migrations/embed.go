// Package migrations embeds the SQL schema of mockchat.db.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
