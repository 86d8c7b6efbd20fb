// Package migrations embeds the SQL migration files that bootstrap the
// postgres document store.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
