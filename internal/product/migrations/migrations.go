// Package migrations embeds the SQL schema migrations of the products table.
package migrations

import "embed"

// FS holds the migration files at its root.
//
//go:embed *.sql
var FS embed.FS

// Dir is the directory inside FS that golang-migrate reads.
const Dir = "."
