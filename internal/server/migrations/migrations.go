// Package migrations embeds the goose SQL migrations for the vault store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
