// Package migrations embeds the goose SQL migrations for the usage ledger.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
