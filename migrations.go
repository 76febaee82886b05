// Package anagram embeds the database migrations applied by the migrate
// command.
package anagram

import "embed"

// Migrations holds the goose SQL migrations under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
