// Package assets embeds the files the server ships with: the default puzzle
// and the SQL migrations for the sqlite state backend.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed puzzle.yaml sql/*.sql
var FS embed.FS

// DefaultPuzzle returns the raw YAML of the built-in puzzle.
func DefaultPuzzle() ([]byte, error) {
	return FS.ReadFile("puzzle.yaml")
}

// Migrations returns the migration scripts rooted at their directory.
func Migrations() (fs.FS, error) {
	return fs.Sub(FS, "sql")
}
