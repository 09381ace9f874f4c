// Package db provides the SQLite settings store.
// It implements domain.SettingsRepository over a single settings table, one row per
// nested value, keyed by section and case-insensitive subsection.
//
// This package is responsible for:
// - Opening the database and applying the embedded goose migrations (`db.go`, `migrations/`).
// - Mapping nested values to rows, including the nullable priority and the JSON
//   encoded additional data (`types.go`).
// - Replacing a subsection atomically inside a transaction (`settings_repo.go`).
package db
