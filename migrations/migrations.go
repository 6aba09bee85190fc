// Package migrations содержит встроенные SQL-миграции сервисов.
package migrations

import "embed"

// PostgresMigrations миграции PostgreSQL в формате goose
//
//go:embed postgres/*.sql
var PostgresMigrations embed.FS
