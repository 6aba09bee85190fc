package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"transit/pkg/logger"
)

// Migrator применяет goose-миграции поверх пула подключений
type Migrator struct {
	db   *PostgresDB
	fsys fs.FS
	dir  string
}

// NewMigrator создаёт мигратор поверх открытого подключения
func NewMigrator(db *PostgresDB, fsys fs.FS, dir string) *Migrator {
	return &Migrator{
		db:   db,
		fsys: fsys,
		dir:  dir,
	}
}

// goose работает через database/sql, поэтому оборачиваем pgx-пул
func (m *Migrator) run(fn func(db *sql.DB) error) error {
	sqlDB := stdlib.OpenDBFromPool(m.db.pool)
	defer sqlDB.Close()

	goose.SetBaseFS(m.fsys)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	return fn(sqlDB)
}

// Up применяет все миграции
func (m *Migrator) Up(ctx context.Context) error {
	err := m.run(func(db *sql.DB) error {
		return goose.UpContext(ctx, db, m.dir)
	})
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Log.Info("Migrations applied successfully")
	return nil
}

// Down откатывает последнюю миграцию
func (m *Migrator) Down(ctx context.Context) error {
	err := m.run(func(db *sql.DB) error {
		return goose.DownContext(ctx, db, m.dir)
	})
	if err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	logger.Log.Info("Migration rolled back successfully")
	return nil
}

// Status показывает статус миграций
func (m *Migrator) Status(ctx context.Context) error {
	return m.run(func(db *sql.DB) error {
		return goose.StatusContext(ctx, db, m.dir)
	})
}

// RunMigrations применяет миграции, если подключение создано
// с auto_migrate. Настройка читается из конфигурации самого подключения.
func RunMigrations(ctx context.Context, db *PostgresDB, fsys fs.FS, dir string) error {
	if !db.cfg.AutoMigrate {
		logger.Log.Info("Auto-migration is disabled")
		return nil
	}

	return NewMigrator(db, fsys, dir).Up(ctx)
}
