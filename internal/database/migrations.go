package database

import (
	"database/sql"
	"fmt"
)

// Las sentencias usan tipos que aceptan tanto SQLite como PostgreSQL
var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "users",
		sql: `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		name TEXT NOT NULL,
		is_guest BOOLEAN NOT NULL DEFAULT FALSE,
		expires_at TIMESTAMP NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`,
	},
	{
		name: "crypto_assets",
		sql: `
	CREATE TABLE IF NOT EXISTS crypto_assets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		symbol TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		price_usd DOUBLE PRECISION NULL,
		total_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);`,
	},
	{
		name: "crypto_assets_user_idx",
		sql: `
	CREATE INDEX IF NOT EXISTS idx_crypto_assets_user
	ON crypto_assets(user_id);`,
	},
}

// RunMigrations crea el esquema si no existe; es idempotente
func RunMigrations(db *sql.DB) error {
	for _, m := range migrations {
		if _, err := db.Exec(m.sql); err != nil {
			return fmt.Errorf("error en la migración %s: %w", m.name, err)
		}
	}
	return nil
}
