package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Open abre la conexión con el driver configurado ("sqlite3" o "postgres") y ejecuta las migraciones
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "sqlite3":
		// Crear el directorio de la base de datos si no existe
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
	case "postgres":
	default:
		return nil, fmt.Errorf("driver de base de datos no soportado: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == "sqlite3" {
		// Una base en memoria vive en una sola conexión
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error al conectar con la base de datos: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
