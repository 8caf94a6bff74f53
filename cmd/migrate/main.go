package main

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/lib/pq"

	"market-agent/internal/config"
)

// Applies every .sql file under migrations/ in lexical order. AutoMigrate in
// the server covers the common case; this binary exists for deployments that
// manage schema out of band.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	files, err := filepath.Glob("migrations/*.sql")
	if err != nil {
		log.Fatalf("Failed to list migrations: %v", err)
	}
	sort.Strings(files)

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("Failed to read migration %s: %v", file, err)
		}

		log.Printf("Applying migration: %s", filepath.Base(file))
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			log.Fatalf("Failed to apply migration %s: %v", file, err)
		}
	}

	log.Println("Migrations applied successfully")
}
