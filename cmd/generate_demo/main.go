// Command generate_demo creates a demo database with a public-domain sample catalogue.
// Usage: go run ./cmd/generate_demo [-db path/to/demo.db] [-password secret]
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/mrlokans/bookclub/internal/config"
	"github.com/mrlokans/bookclub/internal/database"
	"github.com/mrlokans/bookclub/internal/demo"
	"github.com/mrlokans/bookclub/internal/logging"
)

const defaultDemoDatabasePath = "./demo/demo.db"

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	password := flag.String("password", "demo-password", "password shared by the demo accounts")
	flag.Parse()

	log, err := logging.New(string(config.LogModeDevelopment), "info")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("Generating demo database", "path", *dbPath)

	// Start fresh every time
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatal("Failed to remove existing demo database", "error", err)
	}
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		log.Fatal("Failed to create demo directory", "error", err)
	}

	db, err := database.NewDatabase(config.Database{Driver: config.DriverSQLite, Path: *dbPath, LogLevel: "warn"}, log)
	if err != nil {
		log.Fatal("Failed to create database", "error", err)
	}
	defer db.Close()

	summary, err := demo.Seed(context.Background(), db.DB, *password, 0)
	if err != nil {
		log.Fatal("Failed to seed demo data", "error", err)
	}

	log.Info("Demo database generated",
		"authors", summary.Authors,
		"books", summary.Books,
		"users", summary.Users,
		"reviews", summary.Reviews,
		"admin", demo.AdminEmail,
	)
}
