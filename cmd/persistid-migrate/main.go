package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	// Only lib/pq is imported here. The sqlite driver comes from
	// golang-migrate/migrate/v4/database/sqlite via modernc.org/sqlite.
	_ "github.com/lib/pq"

	"github.com/hashicorp-forge/persistid/internal/migrate"
)

func main() {
	driver := flag.String("driver", migrate.DriverPostgres, "Database driver (postgres|sqlite)")
	dsn := flag.String("dsn", "", "Database connection string")
	rollback := flag.Int("rollback", 0, "Revert this many migration steps instead of migrating up")
	showVersion := flag.Bool("version", false, "Print the current schema version and exit")
	help := flag.Bool("help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Persistent Identifier Schema Migration Tool\n\n")
		fmt.Fprintf(os.Stderr, "Applies the identifier schema (objects, native and external identifiers,\n")
		fmt.Fprintf(os.Stderr, "handle sequences, event outbox) to PostgreSQL or SQLite.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n\n")
		fmt.Fprintf(os.Stderr, "  PostgreSQL:\n")
		fmt.Fprintf(os.Stderr, "    %s -driver=postgres -dsn=\"host=localhost user=postgres password=postgres dbname=persistid port=5432 sslmode=disable\"\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  SQLite:\n")
		fmt.Fprintf(os.Stderr, "    %s -driver=sqlite -dsn=\".persistid/persistid.db\"\n\n", os.Args[0])
	}

	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}

	if *dsn == "" {
		log.Fatal("Error: -dsn flag is required\n\nRun with -help for usage information.")
	}

	if *driver != migrate.DriverPostgres && *driver != migrate.DriverSQLite {
		log.Fatalf("Error: unsupported driver '%s' (must be 'postgres' or 'sqlite')\n", *driver)
	}

	log.Printf("Connecting to %s database...\n", *driver)
	sqlDB, err := sql.Open(*driver, *dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v\n", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v\n", err)
	}
	log.Printf("Connected to database\n")

	switch {
	case *showVersion:
		// Handled after the switch.
	case *rollback > 0:
		log.Printf("Reverting %d migration step(s)...\n", *rollback)
		if err := migrate.RollbackMigrations(sqlDB, *driver, *rollback); err != nil {
			log.Fatalf("Rollback failed: %v\n", err)
		}
	default:
		log.Printf("Running migrations...\n")
		if err := migrate.RunMigrations(sqlDB, *driver); err != nil {
			log.Fatalf("Migration failed: %v\n", err)
		}
	}

	version, dirty, err := migrate.GetMigrationVersion(sqlDB, *driver)
	if err != nil {
		log.Fatalf("Failed to read schema version: %v\n", err)
	}
	log.Printf("Schema version %d (dirty=%t)\n", version, dirty)
}
