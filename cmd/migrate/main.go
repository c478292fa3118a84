package main

import (
	"context"
	"fmt"
	"os"

	"github.com/imovlocal/backend/internal/config"
	"github.com/imovlocal/backend/internal/repository/postgres"
	"github.com/imovlocal/backend/migrations"
)

const usage = "usage: migrate [up|status]"

func main() {
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	if cmd != "up" && cmd != "status" {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Connect to database
	db, err := postgres.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Connected to %s database\n", db.Driver())

	ctx := context.Background()

	if cmd == "status" {
		pending, err := postgres.PendingMigrations(ctx, db, migrations.GetFS())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to check migration status: %v\n", err)
			os.Exit(1)
		}
		if len(pending) == 0 {
			fmt.Println("Database is up to date")
			return
		}
		for _, name := range pending {
			fmt.Printf("Pending: %s\n", name)
		}
		return
	}

	applied, err := postgres.RunMigrations(ctx, db, migrations.GetFS())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}
	if len(applied) == 0 {
		fmt.Println("No pending migrations")
		return
	}
	for _, name := range applied {
		fmt.Printf("✓ Migration %s completed successfully\n", name)
	}
	fmt.Println("\nAll migrations completed successfully!")
}
