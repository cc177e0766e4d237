package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
)

func main() {
	dbURL := flag.String("db", "", "Database URL (or set DATABASE_URL env)")
	seedFile := flag.String("file", "migrations/seed/seed_data.sql", "Path to seed SQL file")
	clean := flag.Bool("clean", false, "Clean existing seed data before seeding")
	flag.Parse()

	databaseURL := *dbURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		fmt.Println("Error: Database URL required. Use -db flag or set DATABASE_URL env")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fmt.Printf("Error pinging database: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Connected to database")

	if *clean {
		if err := cleanDatabase(ctx, db); err != nil {
			fmt.Printf("Error cleaning database: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Cleaned existing seed data")
	}

	seedPath, err := filepath.Abs(*seedFile)
	if err != nil {
		fmt.Printf("Error resolving seed file path: %v\n", err)
		os.Exit(1)
	}

	seedSQL, err := os.ReadFile(seedPath)
	if err != nil {
		fmt.Printf("Error reading seed file %s: %v\n", seedPath, err)
		os.Exit(1)
	}

	fmt.Printf("Executing seed file: %s\n", seedPath)
	if _, err := db.ExecContext(ctx, string(seedSQL)); err != nil {
		fmt.Printf("Error executing seed SQL: %v\n", err)
		os.Exit(1)
	}

	printSummary(ctx, db)
	fmt.Println("\nSeed completed successfully!")
}

func cleanDatabase(ctx context.Context, db *sql.DB) error {
	// Order matters due to foreign key constraints. Only seed rows are
	// removed: the seed uses fixed repeated-digit UUIDs.
	cleanQueries := []string{
		`DELETE FROM webhook_deliveries WHERE webhook_id IN (
			'aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa',
			'bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb',
			'cccccccc-cccc-cccc-cccc-cccccccccccc',
			'dddddddd-dddd-dddd-dddd-dddddddddddd'
		)`,
		`DELETE FROM webhooks WHERE id IN (
			'aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa',
			'bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb',
			'cccccccc-cccc-cccc-cccc-cccccccccccc',
			'dddddddd-dddd-dddd-dddd-dddddddddddd'
		)`,
		`DELETE FROM apps WHERE id IN (
			'11111111-1111-1111-1111-111111111111',
			'22222222-2222-2222-2222-222222222222',
			'33333333-3333-3333-3333-333333333333'
		)`,
	}

	for _, query := range cleanQueries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			fmt.Printf("Warning: %v\n", err)
		}
	}

	return nil
}

func printSummary(ctx context.Context, db *sql.DB) {
	fmt.Println("\n=== Seed Data Summary ===")

	counts := []struct {
		table string
		query string
	}{
		{"Apps", "SELECT COUNT(*) FROM apps"},
		{"Webhooks", "SELECT COUNT(*) FROM webhooks"},
		{"Active webhooks", "SELECT COUNT(*) FROM webhooks WHERE is_active"},
		{"Deliveries", "SELECT COUNT(*) FROM webhook_deliveries"},
	}

	for _, c := range counts {
		var count int
		if err := db.QueryRowContext(ctx, c.query).Scan(&count); err != nil {
			fmt.Printf("  %s: (error: %v)\n", c.table, err)
		} else {
			fmt.Printf("  %s: %d\n", c.table, count)
		}
	}
}
