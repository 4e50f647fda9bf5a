package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fadedpez/tucocasino/pkg/db/migrations"
)

func main() {
	// Define command-line flags
	upCmd := flag.NewFlagSet("up", flag.ExitOnError)
	downCmd := flag.NewFlagSet("down", flag.ExitOnError)
	statusCmd := flag.NewFlagSet("status", flag.ExitOnError)

	upDB := upCmd.String("db", "data/tucocasino.db", "Path to SQLite database")
	downDB := downCmd.String("db", "data/tucocasino.db", "Path to SQLite database")
	steps := downCmd.Int("steps", 1, "Number of migrations to roll back")
	statusDB := statusCmd.String("db", "data/tucocasino.db", "Path to SQLite database")

	// Show usage if no arguments provided
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var (
		status migrations.Status
		err    error
	)

	// Parse command
	switch os.Args[1] {
	case "up":
		upCmd.Parse(os.Args[2:])
		status, err = migrations.MigrateUp(*upDB)

	case "down":
		downCmd.Parse(os.Args[2:])
		status, err = migrations.MigrateDown(*downDB, *steps)

	case "status":
		statusCmd.Parse(os.Args[2:])
		status, err = migrations.MigrateStatus(*statusDB)

	case "help":
		printUsage()
		return

	default:
		fmt.Printf("Error: Unknown command '%s'\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	printStatus(status)
}

func printStatus(status migrations.Status) {
	if !status.Applied {
		fmt.Println("No migrations have been applied yet")
		return
	}
	state := "clean"
	if status.Dirty {
		state = "dirty"
	}
	fmt.Printf("Current migration version: %d (status: %s)\n", status.Version, state)
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run cmd/migration/main.go up [-db PATH]              - Apply pending migrations")
	fmt.Println("  go run cmd/migration/main.go down [-db PATH] [-steps N] - Roll back migrations")
	fmt.Println("  go run cmd/migration/main.go status [-db PATH]          - Show schema version")
	fmt.Println("  go run cmd/migration/main.go help                       - Show this help")
}
