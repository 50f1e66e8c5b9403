package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: sheetcal (auth|scan|drift|update-all|reprocess|scan-month|delete-month|delete-rows|logs|serve)")
		os.Exit(1)
	}

	config, err := readConfig(".sheetcal.toml")
	if err != nil {
		// Try reading from the home directory
		config, err = readConfig(os.Getenv("HOME") + "/" + ".sheetcal.toml")
		if err != nil {
			log.Fatalf("Error reading config file: %v", err)
		}
	}

	db, err := openDB(".sheetcal.db")
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()
	if err := dbInit(db); err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	ctx := context.Background()
	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		if err := validateConfig(config); err != nil {
			log.Fatalf("%v", err)
		}
		authAccount(ctx, config, db)
		return
	case "logs":
		printLogs(NewLogStore(db), config.AccountName, args)
		return
	}

	reconciler, err := buildReconciler(ctx, config, db)
	if err != nil {
		log.Fatalf("%v", err)
	}

	switch command {
	case "scan":
		exitWith(reconciler.ManualScanNextRow(ctx))
	case "drift":
		exitWith(reconciler.FullDriftScan(ctx, hasFlag(args, "--all")))
	case "update-all":
		exitWith(reconciler.FullDriftScan(ctx, true))
	case "reprocess":
		exitWith(reconciler.ReprocessRows(ctx, parseIndices(args)))
	case "scan-month":
		month, year := parseMonthYear(args)
		exitWith(reconciler.ScanMonth(ctx, month, year))
	case "delete-month":
		month, year := parseMonthYear(args)
		exitWith(reconciler.DeleteMonth(ctx, month, year))
	case "delete-rows":
		exitWith(reconciler.DeleteSelectedRows(ctx, parseIndices(args)))
	case "serve":
		serve(ctx, reconciler)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func buildReconciler(ctx context.Context, config *Config, db *sql.DB) (*Reconciler, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	oauthConfig := newOAuthConfig(config)
	client := getClient(ctx, oauthConfig, db, config.AccountName)
	dispatcher := NewDispatcher(config)

	cal, err := NewGoogleCalendar(ctx, client, dispatcher)
	if err != nil {
		return nil, err
	}
	sheetsClient, err := NewGoogleSheets(ctx, client, dispatcher)
	if err != nil {
		return nil, err
	}

	return NewReconciler(config, sheetsClient, cal, NewTrackingStore(db), NewLogStore(db))
}

func exitWith(result *Result) {
	if result.Success {
		fmt.Printf("✅ %s\n", result.Message)
		if result.Stats != nil && len(result.Stats.Errors) > 0 {
			for _, e := range result.Stats.Errors {
				fmt.Printf("  ⚠️ %s\n", e)
			}
		}
		return
	}
	fmt.Printf("❌ %s\n", result.Message)
	os.Exit(1)
}

func printLogs(logs *LogStore, userID string, args []string) {
	limit := 20
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			limit = n
		}
	}
	entries, err := logs.Recent(userID, limit)
	if err != nil {
		log.Fatalf("Error reading logs: %v", err)
	}
	fmt.Printf("📋 Last %d operations:\n", len(entries))
	for _, entry := range entries {
		line := fmt.Sprintf("  %s %-12s rows=%d", entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Operation, entry.RowsAffected)
		if len(entry.Errors) > 0 {
			line += fmt.Sprintf(" errors=%d", len(entry.Errors))
		}
		fmt.Println(line)
	}
}

func parseIndices(args []string) []RowIndex {
	var indices []RowIndex
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				log.Fatalf("Invalid row index: %s", part)
			}
			indices = append(indices, RowIndex(n))
		}
	}
	return indices
}

func parseMonthYear(args []string) (int, int) {
	if len(args) < 2 {
		log.Fatalf("Usage: sheetcal <command> <month> <year>")
	}
	month, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("Invalid month: %s", args[0])
	}
	year, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatalf("Invalid year: %s", args[1])
	}
	return month, year
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}
