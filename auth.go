package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"
)

// authAccount runs the interactive OAuth bootstrap for the configured
// account and stores the token in the database for later runs.
func authAccount(ctx context.Context, config *Config, db *sql.DB) {
	fmt.Printf("🚀 Starting authorization for account %s...\n", config.AccountName)

	oauthConfig := newOAuthConfig(config)
	token := getTokenFromWeb(oauthConfig)
	if err := saveToken(db, config.AccountName, token); err != nil {
		log.Fatalf("Error saving token: %v", err)
	}

	// Verify the token actually reaches both APIs before declaring victory.
	client := oauthConfig.Client(ctx, token)
	dispatcher := NewDispatcher(config)

	cal, err := NewGoogleCalendar(ctx, client, dispatcher)
	if err != nil {
		log.Fatalf("Error creating calendar client: %v", err)
	}
	now := time.Now()
	if _, err := cal.ListEvents(ctx, config.CalendarID, now, now.Add(time.Hour)); err != nil {
		log.Fatalf("Error accessing calendar %s: %v", config.CalendarID, err)
	}

	sheetsClient, err := NewGoogleSheets(ctx, client, dispatcher)
	if err != nil {
		log.Fatalf("Error creating sheets client: %v", err)
	}
	if _, err := sheetsClient.GetValues(ctx, config.SpreadsheetID, config.SheetName, "A1:A1"); err != nil {
		log.Fatalf("Error accessing spreadsheet %s: %v", config.SpreadsheetID, err)
	}

	fmt.Printf("✅ Account %s authorized for calendar %s and spreadsheet %s\n",
		config.AccountName, config.CalendarID, config.SpreadsheetID)
}
