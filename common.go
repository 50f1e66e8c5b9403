package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/sheets/v4"
)

type Config struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	AccountName  string `toml:"account_name"`

	SpreadsheetID string `toml:"spreadsheet_id"`
	SheetName     string `toml:"sheet_name"`
	DataRange     string `toml:"data_range"`
	CalendarID    string `toml:"calendar_id"`
	Timezone      string `toml:"timezone"`

	ProcessedColumn int    `toml:"processed_column"`
	ProcessedMarker string `toml:"processed_marker"`
	UpdateProcessed bool   `toml:"update_processed"`
	EventIDColumn   int    `toml:"event_id_column"`

	DefaultStartTime     string `toml:"default_start_time"`
	DefaultDurationHours int    `toml:"default_duration_hours"`

	SheetsCallsPerMinute   int `toml:"sheets_calls_per_minute"`
	CalendarCallsPerMinute int `toml:"calendar_calls_per_minute"`

	VerbosityLevel int `toml:"verbosity_level"`
}

var verbosityLevel int
var configDir string

func readConfig(filename string) (*Config, error) {
	// Try first current dir, then `$HOME/.config/sheetcal/`
	data, err := os.ReadFile(filename)
	if err != nil {
		data, err = os.ReadFile(os.Getenv("HOME") + "/.config/sheetcal/" + filename)
		if err != nil {
			return nil, err
		}
		configDir = os.Getenv("HOME") + "/.config/sheetcal/"
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	applyConfigDefaults(&config)
	verbosityLevel = config.VerbosityLevel

	return &config, nil
}

func applyConfigDefaults(config *Config) {
	if config.AccountName == "" {
		config.AccountName = "default"
	}
	if config.DataRange == "" {
		config.DataRange = "A2:V"
	}
	if config.ProcessedColumn == 0 {
		config.ProcessedColumn = int(colProcessed)
	}
	if config.ProcessedMarker == "" {
		config.ProcessedMarker = "V"
	}
	if config.EventIDColumn == 0 {
		config.EventIDColumn = int(colEventID)
	}
	if config.DefaultStartTime == "" {
		config.DefaultStartTime = "17:00"
	}
	if config.DefaultDurationHours == 0 {
		config.DefaultDurationHours = 3
	}
	if config.SheetsCallsPerMinute == 0 {
		config.SheetsCallsPerMinute = 55
	}
	if config.CalendarCallsPerMinute == 0 {
		config.CalendarCallsPerMinute = 300
	}
}

// validateConfig fails fast before any external resource is touched.
// Partial execution with a half-filled config is unsafe.
func validateConfig(config *Config) error {
	if config.SpreadsheetID == "" {
		return fmt.Errorf("config error: spreadsheet_id is required")
	}
	if config.SheetName == "" {
		return fmt.Errorf("config error: sheet_name is required")
	}
	if config.CalendarID == "" {
		return fmt.Errorf("config error: calendar_id is required")
	}
	if config.Timezone == "" {
		return fmt.Errorf("config error: timezone is required")
	}
	if _, err := time.LoadLocation(config.Timezone); err != nil {
		return fmt.Errorf("config error: invalid timezone %q: %w", config.Timezone, err)
	}
	return nil
}

func newOAuthConfig(config *Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes: []string{
			calendar.CalendarScope,
			sheets.SpreadsheetsScope,
		},
	}
}

func openDB(filename string) (*sql.DB, error) {
	// Try first the same dir, where the config file was found
	db, err := sql.Open("sqlite3", configDir+filename)
	if err != nil {
		// Try the current dir
		db, err = sql.Open("sqlite3", filename)
		if err != nil {
			return nil, err
		}
	}
	return db, nil
}

func getTokenFromWeb(config *oauth2.Config) *oauth2.Token {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		log.Fatalf("Unable to read authorization code: %v", err)
	}

	tok, err := config.Exchange(context.TODO(), authCode)
	if err != nil {
		log.Fatalf("Unable to retrieve token from web: %v", err)
	}
	return tok
}

func saveToken(db *sql.DB, accountName string, token *oauth2.Token) error {
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return err
	}

	_, err = db.Exec("INSERT OR REPLACE INTO tokens (account_name, token) VALUES (?, ?)", accountName, tokenJSON)
	return err
}

func getClient(ctx context.Context, oauthConfig *oauth2.Config, db *sql.DB, accountName string) *http.Client {
	var tokenJSON []byte
	err := db.QueryRow("SELECT token FROM tokens WHERE account_name = ?", accountName).Scan(&tokenJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			fmt.Printf("  ❗️ No token found for account %s. Obtaining a new token.\n", accountName)
			token := getTokenFromWeb(oauthConfig)
			saveToken(db, accountName, token)
			return oauthConfig.Client(ctx, token)
		}
		log.Fatalf("Error retrieving token from database: %v", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		log.Fatalf("Error unmarshaling token: %v", err)
	}

	tokenSource := oauthConfig.TokenSource(ctx, &token)
	newToken, err := tokenSource.Token()
	if err != nil {
		fmt.Printf("  ❗️ Token expired or revoked for account %s. Obtaining a new token.\n", accountName)
		newToken = getTokenFromWeb(oauthConfig)
		saveToken(db, accountName, newToken)
		return oauthConfig.Client(ctx, newToken)
	}

	if newToken.AccessToken != token.AccessToken {
		fmt.Printf("Token refreshed for account %s.\n", accountName)
		saveToken(db, accountName, newToken)
	}

	return oauthConfig.Client(ctx, newToken)
}

func printVerbosely(verbosity int, format string, a ...interface{}) {
	// Print only if verbosity is higher than verbosityLevel
	// verbosityLevel is set in the config file
	// 0 - no output, other than critical errors
	// 1 - operation summaries
	// 2 - per-row actions
	// 3 - drift fields and skip reasons
	// 4 - everything, including rate-limiter waits
	if verbosity <= verbosityLevel {
		fmt.Printf(format, a...)
	}
}
