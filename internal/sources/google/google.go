// Package google reads spend records from a Google Sheets range.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendboard/internal/core"
	"spendboard/internal/ingest"
	"spendboard/internal/sources"
)

// Defaults for the sheet layout.
const (
	DefaultSheetName = "Spend"
	DefaultRange     = "A:J"
)

// Config locates the range to read.
type Config struct {
	SpreadsheetID string
	SheetName     string
	Range         string
}

// A1 returns the range in A1 notation, e.g. "Spend!A:J".
func (c Config) A1() string {
	sheet := strings.TrimSpace(c.SheetName)
	if sheet == "" {
		sheet = DefaultSheetName
	}
	rng := strings.TrimSpace(c.Range)
	if rng == "" {
		rng = DefaultRange
	}
	return fmt.Sprintf("%s!%s", sheet, rng)
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	a1            string
}

// Ensure interface conformance
var _ sources.RecordSource = (*Client)(nil)

// New creates a Sheets client using service account credentials from the
// environment.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, fmt.Errorf("missing GOOGLE_SPREADSHEET_ID: %w", sources.ErrNotConfigured)
	}

	svc, err := newSheetsService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: id, a1: cfg.A1()}, nil
}

// newSheetsService initializes a Sheets Service. Extra options replace the
// credential lookup. Otherwise a user token from sheets-auth is preferred,
// then GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, opts ...goption.ClientOption) (*gsheet.Service, error) {
	if len(opts) > 0 {
		return gsheet.NewService(ctx, opts...)
	}

	userOpts, err := userCredentialOptions(ctx)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "Creating Google Sheets service with user credentials", "token_file", TokenFile())
		return gsheet.NewService(ctx, userOpts...)
	case !errors.Is(err, errNoOAuthClient):
		return nil, fmt.Errorf("user credentials: %w", err)
	}

	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) Name() string { return "sheets:" + c.spreadsheetID }

// Load reads the configured range. The first row is a header.
func (c *Client) Load(ctx context.Context) ([]core.SpendRecord, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.a1).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.a1, err)
	}
	return recordsFromValues(resp.Values), nil
}

// recordsFromValues maps a values matrix, header row first, to records.
func recordsFromValues(values [][]interface{}) []core.SpendRecord {
	if len(values) <= 1 {
		return []core.SpendRecord{}
	}
	rows := make([][]string, 0, len(values)-1)
	for _, row := range values[1:] {
		rows = append(rows, toStrings(row))
	}
	return ingest.FromColumns(rows)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
