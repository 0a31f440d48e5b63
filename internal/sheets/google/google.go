// Package google mirrors work records to a Google Sheet. The sheet holds one
// record per row in the same column layout as the CSV export, with the record
// id in column A so rows can be found again for deletion.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"driverlog/internal/core"
	"driverlog/internal/ledger"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	recordsSheet  string
}

// Ensure interface conformance
var (
	_ ledger.RecordWriter  = (*Client)(nil)
	_ ledger.RecordDeleter = (*Client)(nil)
	_ ledger.RecordLister  = (*Client)(nil)
)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Records"); the current year is
// prefixed automatically.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetBase := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetBase == "" {
		sheetBase = "Records"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		recordsSheet:  yearPrefixedName(sheetBase, time.Now().Year()),
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// Append implements ledger.RecordWriter. Columns:
// A id, B date, C mode, D route ids, E parcels, F collections, G total.
func (c *Client) Append(ctx context.Context, rec core.WorkRecord) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:A", c.recordsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", c.recordsSheet, err)
	}
	nextRow := len(resp.Values) + 1

	meta := rec.Meta()
	dataRange := fmt.Sprintf("%s!A%d:G%d", c.recordsSheet, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{{
		meta.ID,
		meta.Date.ISO(),
		string(rec.Mode()),
		routeIDsCell(rec),
		rec.Parcels(),
		collectionsCell(rec),
		float64(meta.Total.Cents) / 100.0,
	}}}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", dataRange, err)
	}

	return dataRange, nil
}

// Delete implements ledger.RecordDeleter. The row is located by record id in
// column A and removed from the sheet.
func (c *Client) Delete(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rowIndex, err := c.findRowByID(ctx, id)
	if err != nil {
		return err
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowIndex),
					EndIndex:   int64(rowIndex + 1),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row for record %s: %w", id, err)
	}

	return nil
}

// ListRecords implements ledger.RecordLister by scanning the records sheet.
// Parsing is best-effort; malformed rows are skipped.
func (c *Client) ListRecords(ctx context.Context) ([]core.WorkRecord, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:G", c.recordsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	var out []core.WorkRecord
	for _, row := range resp.Values {
		rec, err := parseRow(toStrings(row))
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Client) findRowByID(ctx context.Context, id string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.recordsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	for i, row := range resp.Values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("record %s not found in sheet %s", id, c.recordsSheet)
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet metadata: %w", err)
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == c.recordsSheet {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %s not found", c.recordsSheet)
}

func routeIDsCell(rec core.WorkRecord) string {
	switch v := rec.(type) {
	case core.StandardRecord:
		return v.RouteID
	case core.DailyRateRecord:
		return strings.Join(v.RouteIDs, " + ")
	default:
		return ""
	}
}

func collectionsCell(rec core.WorkRecord) string {
	if v, ok := rec.(core.StandardRecord); ok {
		return strconv.Itoa(v.CollectionCount)
	}
	return "-"
}

// parseRow turns a sheet row back into a record. The inverse of Append.
func parseRow(cols []string) (core.WorkRecord, error) {
	if len(cols) < 5 {
		return nil, errors.New("short row")
	}
	id := strings.TrimSpace(cols[0])
	if id == "" {
		return nil, errors.New("missing id")
	}
	date, err := core.ParseDate(cols[1])
	if err != nil {
		return nil, err
	}
	parcels := core.ParseCount(cols[4])

	switch core.Mode(strings.TrimSpace(cols[2])) {
	case core.ModeStandard:
		collections := 0
		if len(cols) >= 6 {
			collections = core.ParseCount(cols[5])
		}
		return core.NewStandardRecord(id, date, cols[3], parcels, collections, nil, date.Time)
	case core.ModeDailyRate:
		routeIDs := strings.Split(cols[3], " + ")
		return core.NewDailyRateRecord(id, date, routeIDs, parcels, nil, date.Time)
	default:
		return nil, fmt.Errorf("unknown mode %q", cols[2])
	}
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
