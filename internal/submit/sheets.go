package submit

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSink appends judgment rows to a Google Sheets worksheet using a
// service account, the store the original collection runs fed.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
}

// NewSheetsSink authenticates with the service-account key file at
// credentialsPath and targets the given spreadsheet and worksheet.
func NewSheetsSink(ctx context.Context, credentialsPath, spreadsheetID, worksheet string) (*SheetsSink, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet ID is required")
	}
	if worksheet == "" {
		return nil, fmt.Errorf("sheets: worksheet name is required")
	}

	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("sheets: reading credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets: parsing service account credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("sheets: creating client: %w", err)
	}

	return &SheetsSink{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
	}, nil
}

// Append sends all rows in one values.append call. The Sheets API applies
// an append atomically, so a failed call leaves the worksheet untouched
// and the submission can be retried as-is.
func (s *SheetsSink) Append(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = row.Values()
	}

	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.worksheet, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: appending %d rows: %w", len(rows), err)
	}
	return nil
}
