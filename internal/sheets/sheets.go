// Package sheets appends journal records to a Google Sheets worksheet.
package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	apperrors "github.com/applygate/applybot/internal/errors"
	"github.com/applygate/applybot/internal/journal"
)

var headerRow = []interface{}{"Name", "Username", "Batch", "Date", "Time"}

// Sink appends records to one worksheet of a spreadsheet.
type Sink struct {
	svc           *sheetsv4.Service
	spreadsheetID string
	worksheet     string
	log           *slog.Logger
}

// NewSink authenticates with the provided service account key and returns a
// Sink bound to the given spreadsheet and worksheet.
func NewSink(ctx context.Context, credentials []byte, spreadsheetID, worksheet string, log *slog.Logger) (*Sink, error) {
	if log == nil {
		log = slog.Default()
	}

	svc, err := sheetsv4.NewService(ctx,
		option.WithCredentialsJSON(credentials),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Sink{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		log:           log,
	}, nil
}

// Bootstrap ensures the worksheet exists and carries the header row. Header
// write failures are logged but tolerated; the sheet still accepts appends.
func (s *Sink) Bootstrap(ctx context.Context) error {
	spreadsheet, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("open spreadsheet %s: %w", s.spreadsheetID, err)
	}

	found := false
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == s.worksheet {
			found = true
			break
		}
	}

	if !found {
		req := &sheetsv4.BatchUpdateSpreadsheetRequest{
			Requests: []*sheetsv4.Request{{
				AddSheet: &sheetsv4.AddSheetRequest{
					Properties: &sheetsv4.SheetProperties{Title: s.worksheet},
				},
			}},
		}
		if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add worksheet %s: %w", s.worksheet, err)
		}
	}

	header := &sheetsv4.ValueRange{Values: [][]interface{}{headerRow}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.headerRange(), header).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		s.log.Warn("could not set header row", slog.String("worksheet", s.worksheet), slog.Any("error", err))
	}

	return nil
}

// Append adds the record as a new row at the bottom of the worksheet.
func (s *Sink) Append(ctx context.Context, rec journal.Record) error {
	row := make([]interface{}, 0, 5)
	for _, field := range rec.Row() {
		row = append(row, field)
	}

	values := &sheetsv4.ValueRange{Values: [][]interface{}{row}}

	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.headerRange(), values).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return apperrors.NewSinkError("sheet", err)
	}

	return nil
}

func (s *Sink) headerRange() string {
	return fmt.Sprintf("%s!A1:E1", s.worksheet)
}
