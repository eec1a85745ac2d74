// Package sheets mirrors confirmed stays to a Google Sheet for the people
// who live in spreadsheets. Best-effort: the worker retries, the booking
// flow never waits for it.
package sheets

import (
	"context"
	"fmt"
	"os"

	"roomscout/internal/events"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

const mirrorRange = "Stays!A:J"

type Service struct {
	service       *sheetsv4.Service
	spreadsheetID string
}

// NewService builds a Sheets client from a service-account credentials
// file.
func NewService(ctx context.Context, credentialsFile, spreadsheetID string) (*Service, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheetsv4.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)
	srv, err := sheetsv4.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	return &Service{service: srv, spreadsheetID: spreadsheetID}, nil
}

// TestConnection проверяет доступность таблицы
func (s *Service) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("spreadsheet not reachable: %v", err)
	}
	return nil
}

// AppendStay appends one confirmed stay as a row.
func (s *Service) AppendStay(ctx context.Context, stay *events.StayEventPayload) error {
	row := []interface{}{
		stay.RecordID,
		stay.Kind,
		stay.RoomID,
		stay.CustomerID,
		stay.EmployeeID,
		stay.StartDate,
		stay.EndDate,
		stay.Status,
		stay.HotelName,
		stay.Price,
	}

	values := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	_, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, mirrorRange, values).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append stay row: %v", err)
	}
	return nil
}
