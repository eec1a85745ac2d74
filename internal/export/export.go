// Package export writes a customer's logged stays to an Excel workbook.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"roomscout/internal/history"

	"github.com/xuri/excelize/v2"
)

var headerRow = []string{"ID", "Type", "Room", "Hotel", "Check-in", "Check-out", "Status", "Price/night"}

// CustomerStays renders the customer's bookings and rentings into an xlsx
// file under dir and returns its path.
func CustomerStays(ctx context.Context, db *history.DB, dir string, customerID int64) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	stays, err := db.StaysByCustomer(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("error getting stays: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, "Bookings", filterKind(stays, "booking")); err != nil {
		return "", err
	}
	if err := writeSheet(f, "Rentings", filterKind(stays, "renting")); err != nil {
		return "", err
	}

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("customer_%d_stays_%s.xlsx", customerID, time.Now().Format("2006-01-02"))
	filePath := filepath.Join(dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}
	return filePath, nil
}

func writeSheet(f *excelize.File, sheetName string, stays []history.Stay) error {
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for col, title := range headerRow {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheetName, cell, title)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, stay := range stays {
		row := i + 2
		values := []interface{}{
			stay.RecordID,
			stay.Kind,
			stay.RoomID,
			stay.HotelName,
			stay.StartDate.String(),
			stay.EndDate.String(),
			stay.Status,
			stay.Price,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "H", 16)
	return nil
}

func filterKind(stays []history.Stay, kind string) []history.Stay {
	var out []history.Stay
	for _, s := range stays {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}
