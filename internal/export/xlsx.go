package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"ticketscan/internal/domain"
)

// WriteXLSX writes the header and one row per ticket to w as an xlsx
// workbook. sheetName defaults to "Tickets" when empty.
func WriteXLSX(w io.Writer, sheetName string, rows []domain.TicketRow) error {
	if sheetName == "" {
		sheetName = "Tickets"
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range rows {
		vals := rowValues(&rows[i])
		cells := make([]interface{}, len(vals))
		for j, v := range vals {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
