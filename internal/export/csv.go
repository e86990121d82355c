package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"ticketscan/internal/domain"
)

// BOM is the UTF-8 byte order mark, written first so Excel on Windows opens
// the file with the right encoding.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes the BOM, the header, and one CSV record per ticket row.
func WriteCSV(w io.Writer, rows []domain.TicketRow) error {
	if _, err := w.Write(BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range rows {
		if err := cw.Write(rowValues(&rows[i])); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
