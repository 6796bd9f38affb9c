package recorder

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/internal/snapshot"
)

// WriteCSV writes the selection under the display columns (代码, 名称, 最新, ...)
func WriteCSV(w io.Writer, picks []contracts.ScoredRecord, priceField contracts.Field) error {
	records := make([]contracts.SecurityRecord, len(picks))
	for i := range picks {
		records[i] = picks[i].SecurityRecord
	}
	header, rows := snapshot.Columns(records, priceField)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// ExportCSV writes the selection to path, creating or truncating the file.
// A UTF-8 BOM is prepended so spreadsheet tools detect the Chinese headers.
func ExportCSV(path string, picks []contracts.ScoredRecord, priceField contracts.Field) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString("\ufeff"); err != nil {
		return err
	}
	if err := WriteCSV(f, picks, priceField); err != nil {
		return err
	}
	return f.Close()
}
