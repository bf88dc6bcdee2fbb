package workflow

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/lumeray/royalty_backend/utils"
)

// Distributor statement layout (1-based spreadsheet columns):
// column 7 artist, column 9 album, column 14 amount. A data row must carry
// at least 14 cells; row 1 is the header.
const (
	reportColArtist    = 6
	reportColAlbum     = 8
	reportColAmount    = 13
	reportMinColumns   = 14
	reportFirstDataRow = 2
)

func openReportSheet(fileBytes []byte) (*excelize.File, string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open report file: %v", err)
	}
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		f.Close()
		return nil, "", fmt.Errorf("report file has no active sheet")
	}
	return f, sheet, nil
}

// CountReportRows scans the file once and counts data rows: at least 14
// cells and a non-empty artist cell. This is the upload-time row estimate
// that sizes the chunk plan.
func CountReportRows(fileBytes []byte) (int, error) {
	f, sheet, err := openReportSheet(fileBytes)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	rows, err := f.Rows(sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet %q: %v", sheet, err)
	}
	defer rows.Close()

	total := 0
	rowIdx := 0
	for rows.Next() {
		rowIdx++
		if rowIdx < reportFirstDataRow {
			continue
		}
		cols, err := rows.Columns()
		if err != nil {
			return 0, err
		}
		if len(cols) >= reportMinColumns && cols[reportColArtist] != "" {
			total++
		}
	}
	return total, rows.Error()
}

// ParseReportAmount parses a royalty amount cell tolerantly: spaces are
// thousands separators, comma is the decimal separator. Unparseable input
// yields zero rather than an error; a malformed cell must never abort a
// chunk.
func ParseReportAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, ",", ".")
	dec, err := utils.ParseDecimal(s)
	if err != nil {
		return decimal.Zero
	}
	return dec
}
