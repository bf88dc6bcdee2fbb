package workflow

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildReportFile writes an in-memory xlsx in the distributor statement
// layout used by the tests.
func buildReportFile(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name (%d,%d): %v", j+1, i+1, err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set cell %s: %v", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	return buf.Bytes()
}

// reportRow produces a full-width data row with artist, album and amount in
// the statement's columns.
func reportRow(artist, album, amount string) []interface{} {
	row := make([]interface{}, reportMinColumns)
	for i := range row {
		row[i] = ""
	}
	row[0] = "statement"
	row[reportColArtist] = artist
	row[reportColAlbum] = album
	row[reportColAmount] = amount
	return row
}

func reportHeader() []interface{} {
	header := make([]interface{}, reportMinColumns)
	for i := range header {
		header[i] = "h"
	}
	return header
}

func TestCountReportRows(t *testing.T) {
	file := buildReportFile(t, [][]interface{}{
		reportHeader(),
		reportRow("DJ Orange", "Midnight Drive", "10"),
		{"too", "short", "row"},
		reportRow("", "No Artist Album", "5"),
		reportRow("Люмен", "Свет", "7,5"),
	})

	total, err := CountReportRows(file)
	if err != nil {
		t.Fatalf("CountReportRows error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 data rows, got %d", total)
	}
}

func TestCountReportRows_InvalidFile(t *testing.T) {
	if _, err := CountReportRows([]byte("not a spreadsheet")); err == nil {
		t.Fatal("expected error for invalid file bytes")
	}
}

func TestParseReportAmount(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"1 234,50", "1234.5"},
		{"1234.50", "1234.5"},
		{"100", "100"},
		{"-20,25", "-20.25"},
		{"10 000 000,01", "10000000.01"},
		{"", "0"},
		{"   ", "0"},
		{"n/a", "0"},
		{"12,34,56", "0"},
	}
	for _, tc := range cases {
		got := ParseReportAmount(tc.in)
		if got.String() != tc.expected {
			t.Fatalf("ParseReportAmount(%q) expected %s, got %s", tc.in, tc.expected, got.String())
		}
	}
}
