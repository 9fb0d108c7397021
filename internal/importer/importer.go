// Package importer reads stamp lists from CSV and Excel files. A list names
// the front-side crops to lay out, optionally with a stamp ID and a number of
// copies. It supports automatic delimiter detection, flexible column mapping,
// and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Entry is one stamp of a list.
type Entry struct {
	ID     string // empty means a generated ID
	Path   string // image file, resolved against the list directory
	Copies int
}

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Entries  []Entry
	Errors   []string
	Warnings []string
}

// Total returns the number of stamps the list expands to.
func (r ImportResult) Total() int {
	n := 0
	for _, e := range r.Entries {
		n += e.Copies
	}
	return n
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	File   int
	ID     int
	Copies int
}

// headerRoles maps each accepted header (lowercase) to its column role.
var headerRoles = map[string]string{
	"file": "file", "path": "file", "image": "file", "filename": "file", "front": "file", "scan": "file",
	"id": "id", "stamp": "id", "stamp id": "id", "label": "id", "name": "id", "catalog": "id", "catalogue": "id",
	"copies": "copies", "quantity": "copies", "qty": "copies", "count": "copies", "pcs": "copies",
}

// delimiters are tried in order; the first one wins ties.
var delimiters = []rune{',', ';', '\t', '|'}

var delimiterNames = map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}

// DetectCSVDelimiter returns the delimiter that splits data into the most
// rows of the same multi-column width, preferring wider rows on a tie.
func DetectCSVDelimiter(data []byte) rune {
	best, bestScore := ',', 0
	for _, delim := range delimiters {
		if score := delimiterScore(data, delim); score > bestScore {
			best, bestScore = delim, score
		}
	}
	return best
}

func delimiterScore(data []byte, delim rune) int {
	records, err := readCSV(bytes.NewReader(data), delim)
	if err != nil || len(records) == 0 {
		return 0
	}
	width := len(records[0])
	if width < 2 {
		return 0
	}
	consistent := 0
	for _, row := range records {
		if len(row) == width {
			consistent++
		}
	}
	return consistent*10 + width
}

func readCSV(r io.Reader, delim rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping File, ID, Copies and false if no header was found. The first
// column claiming a role keeps it.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{File: -1, ID: -1, Copies: -1}
	slots := map[string]*int{"file": &mapping.File, "id": &mapping.ID, "copies": &mapping.Copies}

	isHeader := false
	for i, cell := range row {
		role, ok := headerRoles[strings.ToLower(strings.TrimSpace(cell))]
		if !ok {
			continue
		}
		isHeader = true
		if slot := slots[role]; *slot == -1 {
			*slot = i
		}
	}

	if !isHeader {
		return ColumnMapping{File: 0, ID: 1, Copies: 2}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow extracts an Entry from a row. Relative paths are joined to baseDir.
func parseRow(row []string, mapping ColumnMapping, rowLabel, baseDir string) (Entry, string) {
	file := getCell(row, mapping.File)
	if file == "" {
		return Entry{}, fmt.Sprintf("%s: Missing file value", rowLabel)
	}
	if !filepath.IsAbs(file) && baseDir != "" {
		file = filepath.Join(baseDir, file)
	}

	copies := 1
	if s := getCell(row, mapping.Copies); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Entry{}, fmt.Sprintf("%s: Invalid copies '%s'", rowLabel, s)
		}
		if n <= 0 {
			return Entry{}, fmt.Sprintf("%s: Copies must be positive", rowLabel)
		}
		copies = n
	}

	return Entry{ID: getCell(row, mapping.ID), Path: file, Copies: copies}, ""
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Import dispatches on the file extension: .xlsx and .xls are read as Excel
// workbooks, anything else as CSV.
func Import(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return ImportExcel(path)
	default:
		return ImportCSV(path)
	}
}

// ImportCSV imports a stamp list from a CSV file, detecting the delimiter.
func ImportCSV(path string) ImportResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return failed("Cannot open file: %v", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return failed("File is empty")
	}

	delim := DetectCSVDelimiter(data)
	records, err := readCSV(bytes.NewReader(data), delim)
	if err != nil {
		return failed("Cannot read CSV: %v", err)
	}

	var notes []string
	if name, ok := delimiterNames[delim]; ok {
		notes = append(notes, fmt.Sprintf("Detected %s delimiter", name))
	}
	return importFromRows(records, "Line", filepath.Dir(path), notes)
}

// ImportCSVFromReader imports a stamp list from a CSV reader with a known
// delimiter. Relative paths are resolved against baseDir.
func ImportCSVFromReader(r io.Reader, delim rune, baseDir string) ImportResult {
	records, err := readCSV(r, delim)
	if err != nil {
		return failed("Cannot read CSV: %v", err)
	}
	return importFromRows(records, "Line", baseDir, nil)
}

func failed(format string, args ...any) ImportResult {
	return ImportResult{Errors: []string{fmt.Sprintf(format, args...)}}
}

// ImportExcel imports a stamp list from the first sheet of an Excel file.
func ImportExcel(path string) ImportResult {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return failed("Cannot open Excel file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return failed("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return failed("Cannot read Excel data: %v", err)
	}
	return importFromRows(rows, "Row", filepath.Dir(path), nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix, baseDir string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
		if mapping.File == -1 {
			result.Errors = append(result.Errors, "Required column not found in header: File")
			return result
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		entry, errMsg := parseRow(row, mapping, rowLabel, baseDir)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	return result
}
