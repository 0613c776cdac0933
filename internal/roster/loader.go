// Package roster parses official attendee lists from two-column
// (name, phone) spreadsheet uploads.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/accordlabs/checkin/internal/event"
)

// Load parses a roster upload, picking the parser from the file name
// extension (.csv or .xlsx). The header row is skipped, rows missing a
// name or phone are dropped, and the result is validated: at least one
// valid data row, and no two rows may share the same (name, phone)
// identity, since such entries could never be told apart at registration.
func Load(r io.Reader, filename string) ([]event.RosterEntry, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return LoadCSV(r)
	case ".xlsx", ".xlsm":
		return LoadXLSX(r)
	default:
		return nil, fmt.Errorf("unsupported roster file %q: %w", filename, event.ErrInvalidUploadFormat)
	}
}

// LoadCSV parses a two-column CSV roster.
func LoadCSV(r io.Reader) ([]event.RosterEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are dropped below, not fatal

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, record)
	}
	return fromRows(rows)
}

// LoadXLSX parses the first sheet of an Excel workbook.
func LoadXLSX(r io.Reader) ([]event.RosterEntry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("error reading workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("error reading worksheet: %w", err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) ([]event.RosterEntry, error) {
	// A valid upload has a header row plus at least one data row.
	if len(rows) < 2 {
		return nil, fmt.Errorf("roster needs a header row and at least one data row: %w", event.ErrInvalidUploadFormat)
	}

	seen := make(map[string]struct{})
	var entries []event.RosterEntry
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		name := strings.TrimSpace(row[0])
		phone := strings.TrimSpace(row[1])
		if name == "" || phone == "" {
			continue
		}
		key := strings.ToLower(name) + "\x00" + phone
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate roster row for %s (%s): %w", name, phone, event.ErrInvalidUploadFormat)
		}
		seen[key] = struct{}{}
		entries = append(entries, event.RosterEntry{Name: name, Phone: phone})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no valid (name, phone) rows found: %w", event.ErrInvalidUploadFormat)
	}
	return entries, nil
}
