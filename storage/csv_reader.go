package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"homely-price-discovery/models"
)

// InputHeader is the exact header a batch CSV must carry.
var InputHeader = []string{"address", "bedrooms", "bathrooms", "carspaces"}

// ReadInputFile opens path and reads batch rows from it.
func ReadInputFile(path string) ([]models.InputRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()
	return ReadInput(f)
}

// ReadInput reads batch rows. Line numbers are those of the source file,
// with the header on line 1.
// Rows are returned unvalidated; see services.Cleaner.
func ReadInput(r io.Reader) ([]models.InputRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv: appears to have no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !equalHeader(header) {
		return nil, fmt.Errorf("csv: header must be exactly %s, found %s",
			strings.Join(InputHeader, ","), strings.Join(header, ", "))
	}

	var rows []models.InputRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, toRow(line, rec))
	}
	return rows, nil
}

// toRow maps a record onto the input columns. Surplus trailing empty fields
// are dropped first. An unquoted address that contains commas still spills
// into extra fields; the last three fields are then the filters and
// everything before them is the address.
func toRow(line int, rec []string) models.InputRow {
	row := models.InputRow{Line: line}
	for len(rec) > len(InputHeader) && strings.TrimSpace(rec[len(rec)-1]) == "" {
		rec = rec[:len(rec)-1]
	}
	if len(rec) > len(InputHeader) {
		split := len(rec) - (len(InputHeader) - 1)
		row.Address = strings.Join(rec[:split], ", ")
		row.Spilled = true
		rec = append([]string{row.Address}, rec[split:]...)
	}
	fields := []*string{&row.Address, &row.Bedrooms, &row.Bathrooms, &row.Carspaces}
	for i := range fields {
		if i < len(rec) {
			*fields[i] = rec[i]
		}
	}
	return row
}

func equalHeader(h []string) bool {
	if len(h) != len(InputHeader) {
		return false
	}
	for i := range h {
		if strings.TrimSpace(h[i]) != InputHeader[i] {
			return false
		}
	}
	return true
}
