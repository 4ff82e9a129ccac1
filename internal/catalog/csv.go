package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"backlog/internal/fileutil"
)

// headerAliases maps lowercased header spellings onto canonical columns.
var headerAliases = map[string]string{
	"game":         ColumnGame,
	"game title":   ColumnGame,
	"title":        ColumnGame,
	"platform":     ColumnPlatform,
	"year":         ColumnYear,
	"genre":        ColumnGenre,
	"game id":      ColumnGameID,
	"time to beat": ColumnTimeToBeat,
	"main story":   ColumnTimeToBeat,
	"score":        ColumnScore,
	"status":       ColumnStatus,
}

// ErrMissingHeader is returned when the input has no usable header row.
var ErrMissingHeader = errors.New("catalog: header row with a Game column is required")

// Read parses CSV catalog rows from r. Columns are matched by header name so
// their order is free; absent columns read as empty values.
func Read(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		column, ok := headerAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, seen := index[column]; !seen {
			index[column] = i
		}
	}
	if _, ok := index[ColumnGame]; !ok {
		return nil, ErrMissingHeader
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		field := func(column string) string {
			i, ok := index[column]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		if strings.TrimSpace(field(ColumnGame)) == "" {
			continue
		}
		records = append(records, Record{
			Name:          field(ColumnGame),
			Platform:      field(ColumnPlatform),
			Year:          field(ColumnYear),
			Genre:         field(ColumnGenre),
			ExternalID:    field(ColumnGameID),
			DurationHours: field(ColumnTimeToBeat),
			Score:         field(ColumnScore),
			Status:        field(ColumnStatus),
		})
	}
	return records, nil
}

// Write renders records with the canonical header row.
func Write(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		if err := writer.Write(rec.row()); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadFile reads a catalog from path.
func ReadFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer file.Close()

	records, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return records, nil
}

// WriteFile atomically replaces path with the rendered catalog.
func WriteFile(path string, records []Record) error {
	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write catalog %s: %w", path, err)
	}
	return nil
}
