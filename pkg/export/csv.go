package export

import (
	"encoding/csv"
	"fmt"
	"os"
)

// WriteCSV serializes rows to path with the schema's exact header. Row fields
// outside the schema are dropped; schema fields absent from a row serialize
// as empty strings. The file is written to a temporary sibling and renamed
// into place so a failed serialization never leaves a partial artifact at
// path.
func WriteCSV(rows []Row, schema Schema, path string) error {
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	if err := writeAll(f, rows, schema); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename artifact into place: %w", err)
	}

	return nil
}

func writeAll(f *os.File, rows []Row, schema Schema) error {
	w := csv.NewWriter(f)

	if err := w.Write(schema.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(schema.Columns))
	for i, row := range rows {
		for j, col := range schema.Columns {
			record[j] = row[col]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}
