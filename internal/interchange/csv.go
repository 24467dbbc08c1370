// Package interchange reads and writes a dataset as one flat CSV file per
// table, using the store's column names.
package interchange

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

const TimeLayout = "2006-01-02T15:04:05"

// FileName returns the interchange file of a table.
func FileName(table string) string {
	return table + ".csv"
}

func writeTable(dir, table string, header []string, n int, row func(i int) []string) error {
	path := filepath.Join(dir, FileName(table))
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write %s header: %w", table, err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			f.Close()
			return fmt.Errorf("write %s row %d: %w", table, i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", table, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readTable(dir, table string, header []string) ([][]string, error) {
	path := filepath.Join(dir, FileName(table))
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: missing header", table)
	}
	if !slices.Equal(records[0], header) {
		return nil, fmt.Errorf("read %s: unexpected header %v", table, records[0])
	}
	return records[1:], nil
}
