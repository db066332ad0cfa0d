package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/facette/natsort"
)

// CSV is a table of rows that sorts naturally on its first column, so that
// keys like "cell_2" and "cell_10" come out in numeric order.
type CSV [][]string

func (data CSV) Less(i, j int) bool {
	return natsort.Compare(data[i][0], data[j][0])
}

func (data CSV) Len() int {
	return len(data)
}
func (data CSV) Swap(i, j int) {
	data[i], data[j] = data[j], data[i]
}

// WriteAsCSV sorts the rows and writes them under dir with the given
// header line.
func WriteAsCSV(data CSV, dir, filename string, columns []string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	file, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	defer file.Close()

	sort.Sort(data)
	w := csv.NewWriter(file)
	w.WriteAll([][]string{columns})
	w.WriteAll(data)
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	return nil
}
