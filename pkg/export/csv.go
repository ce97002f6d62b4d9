package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/models"
)

var Header = []string{"time", "systolic", "diastolic", "hr"}

// Row renders a record in Header order. Time is written as exported so the
// importing database can parse it with its own time rules.
func Row(rec models.UnifiedRecord) []string {
	return []string{rec.Time, rec.Systolic, rec.Diastolic.String(), rec.HeartRate.String()}
}

func WriteCSV(w io.Writer, records []models.UnifiedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(Row(rec)); err != nil {
			return fmt.Errorf("writing row %s: %w", rec.Time, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes to a temporary file next to path and renames it into
// place, so path is either fully written or left untouched.
func WriteCSVFile(path string, records []models.UnifiedRecord) (err error) {
	path = filepath.Clean(path)
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = WriteCSV(tmp, records); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting output mode: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing output: %w", err)
	}
	return nil
}
