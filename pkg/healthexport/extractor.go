package healthexport

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/logger"
	"github.com/MtnBiker/convert-apple-health-export/pkg/common/models"
)

const recordElement = "Record"

var ErrEmptyInput = errors.New("export document is empty")

// Streams are the raw entries of each kind, in document order.
type Streams struct {
	Systolic         []models.RawEntry
	Diastolic        []models.RawEntry
	RestingHeartRate []models.RawEntry
	HeartRate        []models.RawEntry
}

func (s *Streams) add(kind Kind, entry models.RawEntry) {
	switch kind {
	case KindSystolic:
		s.Systolic = append(s.Systolic, entry)
	case KindDiastolic:
		s.Diastolic = append(s.Diastolic, entry)
	case KindRestingHeartRate:
		s.RestingHeartRate = append(s.RestingHeartRate, entry)
	case KindHeartRate:
		s.HeartRate = append(s.HeartRate, entry)
	}
}

func (s Streams) Len() int {
	return len(s.Systolic) + len(s.Diastolic) + len(s.RestingHeartRate) + len(s.HeartRate)
}

// ExtractFile opens path and extracts its streams. The file is closed before
// returning.
func ExtractFile(path string, cat Catalog) (Streams, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Streams{}, fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	return Extract(f, cat)
}

// Extract selects every Record element, at any depth, whose type attribute
// contains one of the catalog identifiers.
func Extract(r io.Reader, cat Catalog) (Streams, error) {
	if len(cat.Identifiers) == 0 || len(cat.kinds) != len(cat.Identifiers) {
		if err := cat.Validate(); err != nil {
			return Streams{}, err
		}
	}

	var streams Streams
	decoder := xml.NewDecoder(r)
	sawElement := false
	skipped := 0

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Streams{}, fmt.Errorf("parsing export: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawElement = true
		if start.Name.Local != recordElement {
			continue
		}

		entry := make(models.RawEntry, len(start.Attr))
		for _, attr := range start.Attr {
			entry[attr.Name.Local] = attr.Value
		}

		kind := cat.Classify(entry[models.AttrType])
		if kind == KindUnknown {
			skipped++
			continue
		}
		streams.add(kind, entry)
	}

	if !sawElement {
		return Streams{}, ErrEmptyInput
	}

	logger.WithFields(map[string]interface{}{
		"systolic":           len(streams.Systolic),
		"diastolic":          len(streams.Diastolic),
		"resting_heart_rate": len(streams.RestingHeartRate),
		"heart_rate":         len(streams.HeartRate),
		"skipped":            skipped,
	}).Debug("Extracted export records")

	return streams, nil
}
