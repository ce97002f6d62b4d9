package correlation

import "github.com/MtnBiker/convert-apple-health-export/pkg/common/models"

const (
	// DefaultPrefixLength is how many leading characters of a creationDate
	// identify "the same moment". In the export's "2006-01-02 15:04:05 -0700"
	// layout that is the date, the hour and the tens digit of the minute.
	DefaultPrefixLength = 15

	// MinutePrefixLength compares down to the whole minute.
	MinutePrefixLength = 16
)

// TimePrefix returns the first n characters of ts, or all of ts when it is
// shorter.
func TimePrefix(ts string, n int) string {
	count := 0
	for i := range ts {
		if count == n {
			return ts[:i]
		}
		count++
	}
	return ts
}

// prefixIndex maps a time prefix to the first entry carrying it. Keeping
// only the first entry gives the same answer as scanning the stream in order.
type prefixIndex struct {
	length  int
	entries map[string]models.RawEntry
}

func newPrefixIndex(entries []models.RawEntry, length int) prefixIndex {
	idx := prefixIndex{length: length, entries: make(map[string]models.RawEntry, len(entries))}
	for _, entry := range entries {
		key := TimePrefix(entry.CreationDate(), length)
		if _, ok := idx.entries[key]; !ok {
			idx.entries[key] = entry
		}
	}
	return idx
}

func (idx prefixIndex) match(creationDate string) models.Reading {
	entry, ok := idx.entries[TimePrefix(creationDate, idx.length)]
	if !ok {
		return models.Absent()
	}
	return models.Present(entry.Value())
}
