package correlation

import (
	"sort"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/models"
)

type Correlator struct {
	prefixLength int
}

type Option func(*Correlator)

// WithPrefixLength changes how many leading creationDate characters two
// readings must share to be matched. Non-positive values are ignored.
func WithPrefixLength(n int) Option {
	return func(c *Correlator) {
		if n > 0 {
			c.prefixLength = n
		}
	}
}

func NewCorrelator(opts ...Option) *Correlator {
	c := &Correlator{prefixLength: DefaultPrefixLength}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Correlate runs the default Correlator.
func Correlate(systolic, diastolic, restingHR, hr []models.RawEntry) []models.UnifiedRecord {
	return NewCorrelator().Correlate(systolic, diastolic, restingHR, hr)
}

// Correlate builds one record per systolic entry, filling the other fields
// from the first entry of each stream sharing the systolic time prefix.
// Records are then deduplicated by Time, first one kept, and sorted by Time.
func (c *Correlator) Correlate(systolic, diastolic, restingHR, hr []models.RawEntry) []models.UnifiedRecord {
	return dedupAndSort(c.join(systolic, diastolic, restingHR, hr))
}

func (c *Correlator) join(systolic, diastolic, restingHR, hr []models.RawEntry) []models.UnifiedRecord {
	diastolicIdx := newPrefixIndex(diastolic, c.prefixLength)
	restingIdx := newPrefixIndex(restingHR, c.prefixLength)
	heartIdx := newPrefixIndex(hr, c.prefixLength)

	records := make([]models.UnifiedRecord, 0, len(systolic))
	for _, s := range systolic {
		date := s.CreationDate()
		records = append(records, models.UnifiedRecord{
			Systolic:   s.Value(),
			Diastolic:  diastolicIdx.match(date),
			HeartRate:  resolveHeartRate(heartIdx.match(date), restingIdx.match(date)),
			Time:       date,
			Attributes: s,
		})
	}
	return records
}

func dedupAndSort(records []models.UnifiedRecord) []models.UnifiedRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.UnifiedRecord, 0, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.Time]; dup {
			continue
		}
		seen[rec.Time] = struct{}{}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	return out
}

// Summarize counts how many records found a diastolic and heart-rate match.
// systolicCount is the number of systolic entries that were correlated.
func Summarize(records []models.UnifiedRecord, systolicCount int) models.CorrelationStat {
	stat := models.CorrelationStat{
		Records:           len(records),
		DuplicatesDropped: systolicCount - len(records),
	}
	for _, rec := range records {
		if rec.Diastolic.Present {
			stat.DiastolicMatched++
		}
		if rec.HeartRate.Present {
			stat.HeartRateMatched++
		}
	}
	return stat
}
