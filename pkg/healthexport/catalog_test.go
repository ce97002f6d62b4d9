package healthexport

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogClassify(t *testing.T) {
	cat := DefaultCatalog()

	tests := map[string]Kind{
		"HKQuantityTypeIdentifierBloodPressureSystolic":  KindSystolic,
		"HKQuantityTypeIdentifierBloodPressureDiastolic": KindDiastolic,
		"HKQuantityTypeIdentifierRestingHeartRate":       KindRestingHeartRate,
		"HKQuantityTypeIdentifierHeartRate":              KindHeartRate,
		"HKQuantityTypeIdentifierHeartRateVariability":   KindHeartRate,
		"HKQuantityTypeIdentifierStepCount":              KindUnknown,
	}
	for recordType, want := range tests {
		assert.Equal(t, want, cat.Classify(recordType), recordType)
	}
	assert.Equal(t, KindUnknown, cat.Classify(""))
}

func TestParseCatalog(t *testing.T) {
	content := []byte(`
identifiers:
  - kind: systolic
    identifier: BPSys
  - kind: diastolic
    identifier: BPDia
  - kind: resting_heart_rate
    identifier: RestHR
  - kind: heart_rate
    identifier: Pulse
`)
	cat, err := ParseCatalog(content)
	require.NoError(t, err)
	assert.Equal(t, KindSystolic, cat.Classify("vendor.BPSys.v2"))
	assert.Equal(t, KindHeartRate, cat.Classify("Pulse"))
}

func TestParseCatalogRejectsOverlap(t *testing.T) {
	tests := map[string]string{
		"substring": `
identifiers:
  - kind: resting_heart_rate
    identifier: RestingHeartRate
  - kind: heart_rate
    identifier: HeartRate
`,
		"unknown kind": `
identifiers:
  - kind: weight
    identifier: Weight
`,
		"duplicate kind": `
identifiers:
  - kind: systolic
    identifier: A
  - kind: systolic
    identifier: B
`,
		"empty identifier": `
identifiers:
  - kind: systolic
    identifier: ""
`,
		"empty": `identifiers: []`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(content))
			assert.True(t, errors.Is(err, ErrInvalidCatalog), "got %v", err)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Len(t, cat.Identifiers, 4)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("identifiers:\n  - kind: systolic\n    identifier: Sys\n"), 0o600))
	cat, err = LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, KindSystolic, cat.Classify("Sys"))

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "resting_heart_rate", KindRestingHeartRate.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
