package healthexport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the measurement stream a Record element belongs to.
type Kind int

const (
	KindUnknown Kind = iota
	KindSystolic
	KindDiastolic
	KindRestingHeartRate
	KindHeartRate
)

var kindNames = map[Kind]string{
	KindSystolic:         "systolic",
	KindDiastolic:        "diastolic",
	KindRestingHeartRate: "resting_heart_rate",
	KindHeartRate:        "heart_rate",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

func ParseKind(name string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for kind, n := range kindNames {
		if n == key {
			return kind, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown kind %q: %w", name, ErrInvalidCatalog)
}

var ErrInvalidCatalog = errors.New("invalid type catalog")

type Identifier struct {
	Kind       string `yaml:"kind" json:"kind"`
	Identifier string `yaml:"identifier" json:"identifier"`
}

// Catalog is the ordered list of type identifiers a Record's type attribute
// is checked against. The first identifier contained in the type wins.
type Catalog struct {
	Identifiers []Identifier `yaml:"identifiers" json:"identifiers"`

	kinds []Kind
}

func DefaultCatalog() Catalog {
	cat := Catalog{Identifiers: []Identifier{
		{Kind: KindSystolic.String(), Identifier: "HKQuantityTypeIdentifierBloodPressureSystolic"},
		{Kind: KindDiastolic.String(), Identifier: "HKQuantityTypeIdentifierBloodPressureDiastolic"},
		// Withings writes heart rate under both of these.
		{Kind: KindRestingHeartRate.String(), Identifier: "HKQuantityTypeIdentifierRestingHeartRate"},
		{Kind: KindHeartRate.String(), Identifier: "HKQuantityTypeIdentifierHeartRate"},
	}}
	if err := cat.Validate(); err != nil {
		panic(err)
	}
	return cat
}

// LoadCatalog reads a YAML catalog. An empty path yields DefaultCatalog.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Catalog{}, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseCatalog(content)
}

func ParseCatalog(content []byte) (Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return Catalog{}, fmt.Errorf("decoding catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return Catalog{}, err
	}
	return cat, nil
}

// Validate resolves kind names and rejects catalogs where any identifier
// would also select another kind's records.
func (c *Catalog) Validate() error {
	if len(c.Identifiers) == 0 {
		return fmt.Errorf("no identifiers configured: %w", ErrInvalidCatalog)
	}

	kinds := make([]Kind, len(c.Identifiers))
	seen := make(map[Kind]struct{})
	for i, ident := range c.Identifiers {
		kind, err := ParseKind(ident.Kind)
		if err != nil {
			return err
		}
		if strings.TrimSpace(ident.Identifier) == "" {
			return fmt.Errorf("empty identifier for %s: %w", kind, ErrInvalidCatalog)
		}
		if _, dup := seen[kind]; dup {
			return fmt.Errorf("kind %s listed twice: %w", kind, ErrInvalidCatalog)
		}
		seen[kind] = struct{}{}
		kinds[i] = kind
	}

	for i, a := range c.Identifiers {
		for j, b := range c.Identifiers {
			if i != j && strings.Contains(a.Identifier, b.Identifier) {
				return fmt.Errorf("identifier %q contains %q: %w", a.Identifier, b.Identifier, ErrInvalidCatalog)
			}
		}
	}

	c.kinds = kinds
	return nil
}

// Classify returns the kind whose identifier is contained in recordType.
func (c Catalog) Classify(recordType string) Kind {
	for i, ident := range c.Identifiers {
		if i < len(c.kinds) && strings.Contains(recordType, ident.Identifier) {
			return c.kinds[i]
		}
	}
	return KindUnknown
}
