package conversion

import (
	"fmt"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/config"
	"github.com/MtnBiker/convert-apple-health-export/pkg/correlation"
	"github.com/MtnBiker/convert-apple-health-export/pkg/healthexport"
	"github.com/MtnBiker/convert-apple-health-export/pkg/observability/metrics"
	"github.com/MtnBiker/convert-apple-health-export/pkg/sink"
)

// NewServiceFromConfig loads the type catalog and opens the configured
// sinks. The returned close function releases the sinks.
func NewServiceFromConfig(cfg *config.Config, m *metrics.Metrics) (*Service, func() error, error) {
	catalog, err := healthexport.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading catalog: %w", err)
	}

	dispatcher, err := sink.FromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening sinks: %w", err)
	}

	correlator := correlation.NewCorrelator(correlation.WithPrefixLength(cfg.MatchPrefixLength))
	return NewService(catalog, correlator, dispatcher, m), dispatcher.Close, nil
}
