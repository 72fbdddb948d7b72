// Package analytics implements the statistical decision support layer:
// demand forecasting, inventory optimization, shipment risk scoring,
// enrollment projection, anomaly detection, and waste minimization.
// The math is deterministic and runs against live storage aggregates.
package analytics

import (
	"github.com/sallytsm/sally/storage"
)

// Risk band thresholds
const (
	BandCriticalMin = 0.8
	BandHighMin     = 0.6
	BandMediumMin   = 0.3
)

// Service computes analytics over the supply data.
type Service struct {
	store storage.Store
}

// NewService creates an analytics service.
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// BandFor maps a risk score in [0,1] to its band name.
func BandFor(score float64) string {
	switch {
	case score >= BandCriticalMin:
		return "critical"
	case score >= BandHighMin:
		return "high"
	case score >= BandMediumMin:
		return "medium"
	default:
		return "low"
	}
}
