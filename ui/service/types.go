package service

import (
	"time"

	"github.com/sallytsm/sally/storage"
)

// Validation constants for query parameters
const (
	// MaxPageLimit is the maximum allowed page size to prevent resource exhaustion
	MaxPageLimit = 200
	// MinPageLimit is the minimum allowed page size
	MinPageLimit = 1
)

// ValidateLimit ensures limit is within acceptable bounds.
func ValidateLimit(limit int) int {
	if limit < MinPageLimit {
		return MinPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}

// ValidateOffset ensures offset is non-negative.
func ValidateOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// ParseDay parses a brief date in 2006-01-02 form. An empty value means
// today.
func ParseDay(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", value)
}

// DashboardStats contains the KPI block for the overview page.
type DashboardStats struct {
	// Application state
	Mode             string `json:"mode"`
	IsDemo           bool   `json:"is_demo"`
	InstanceID       string `json:"instance_id"`
	IsLeader         bool   `json:"is_leader"`
	LeaderInstanceID string `json:"leader_instance_id,omitempty"`

	// Supply KPIs
	OpenCriticalEvents int `json:"open_critical_events"`
	LowStockSites      int `json:"low_stock_sites"`
	InTransitShipments int `json:"in_transit_shipments"`
	DelayedShipments   int `json:"delayed_shipments"`

	// Delivery punctuality over the last 24 hours
	Deliveries24h int     `json:"deliveries_24h"`
	OnTimeRate24h float64 `json:"on_time_rate_24h"`

	// Enrollment progress across active studies
	EnrollmentPct float64 `json:"enrollment_pct"`
	ActiveStudies int     `json:"active_studies"`
	ActiveSites   int     `json:"active_sites"`

	// Assistant usage
	QuestionsLogged int `json:"questions_logged"`

	// Recent activity
	CriticalEvents []*storage.QualityEvent     `json:"critical_events"`
	RecentAlerts   []*storage.TemperatureAlert `json:"recent_alerts"`
	RecentBriefs   []*BriefSummary             `json:"recent_briefs"`

	GeneratedAt time.Time `json:"generated_at"`
}

// BriefSummary is a stored brief flattened for list rendering.
type BriefSummary struct {
	BriefID        string    `json:"brief_id"`
	BriefType      string    `json:"brief_type"`
	BriefDate      string    `json:"brief_date"`
	Mode           string    `json:"mode"`
	CriticalAlerts int       `json:"critical_alerts"`
	SitesLowStock  int       `json:"sites_low_on_stock"`
	Narrative      string    `json:"narrative,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`
}
