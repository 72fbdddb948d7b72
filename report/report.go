// Package report generates operational reports over the supply chain
// data in JSON and CSV form, and tracks batch exports and report
// schedules.
package report

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sallytsm/sally/storage"
)

// Report types
const (
	TypeInventorySummary      = "inventory_summary"
	TypeShipmentStatus        = "shipment_status"
	TypeSitePerformance       = "site_performance"
	TypeQualityEvents         = "quality_events"
	TypeTemperatureCompliance = "temperature_compliance"
	TypeEnrollmentProgress    = "enrollment_progress"
	TypeDepotUtilization      = "depot_utilization"
	TypeVendorPerformance     = "vendor_performance"
)

// Report formats
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Row limits
const (
	MaxReportRows = 500
)

// Report errors
var (
	// ErrUnknownType indicates the report type is not in the catalog
	ErrUnknownType = errors.New("unknown report type")

	// ErrUnknownMode indicates a mode other than demo or production
	ErrUnknownMode = errors.New("unknown report mode")

	// ErrUnsupportedFormat indicates the requested output format is not
	// available
	ErrUnsupportedFormat = errors.New("unsupported report format")

	// ErrInvalidFilter indicates a filter value is not a valid identifier
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrStoreRequired indicates production mode was requested without a
	// database
	ErrStoreRequired = errors.New("production reports require a database")
)

var reportTypes = []string{
	TypeInventorySummary,
	TypeShipmentStatus,
	TypeSitePerformance,
	TypeQualityEvents,
	TypeTemperatureCompliance,
	TypeEnrollmentProgress,
	TypeDepotUtilization,
	TypeVendorPerformance,
}

// identPattern constrains filter values spliced into report SQL.
var identPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Request describes a report to generate.
type Request struct {
	// Type selects the report, one of the Type constants
	Type string `json:"report_type"`

	// Format is json or csv, json when empty
	Format string `json:"report_format,omitempty"`

	// Mode overrides the service mode for this request
	Mode string `json:"mode,omitempty"`

	// SiteID restricts site-scoped reports to one site
	SiteID string `json:"site_id,omitempty"`

	// StudyID restricts study-scoped reports to one study
	StudyID string `json:"study_id,omitempty"`
}

// Report is a generated report.
type Report struct {
	ReportID     string           `json:"report_id"`
	ReportType   string           `json:"report_type"`
	ReportFormat string           `json:"report_format"`
	Mode         string           `json:"mode"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Summary      map[string]any   `json:"summary"`
	Records      []map[string]any `json:"records,omitempty"`
	CSV          string           `json:"csv,omitempty"`
}

// Config holds report service settings.
type Config struct {
	// Mode is demo or production, demo when empty
	Mode string
}

// Service generates reports and manages schedules.
type Service struct {
	store  storage.Store
	config *Config

	mu   sync.RWMutex
	mode string

	schedules scheduleBook
}

// NewService creates a report service. A nil store limits the service
// to demo reports.
func NewService(store storage.Store, config *Config) *Service {
	if config == nil {
		config = &Config{}
	}
	if config.Mode == "" {
		config.Mode = "demo"
	}
	return &Service{store: store, config: config, mode: config.Mode}
}

// Mode returns the default mode applied to requests that do not name one.
func (s *Service) Mode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode switches the default between demo and production datasets.
func (s *Service) SetMode(mode string) error {
	if mode != "demo" && mode != "production" {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	return nil
}

// Types returns the report catalog.
func (s *Service) Types() []string {
	out := make([]string, len(reportTypes))
	copy(out, reportTypes)
	return out
}

// Generate builds the requested report.
func (s *Service) Generate(ctx context.Context, req Request) (*Report, error) {
	if !knownType(req.Type) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, req.Type)
	}
	format := req.Format
	if format == "" {
		format = FormatJSON
	}
	if format != FormatJSON && format != FormatCSV {
		return nil, fmt.Errorf("%w: %s export is not available, use json or csv", ErrUnsupportedFormat, format)
	}
	if err := validFilter(req.SiteID); err != nil {
		return nil, err
	}
	if err := validFilter(req.StudyID); err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = s.Mode()
	}

	report := &Report{
		ReportID:     newID("RPT"),
		ReportType:   req.Type,
		ReportFormat: format,
		Mode:         mode,
		GeneratedAt:  time.Now().UTC(),
	}

	var err error
	if mode == "production" {
		if s.store == nil {
			return nil, ErrStoreRequired
		}
		report.Records, report.Summary, err = s.compose(ctx, req)
		if err != nil {
			return nil, err
		}
	} else {
		report.Records, report.Summary = demoDataset(req.Type)
	}

	if format == FormatCSV {
		report.CSV, err = renderCSV(req.Type, report.Records)
		if err != nil {
			return nil, err
		}
	}
	return report, nil
}

// compose runs the production data path for one report type.
func (s *Service) compose(ctx context.Context, req Request) ([]map[string]any, map[string]any, error) {
	switch req.Type {
	case TypeInventorySummary:
		return s.inventorySummary(ctx, req)
	case TypeShipmentStatus:
		return s.shipmentStatus(ctx, req)
	case TypeSitePerformance:
		return s.sitePerformance(ctx, req)
	case TypeQualityEvents:
		return s.qualityEvents(ctx, req)
	case TypeTemperatureCompliance:
		return s.temperatureCompliance(ctx)
	case TypeEnrollmentProgress:
		return s.enrollmentProgress(ctx)
	case TypeDepotUtilization:
		return s.depotUtilization(ctx)
	case TypeVendorPerformance:
		return s.vendorPerformance(ctx)
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownType, req.Type)
	}
}

func knownType(reportType string) bool {
	for _, t := range reportTypes {
		if t == reportType {
			return true
		}
	}
	return false
}

func validFilter(value string) error {
	if value == "" {
		return nil
	}
	if !identPattern.MatchString(value) {
		return fmt.Errorf("%w: %q", ErrInvalidFilter, value)
	}
	return nil
}

// newID builds a prefixed id with 8 uppercase hex characters.
func newID(prefix string) string {
	id := uuid.New()
	return fmt.Sprintf("%s-%X", prefix, id[:4])
}
