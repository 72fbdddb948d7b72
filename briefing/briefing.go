// Package briefing composes the twice-daily operational briefs: a
// morning brief covering alerts, stock, shipments, enrollment, and risk,
// and an evening summary covering what happened during the day. Briefs
// are persisted by deterministic ID so regeneration overwrites.
package briefing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sallytsm/sally/llm"
	"github.com/sallytsm/sally/storage"
)

// Brief types
const (
	TypeMorning = "morning"
	TypeEvening = "evening"
)

// Operating modes
const (
	ModeDemo       = "demo"
	ModeProduction = "production"
)

var (
	// ErrUnknownBriefType indicates a type other than morning or evening
	ErrUnknownBriefType = errors.New("unknown brief type")

	// ErrUnknownMode indicates a mode other than demo or production
	ErrUnknownMode = errors.New("unknown briefing mode")

	// ErrAlreadyStarted is returned when starting a running generator
	ErrAlreadyStarted = errors.New("brief generator already started")

	// ErrNotStarted is returned when stopping a stopped generator
	ErrNotStarted = errors.New("brief generator not started")
)

// ============================================================================
// BRIEF PAYLOAD
// ============================================================================

// Brief is a composed morning brief or evening summary.
type Brief struct {
	Date           string    `json:"date"`
	Type           string    `json:"type"`
	Mode           string    `json:"mode"`
	Summary        Summary   `json:"summary"`
	Sections       Sections  `json:"sections"`
	Narrative      string    `json:"narrative,omitempty"`
	AlgorithmsUsed []string  `json:"algorithms_used"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Summary is the KPI block shown at the top of a brief.
type Summary struct {
	CriticalAlerts     int     `json:"critical_alerts"`
	SitesLowOnStock    int     `json:"sites_low_on_stock"`
	ActiveShipments    int     `json:"active_shipments"`
	DelayedShipments   int     `json:"delayed_shipments"`
	TemperatureAlerts  int     `json:"temperature_alerts"`
	EnrollmentPercent  float64 `json:"enrollment_percent"`
	OnTimeDeliveryRate float64 `json:"on_time_delivery_rate"`
}

// Sections carries the brief body. Morning and evening briefs fill
// different subsets.
type Sections struct {
	// Morning sections
	Alerts          []Alert         `json:"alerts,omitempty"`
	InventoryStatus []SiteInventory `json:"inventory_status,omitempty"`
	Shipments       []ShipmentLine  `json:"shipments,omitempty"`
	Enrollment      *Enrollment     `json:"enrollment,omitempty"`
	RiskInsights    []RiskInsight   `json:"risk_insights,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`

	// Evening sections
	ResolvedEvents     []Alert        `json:"resolved_events,omitempty"`
	Deliveries         []DeliveryLine `json:"deliveries,omitempty"`
	EnrollmentsToday   int            `json:"enrollments_today,omitempty"`
	InventoryMovements int            `json:"inventory_movements,omitempty"`
	OvernightShipments []ShipmentLine `json:"overnight_shipments,omitempty"`
	TomorrowPriorities []string       `json:"tomorrow_priorities,omitempty"`
}

// Alert is a quality event surfaced in a brief.
type Alert struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	Severity    string    `json:"severity"`
	SiteID      string    `json:"site_id,omitempty"`
	ProductID   string    `json:"product_id,omitempty"`
	Description string    `json:"description"`
	EventDate   time.Time `json:"event_date"`
	Status      string    `json:"status"`
}

// SiteInventory is the per-site stock position for the inventory section.
type SiteInventory struct {
	SiteID         string `json:"site_id"`
	SiteName       string `json:"site_name"`
	LowItems       int    `json:"low_items"`
	TotalAvailable int    `json:"total_available"`
	Message        string `json:"message"`
}

// ShipmentLine is a shipment surfaced in a brief.
type ShipmentLine struct {
	ShipmentID       string     `json:"shipment_id"`
	ShipmentNumber   string     `json:"shipment_number,omitempty"`
	SiteID           string     `json:"site_id"`
	Status           string     `json:"status"`
	Priority         string     `json:"priority"`
	Carrier          string     `json:"carrier,omitempty"`
	ExpectedDelivery *time.Time `json:"expected_delivery,omitempty"`
}

// DeliveryLine is a completed delivery with its punctuality.
type DeliveryLine struct {
	ShipmentID     string     `json:"shipment_id"`
	SiteID         string     `json:"site_id"`
	OnTime         bool       `json:"on_time"`
	ActualDelivery *time.Time `json:"actual_delivery,omitempty"`
}

// Enrollment is the enrollment section of the morning brief.
type Enrollment struct {
	TotalTarget    int               `json:"total_target"`
	TotalCurrent   int               `json:"total_current"`
	PercentOfGoal  float64           `json:"percent_of_goal"`
	ActiveStudies  int               `json:"active_studies"`
	ActiveSites    int               `json:"active_sites"`
	BehindSchedule []BehindScheduler `json:"behind_schedule,omitempty"`
}

// BehindScheduler is a study tracking under 70 percent of target.
type BehindScheduler struct {
	StudyID         string  `json:"study_id"`
	StudyName       string  `json:"study_name"`
	PercentOfTarget float64 `json:"percent_of_target"`
}

// RiskInsight groups sites falling into one risk band.
type RiskInsight struct {
	Band    string   `json:"band"`
	Sites   []string `json:"sites"`
	Message string   `json:"message"`
}

// BriefID builds the deterministic persistence key for a brief.
func BriefID(briefType string, day time.Time) string {
	return fmt.Sprintf("brief_%s_%s", briefType, day.Format("2006-01-02"))
}

// ============================================================================
// SERVICE
// ============================================================================

// Config controls brief composition.
type Config struct {
	// Mode selects demo fixtures or SQL-composed production briefs.
	// Default: demo
	Mode string

	// Narrator composes the optional executive summary paragraph.
	// Briefs render fully without one, and on narrator failure.
	Narrator llm.ChatClient
}

// DefaultConfig returns the default briefing configuration.
func DefaultConfig() *Config {
	return &Config{Mode: ModeDemo}
}

// Service composes and persists briefs.
type Service struct {
	store  storage.Store
	config *Config

	mu   sync.RWMutex
	mode string
}

// NewService creates a briefing service. The store may be nil in demo
// mode, where briefs are composed from fixtures and not persisted.
func NewService(store storage.Store, config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Mode == "" {
		config.Mode = ModeDemo
	}
	return &Service{store: store, config: config, mode: config.Mode}
}

// Mode returns the operating mode.
func (s *Service) Mode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode switches between demo fixtures and SQL-composed briefs. Briefs
// already persisted keep the mode they were generated under.
func (s *Service) SetMode(mode string) error {
	if mode != ModeDemo && mode != ModeProduction {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	return nil
}

// Generate composes the brief of the given type for the given day,
// attaches the narrative when a narrator is configured, and persists it.
func (s *Service) Generate(ctx context.Context, briefType string, day time.Time) (*Brief, error) {
	var brief *Brief
	var err error

	switch briefType {
	case TypeMorning:
		brief, err = s.MorningBrief(ctx, day)
	case TypeEvening:
		brief, err = s.EveningSummary(ctx, day)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBriefType, briefType)
	}
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, brief, day); err != nil {
		return nil, err
	}
	return brief, nil
}

// MorningBrief composes the morning brief for the given day.
func (s *Service) MorningBrief(ctx context.Context, day time.Time) (*Brief, error) {
	return s.Compose(ctx, TypeMorning, day, s.Mode())
}

// EveningSummary composes the evening summary for the given day.
func (s *Service) EveningSummary(ctx context.Context, day time.Time) (*Brief, error) {
	return s.Compose(ctx, TypeEvening, day, s.Mode())
}

// Compose builds the brief of the given type for the given day under an
// explicit mode, without persisting it. Demo briefs come from fixtures
// and never touch the store.
func (s *Service) Compose(ctx context.Context, briefType string, day time.Time, mode string) (*Brief, error) {
	if mode != ModeDemo && mode != ModeProduction {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	switch briefType {
	case TypeMorning:
		if mode == ModeDemo {
			return s.demoMorningBrief(day), nil
		}
		brief, err := s.composeMorning(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("failed to compose morning brief: %w", err)
		}
		brief.Narrative = s.narrate(ctx, brief)
		return brief, nil
	case TypeEvening:
		if mode == ModeDemo {
			return s.demoEveningSummary(day), nil
		}
		brief, err := s.composeEvening(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("failed to compose evening summary: %w", err)
		}
		brief.Narrative = s.narrate(ctx, brief)
		return brief, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBriefType, briefType)
	}
}

// Latest returns the stored brief of the given type for the given day.
func (s *Service) Latest(ctx context.Context, briefType string, day time.Time) (*storage.Brief, error) {
	if s.store == nil {
		return nil, storage.ErrNotFound
	}
	return s.store.GetBrief(ctx, BriefID(briefType, day))
}

// History returns recently generated briefs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]*storage.Brief, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListBriefs(ctx, limit)
}

// persist upserts the brief under its deterministic ID. Demo briefs are
// persisted too when a store is wired, so the UI can page history.
func (s *Service) persist(ctx context.Context, brief *Brief, day time.Time) error {
	if s.store == nil {
		return nil
	}

	payload, err := toPayload(brief)
	if err != nil {
		return err
	}

	stored := &storage.Brief{
		BriefID:     BriefID(brief.Type, day),
		BriefDate:   day,
		BriefType:   brief.Type,
		Payload:     payload,
		GeneratedAt: brief.GeneratedAt,
	}
	if err := s.store.UpsertBrief(ctx, stored); err != nil {
		return fmt.Errorf("failed to persist brief: %w", err)
	}
	return nil
}

func toPayload(brief *Brief) (map[string]any, error) {
	raw, err := json.Marshal(brief)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal brief: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to build brief payload: %w", err)
	}
	return payload, nil
}

// FromStored rebuilds a Brief from its persisted payload.
func FromStored(stored *storage.Brief) (*Brief, error) {
	raw, err := json.Marshal(stored.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal brief payload: %w", err)
	}
	var brief Brief
	if err := json.Unmarshal(raw, &brief); err != nil {
		return nil, fmt.Errorf("failed to decode brief payload: %w", err)
	}
	return &brief, nil
}
