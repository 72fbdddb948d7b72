package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested row does not exist
var ErrNotFound = errors.New("not found")

// Store defines the storage interface for the supply-management backend
type Store interface {
	// Ping verifies database connectivity
	Ping(ctx context.Context) error

	// Study operations
	ListStudies(ctx context.Context) ([]*Study, error)
	GetStudy(ctx context.Context, studyID string) (*Study, error)

	// Site operations
	ListSites(ctx context.Context, params SiteListParams) ([]*Site, error)
	GetSite(ctx context.Context, siteID string) (*Site, error)
	SitesAtRisk(ctx context.Context, minRiskScore float64) ([]*Site, error)

	// Product operations
	ListProducts(ctx context.Context) ([]*Product, error)
	GetProduct(ctx context.Context, productID string) (*Product, error)

	// Enrollment operations
	EnrollmentStats(ctx context.Context) (*EnrollmentStats, error)
	WeeklyEnrollment(ctx context.Context, studyID string, weeks int) ([]*WeeklyCount, error)
	EnrollmentsOn(ctx context.Context, day time.Time) (int, error)

	// Inventory operations
	ListInventory(ctx context.Context, params InventoryListParams) ([]*InventoryItem, error)
	LowStockSites(ctx context.Context) ([]*SiteStockStatus, error)
	CriticalStockItems(ctx context.Context, threshold int) ([]*InventoryItem, error)
	NearExpiryItems(ctx context.Context, within time.Duration) ([]*InventoryItem, error)
	InventoryCountedOn(ctx context.Context, day time.Time) (int, error)
	SiteProductStock(ctx context.Context, siteID string) ([]*SiteProductStock, error)

	// Shipment operations
	ListShipments(ctx context.Context, params ShipmentListParams) ([]*Shipment, error)
	GetShipment(ctx context.Context, shipmentID string) (*Shipment, error)
	ActiveShipments(ctx context.Context, limit int) ([]*Shipment, error)
	DelayedShipmentCount(ctx context.Context) (int, error)
	DeliveriesBetween(ctx context.Context, from, to time.Time) ([]*Shipment, error)
	ShipmentsExpectedBetween(ctx context.Context, from, to time.Time) ([]*Shipment, error)
	OnTimeDeliveryRate(ctx context.Context, window time.Duration) (*DeliveryStats, error)
	CarrierDelayStats(ctx context.Context) ([]*CarrierStats, error)

	// Depot and vendor operations
	ListDepots(ctx context.Context) ([]*Depot, error)
	ListVendors(ctx context.Context) ([]*Vendor, error)

	// Quality event operations
	ListQualityEvents(ctx context.Context, params QualityEventListParams) ([]*QualityEvent, error)
	CriticalOpenEvents(ctx context.Context, limit int) ([]*QualityEvent, error)
	EventsResolvedBetween(ctx context.Context, from, to time.Time) ([]*QualityEvent, error)

	// Temperature operations
	RecentTemperatureAlerts(ctx context.Context, window time.Duration) ([]*TemperatureAlert, error)
	TemperatureCompliance(ctx context.Context, window time.Duration) (*ComplianceStats, error)
	TemperatureSeries(ctx context.Context, window time.Duration) ([]*TemperatureReading, error)

	// Brief operations
	UpsertBrief(ctx context.Context, brief *Brief) error
	GetBrief(ctx context.Context, briefID string) (*Brief, error)
	ListBriefs(ctx context.Context, limit int) ([]*Brief, error)
	DeleteBriefsBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Assistant query log operations
	InsertQuery(ctx context.Context, q *AssistantQuery) error
	ListQueries(ctx context.Context, limit int) ([]*AssistantQuery, error)
	CountQueries(ctx context.Context) (int, error)
	SetQueryFeedback(ctx context.Context, queryID string, helpful bool) error
	DeleteQueriesBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Leadership lease operations
	LeaderAttemptElect(ctx context.Context, params *LeaderElectParams) (bool, error)
	LeaderAttemptReelect(ctx context.Context, params *LeaderElectParams) (bool, error)
	LeaderResign(ctx context.Context, name, leaderID string) error
	CurrentLeader(ctx context.Context, name string) (*Leader, error)

	// RunReadOnlyQuery executes a validated SELECT and returns at most maxRows rows.
	RunReadOnlyQuery(ctx context.Context, sql string, maxRows int) (*QueryResult, error)
}

// Study represents a clinical study
type Study struct {
	StudyID             string     `json:"study_id"`
	StudyName           string     `json:"study_name"`
	ProtocolNumber      string     `json:"protocol_number"`
	Phase               string     `json:"phase"`
	TherapeuticArea     string     `json:"therapeutic_area"`
	Status              string     `json:"status"`
	StartDate           *time.Time `json:"start_date,omitempty"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
	TargetEnrollment    int        `json:"target_enrollment"`
	CurrentEnrollment   int        `json:"current_enrollment"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Site represents a clinical site participating in a study
type Site struct {
	SiteID            string     `json:"site_id"`
	StudyID           string     `json:"study_id"`
	SiteName          string     `json:"site_name"`
	SiteNumber        string     `json:"site_number"`
	Country           string     `json:"country"`
	City              string     `json:"city"`
	Status            string     `json:"status"`
	ActivationDate    *time.Time `json:"activation_date,omitempty"`
	TargetEnrollment  int        `json:"target_enrollment"`
	CurrentEnrollment int        `json:"current_enrollment"`
	PerformanceScore  float64    `json:"performance_score"`
	RiskScore         float64    `json:"risk_score"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Product represents an investigational product supplied to sites
type Product struct {
	ProductID         string  `json:"product_id"`
	StudyID           string  `json:"study_id"`
	ProductName       string  `json:"product_name"`
	ProductType       string  `json:"product_type"`
	DosageForm        string  `json:"dosage_form"`
	Strength          string  `json:"strength"`
	StorageConditions string  `json:"storage_conditions"`
	ShelfLifeMonths   int     `json:"shelf_life_months"`
	UnitCost          float64 `json:"unit_cost"`
	RequiresColdChain bool    `json:"requires_cold_chain"`
}

// InventoryItem represents site-level stock of a product batch
type InventoryItem struct {
	InventoryID       string     `json:"inventory_id"`
	SiteID            string     `json:"site_id"`
	ProductID         string     `json:"product_id"`
	BatchNumber       string     `json:"batch_number"`
	QuantityOnHand    int        `json:"quantity_on_hand"`
	QuantityAvailable int        `json:"quantity_available"`
	QuantityAllocated int        `json:"quantity_allocated"`
	MinimumStockLevel int        `json:"minimum_stock_level"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	StorageLocation   string     `json:"storage_location"`
	TemperatureZone   string     `json:"temperature_zone"`
	LastCountedAt     *time.Time `json:"last_counted_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Shipment represents a depot-to-site shipment
type Shipment struct {
	ShipmentID            string     `json:"shipment_id"`
	ShipmentNumber        string     `json:"shipment_number"`
	OriginDepotID         string     `json:"origin_depot_id"`
	DestinationSiteID     string     `json:"destination_site_id"`
	Status                string     `json:"status"`
	Priority              string     `json:"priority"`
	Carrier               string     `json:"carrier"`
	TrackingNumber        string     `json:"tracking_number"`
	ShippedDate           *time.Time `json:"shipped_date,omitempty"`
	ExpectedDelivery      *time.Time `json:"expected_delivery,omitempty"`
	ActualDelivery        *time.Time `json:"actual_delivery,omitempty"`
	DeliveryDelayDays     int        `json:"delivery_delay_days"`
	TemperatureControlled bool       `json:"temperature_controlled"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// Depot represents a regional distribution depot
type Depot struct {
	DepotID            string  `json:"depot_id"`
	DepotName          string  `json:"depot_name"`
	Region             string  `json:"region"`
	Country            string  `json:"country"`
	City               string  `json:"city"`
	CapacityUnits      int     `json:"capacity_units"`
	CurrentUtilization float64 `json:"current_utilization"`
	TemperatureZones   string  `json:"temperature_zones"`
	Status             string  `json:"status"`
}

// Vendor represents a qualified supply vendor
type Vendor struct {
	VendorID            string     `json:"vendor_id"`
	VendorName          string     `json:"vendor_name"`
	VendorType          string     `json:"vendor_type"`
	Country             string     `json:"country"`
	QualificationStatus string     `json:"qualification_status"`
	PerformanceRating   float64    `json:"performance_rating"`
	LastAuditDate       *time.Time `json:"last_audit_date,omitempty"`
}

// QualityEvent represents a recorded quality or compliance event
type QualityEvent struct {
	EventID          string     `json:"event_id"`
	EventType        string     `json:"event_type"`
	Severity         string     `json:"severity"`
	SiteID           string     `json:"site_id"`
	ProductID        string     `json:"product_id"`
	BatchNumber      string     `json:"batch_number"`
	Description      string     `json:"description"`
	EventDate        time.Time  `json:"event_date"`
	ResolutionStatus string     `json:"resolution_status"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	CorrectiveAction string     `json:"corrective_action"`
}

// TemperatureAlert is a triggered temperature log joined with its shipment
type TemperatureAlert struct {
	LogID              string    `json:"log_id"`
	ShipmentID         string    `json:"shipment_id"`
	ShipmentNumber     string    `json:"shipment_number"`
	RecordedAt         time.Time `json:"recorded_at"`
	TemperatureCelsius float64   `json:"temperature_celsius"`
	HumidityPercent    float64   `json:"humidity_percent"`
	ExcursionDetected  bool      `json:"excursion_detected"`
}

// TemperatureReading is a raw time-series point for anomaly analysis
type TemperatureReading struct {
	ShipmentID         string    `json:"shipment_id"`
	RecordedAt         time.Time `json:"recorded_at"`
	TemperatureCelsius float64   `json:"temperature_celsius"`
}

// Brief is a persisted morning brief or evening summary payload
type Brief struct {
	BriefID     string         `json:"brief_id"`
	BriefDate   time.Time      `json:"brief_date"`
	BriefType   string         `json:"brief_type"`
	Payload     map[string]any `json:"payload"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// AssistantQuery is an audit-log row for an answered assistant question
type AssistantQuery struct {
	QueryID      string    `json:"query_id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	SQLGenerated string    `json:"sql_generated,omitempty"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Confidence   float64   `json:"confidence"`
	TokensUsed   int       `json:"tokens_used"`
	LatencyMs    int64     `json:"latency_ms"`
	Sources      []string  `json:"sources,omitempty"`
	Helpful      *bool     `json:"helpful,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// SiteListParams filters site listings
type SiteListParams struct {
	StudyID string
	Status  string
	Country string
	Limit   int
	Offset  int
}

// InventoryListParams filters inventory listings
type InventoryListParams struct {
	SiteID    string
	ProductID string
	Limit     int
	Offset    int
}

// ShipmentListParams filters shipment listings
type ShipmentListParams struct {
	Status            string
	Carrier           string
	DestinationSiteID string
	Limit             int
	Offset            int
}

// QualityEventListParams filters quality event listings
type QualityEventListParams struct {
	Severity         string
	ResolutionStatus string
	SiteID           string
	Limit            int
	Offset           int
}

// SiteStockStatus aggregates low-stock inventory for one site
type SiteStockStatus struct {
	SiteID         string `json:"site_id"`
	SiteName       string `json:"site_name"`
	LowItemCount   int    `json:"low_item_count"`
	TotalAvailable int    `json:"total_available"`
	MinAvailable   int    `json:"min_available"`
}

// SiteProductStock aggregates available stock per site and product
type SiteProductStock struct {
	SiteID            string  `json:"site_id"`
	ProductID         string  `json:"product_id"`
	QuantityAvailable int     `json:"quantity_available"`
	MinimumStockLevel int     `json:"minimum_stock_level"`
	UnitCost          float64 `json:"unit_cost"`
}

// EnrollmentStats aggregates enrollment across active studies
type EnrollmentStats struct {
	TotalTarget    int                `json:"total_target"`
	TotalCurrent   int                `json:"total_current"`
	ActiveStudies  int                `json:"active_studies"`
	ActiveSites    int                `json:"active_sites"`
	BehindSchedule []*StudyEnrollment `json:"behind_schedule,omitempty"`
}

// StudyEnrollment is per-study enrollment progress
type StudyEnrollment struct {
	StudyID           string  `json:"study_id"`
	StudyName         string  `json:"study_name"`
	TargetEnrollment  int     `json:"target_enrollment"`
	CurrentEnrollment int     `json:"current_enrollment"`
	PercentOfTarget   float64 `json:"percent_of_target"`
}

// WeeklyCount is one week of an enrollment time series
type WeeklyCount struct {
	WeekStart time.Time `json:"week_start"`
	Count     int       `json:"count"`
}

// DeliveryStats summarizes delivery punctuality over a window
type DeliveryStats struct {
	Delivered   int     `json:"delivered"`
	OnTime      int     `json:"on_time"`
	OnTimeRate  float64 `json:"on_time_rate"`
	AvgDelayDay float64 `json:"avg_delay_days"`
}

// CarrierStats summarizes historical delay behavior per carrier
type CarrierStats struct {
	Carrier      string  `json:"carrier"`
	Shipments    int     `json:"shipments"`
	Delayed      int     `json:"delayed"`
	AvgDelayDays float64 `json:"avg_delay_days"`
}

// ComplianceStats summarizes temperature compliance over a window
type ComplianceStats struct {
	Readings        int     `json:"readings"`
	Excursions      int     `json:"excursions"`
	CompliancePct   float64 `json:"compliance_pct"`
	AlertsTriggered int     `json:"alerts_triggered"`
}

// Leader is the current holder of a named lease
type Leader struct {
	Name      string    `json:"name"`
	LeaderID  string    `json:"leader_id"`
	ElectedAt time.Time `json:"elected_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LeaderElectParams holds parameters for a lease election attempt
type LeaderElectParams struct {
	// Name identifies the lease being contested
	Name string

	// LeaderID identifies the instance attempting election
	LeaderID string

	// TTL is how long the lease remains valid once granted
	TTL time.Duration
}

// QueryResult holds the columns and rows of an ad-hoc read-only query
type QueryResult struct {
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"row_count"`
	Truncated bool             `json:"truncated"`
}
