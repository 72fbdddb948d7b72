package report

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/sallytsm/sally/internal/testutil"
	"github.com/sallytsm/sally/schema"
	"github.com/sallytsm/sally/storage"
)

type fakeReportStore struct {
	storage.Store
	queryResult *storage.QueryResult
	queryErr    error
	gotSQL      []string
	events      []*storage.QualityEvent
	compliance  *storage.ComplianceStats
	alerts      []*storage.TemperatureAlert
	enrollment  *storage.EnrollmentStats
	studies     []*storage.Study
	depots      []*storage.Depot
	vendors     []*storage.Vendor
}

func (s *fakeReportStore) RunReadOnlyQuery(_ context.Context, sql string, _ int) (*storage.QueryResult, error) {
	s.gotSQL = append(s.gotSQL, sql)
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.queryResult, nil
}

func (s *fakeReportStore) ListQualityEvents(_ context.Context, _ storage.QualityEventListParams) ([]*storage.QualityEvent, error) {
	return s.events, nil
}

func (s *fakeReportStore) TemperatureCompliance(_ context.Context, _ time.Duration) (*storage.ComplianceStats, error) {
	return s.compliance, nil
}

func (s *fakeReportStore) RecentTemperatureAlerts(_ context.Context, _ time.Duration) ([]*storage.TemperatureAlert, error) {
	return s.alerts, nil
}

func (s *fakeReportStore) EnrollmentStats(_ context.Context) (*storage.EnrollmentStats, error) {
	return s.enrollment, nil
}

func (s *fakeReportStore) ListStudies(_ context.Context) ([]*storage.Study, error) {
	return s.studies, nil
}

func (s *fakeReportStore) ListDepots(_ context.Context) ([]*storage.Depot, error) {
	return s.depots, nil
}

func (s *fakeReportStore) ListVendors(_ context.Context) ([]*storage.Vendor, error) {
	return s.vendors, nil
}

func TestTypes(t *testing.T) {
	svc := NewService(nil, nil)
	types := svc.Types()

	if len(types) != 8 {
		t.Fatalf("Expected 8 report types, got %d", len(types))
	}
	if types[0] != TypeInventorySummary {
		t.Errorf("Expected inventory_summary first, got %s", types[0])
	}
	if types[7] != TypeVendorPerformance {
		t.Errorf("Expected vendor_performance last, got %s", types[7])
	}
}

func TestGenerate_UnknownType(t *testing.T) {
	svc := NewService(nil, nil)

	_, err := svc.Generate(context.Background(), Request{Type: "budget_burn"})
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("Expected ErrUnknownType, got %v", err)
	}
}

func TestSetMode(t *testing.T) {
	svc := NewService(nil, nil)

	if svc.Mode() != "demo" {
		t.Errorf("Mode() = %q, want demo", svc.Mode())
	}

	if err := svc.SetMode("production"); err != nil {
		t.Fatalf("SetMode(production) error = %v", err)
	}
	if svc.Mode() != "production" {
		t.Errorf("Mode() = %q, want production", svc.Mode())
	}

	if err := svc.SetMode("live"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("SetMode(live) error = %v, want ErrUnknownMode", err)
	}
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	svc := NewService(nil, nil)

	for _, format := range []string{"pdf", "excel"} {
		_, err := svc.Generate(context.Background(), Request{Type: TypeInventorySummary, Format: format})
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Expected ErrUnsupportedFormat for %s, got %v", format, err)
		}
		if err != nil && !strings.Contains(err.Error(), format) {
			t.Errorf("Expected error to name the format %s, got %v", format, err)
		}
	}
}

func TestGenerate_InvalidFilter(t *testing.T) {
	svc := NewService(nil, nil)

	_, err := svc.Generate(context.Background(), Request{
		Type:   TypeInventorySummary,
		SiteID: "SITE-001'; DROP TABLE gold_inventory; --",
	})
	if !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("Expected ErrInvalidFilter, got %v", err)
	}
}

func TestGenerate_DemoInventory(t *testing.T) {
	svc := NewService(nil, nil)

	rep, err := svc.Generate(context.Background(), Request{Type: TypeInventorySummary})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !regexp.MustCompile(`^RPT-[0-9A-F]{8}$`).MatchString(rep.ReportID) {
		t.Errorf("Expected RPT- id with 8 hex chars, got %s", rep.ReportID)
	}
	if rep.Mode != "demo" {
		t.Errorf("Expected demo mode, got %s", rep.Mode)
	}
	if rep.ReportFormat != FormatJSON {
		t.Errorf("Expected json format, got %s", rep.ReportFormat)
	}
	if len(rep.Records) != 2 {
		t.Fatalf("Expected 2 demo records, got %d", len(rep.Records))
	}
	if rep.Records[0]["site_name"] != "Memorial Hospital" {
		t.Errorf("Expected Memorial Hospital first, got %v", rep.Records[0]["site_name"])
	}
	if rep.Summary["total_units"] != 310 {
		t.Errorf("Expected 310 total units, got %v", rep.Summary["total_units"])
	}
	if rep.Summary["critical_sites"] != 1 {
		t.Errorf("Expected 1 critical site, got %v", rep.Summary["critical_sites"])
	}
	if rep.CSV != "" {
		t.Error("Expected no CSV payload for json format")
	}
}

func TestGenerate_DemoShipmentCSV(t *testing.T) {
	svc := NewService(nil, nil)

	rep, err := svc.Generate(context.Background(), Request{Type: TypeShipmentStatus, Format: FormatCSV})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(rep.CSV), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "shipment_id,shipment_number,origin,destination,status,priority,carrier,tracking_number,shipped_date,eta,days_delayed" {
		t.Errorf("Unexpected CSV header: %s", lines[0])
	}
	if !strings.Contains(lines[2], "SHP-2025-0120") || !strings.Contains(lines[2], ",7") {
		t.Errorf("Expected delayed shipment row with 7 day delay, got %s", lines[2])
	}
	if rep.Summary["on_time_percentage"] != 50.0 {
		t.Errorf("Expected 50%% on time, got %v", rep.Summary["on_time_percentage"])
	}
}

func TestGenerate_AllDemoTypes(t *testing.T) {
	svc := NewService(nil, nil)

	for _, reportType := range svc.Types() {
		rep, err := svc.Generate(context.Background(), Request{Type: reportType, Format: FormatCSV})
		if err != nil {
			t.Fatalf("Generate(%s) failed: %v", reportType, err)
		}
		if len(rep.Records) == 0 {
			t.Errorf("Expected demo records for %s", reportType)
		}
		if len(rep.Summary) == 0 {
			t.Errorf("Expected demo summary for %s", reportType)
		}
		if rep.CSV == "" {
			t.Errorf("Expected CSV payload for %s", reportType)
		}
	}
}

func TestGenerate_ProductionRequiresStore(t *testing.T) {
	svc := NewService(nil, &Config{Mode: "production"})

	_, err := svc.Generate(context.Background(), Request{Type: TypeInventorySummary})
	if !errors.Is(err, ErrStoreRequired) {
		t.Errorf("Expected ErrStoreRequired, got %v", err)
	}
}

func TestGenerate_ProductionInventory(t *testing.T) {
	store := &fakeReportStore{
		queryResult: &storage.QueryResult{
			Columns: []string{"site_id", "site_name", "total_units", "available_units", "status", "expiry_status", "days_of_supply"},
			Rows: []map[string]any{
				{"site_id": "SITE-002", "site_name": "Riverside Clinic", "total_units": int64(96), "available_units": int64(88), "status": "Healthy", "expiry_status": "Normal", "days_of_supply": int64(20)},
				{"site_id": "SITE-005", "site_name": "Lakeside Research", "total_units": int64(6), "available_units": int64(4), "status": "Critical", "expiry_status": "Critical", "days_of_supply": int64(2)},
			},
			RowCount: 2,
		},
	}
	svc := NewService(store, &Config{Mode: "production"})

	rep, err := svc.Generate(context.Background(), Request{Type: TypeInventorySummary, SiteID: "SITE-005"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if rep.Mode != "production" {
		t.Errorf("Expected production mode, got %s", rep.Mode)
	}
	if len(store.gotSQL) != 1 {
		t.Fatalf("Expected 1 query, got %d", len(store.gotSQL))
	}
	if !strings.Contains(store.gotSQL[0], "WHERE i.site_id = 'SITE-005'") {
		t.Errorf("Expected site filter in SQL, got %s", store.gotSQL[0])
	}
	if !strings.Contains(store.gotSQL[0], "GROUP BY i.site_id") {
		t.Errorf("Expected per-site grouping in SQL, got %s", store.gotSQL[0])
	}
	if rep.Summary["total_units"] != 102 {
		t.Errorf("Expected 102 total units, got %v", rep.Summary["total_units"])
	}
	if rep.Summary["critical_sites"] != 1 {
		t.Errorf("Expected 1 critical site, got %v", rep.Summary["critical_sites"])
	}
}

func TestGenerate_ProductionVendors(t *testing.T) {
	store := &fakeReportStore{
		vendors: []*storage.Vendor{
			{VendorID: "VEND-001", VendorName: "Global Pharma Logistics", VendorType: "distribution", Country: "United States", QualificationStatus: "qualified", PerformanceRating: 4.5},
			{VendorID: "VEND-002", VendorName: "ColdChain Express", VendorType: "cold_chain", Country: "Netherlands", QualificationStatus: "conditional", PerformanceRating: 3.5},
		},
	}
	svc := NewService(store, &Config{Mode: "production"})

	rep, err := svc.Generate(context.Background(), Request{Type: TypeVendorPerformance})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(rep.Records) != 2 {
		t.Fatalf("Expected 2 vendor records, got %d", len(rep.Records))
	}
	if rep.Summary["average_rating"] != 4.0 {
		t.Errorf("Expected average rating 4.0, got %v", rep.Summary["average_rating"])
	}
	if rep.Summary["qualified"] != 1 {
		t.Errorf("Expected 1 qualified vendor, got %v", rep.Summary["qualified"])
	}
}

func TestGenerate_ProductionDepots(t *testing.T) {
	store := &fakeReportStore{
		depots: []*storage.Depot{
			{DepotID: "DEPOT-001", DepotName: "Northeast Distribution Center", Region: "North America", CapacityUnits: 50000, CurrentUtilization: 0.64, Status: "operational"},
			{DepotID: "DEPOT-002", DepotName: "EU Central Depot", Region: "Europe", CapacityUnits: 35000, CurrentUtilization: 0.9, Status: "operational"},
		},
	}
	svc := NewService(store, &Config{Mode: "production"})

	rep, err := svc.Generate(context.Background(), Request{Type: TypeDepotUtilization})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if rep.Summary["average_utilization_pct"] != 77.0 {
		t.Errorf("Expected 77.0 average utilization, got %v", rep.Summary["average_utilization_pct"])
	}
	if rep.Summary["over_capacity"] != 1 {
		t.Errorf("Expected 1 depot over capacity, got %v", rep.Summary["over_capacity"])
	}
}

func TestGenerate_ProductionQualityEvents(t *testing.T) {
	resolved := time.Now()
	store := &fakeReportStore{
		events: []*storage.QualityEvent{
			{EventID: "QE-001", EventType: "temperature_excursion", Severity: "major", SiteID: "SITE-005", ProductID: "PROD-003", EventDate: time.Now(), ResolutionStatus: "open"},
			{EventID: "QE-002", EventType: "damaged_packaging", Severity: "minor", SiteID: "SITE-002", ProductID: "PROD-001", EventDate: time.Now(), ResolutionStatus: "resolved", ResolvedAt: &resolved},
		},
	}
	svc := NewService(store, &Config{Mode: "production"})

	rep, err := svc.Generate(context.Background(), Request{Type: TypeQualityEvents})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if rep.Summary["open_events"] != 1 {
		t.Errorf("Expected 1 open event, got %v", rep.Summary["open_events"])
	}
	bySeverity, ok := rep.Summary["by_severity"].(map[string]int)
	if !ok || bySeverity["major"] != 1 {
		t.Errorf("Expected severity breakdown with 1 major, got %v", rep.Summary["by_severity"])
	}
}

func TestNewID(t *testing.T) {
	pattern := regexp.MustCompile(`^RPT-[0-9A-F]{8}$`)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		id := newID("RPT")
		if !pattern.MatchString(id) {
			t.Fatalf("Expected RPT- plus 8 uppercase hex chars, got %s", id)
		}
		if seen[id] {
			t.Fatalf("Expected unique ids, got duplicate %s", id)
		}
		seen[id] = true
	}
}

func TestRunBatch_Demo(t *testing.T) {
	svc := NewService(nil, nil)

	result, err := svc.RunBatch(context.Background(), BatchRequest{OperationType: OpDataExport})
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}

	if !strings.HasPrefix(result.BatchID, "BATCH-DEMO-") {
		t.Errorf("Expected BATCH-DEMO- prefix, got %s", result.BatchID)
	}
	if result.Status != "completed" {
		t.Errorf("Expected completed status, got %s", result.Status)
	}
	if result.ProcessedRecords != 100 || result.FailedRecords != 0 {
		t.Errorf("Expected 100 processed and 0 failed, got %d/%d", result.ProcessedRecords, result.FailedRecords)
	}
}

func TestRunBatch_RejectsWrites(t *testing.T) {
	svc := NewService(nil, nil)

	for _, op := range []string{"bulk_update", "data_sync"} {
		_, err := svc.RunBatch(context.Background(), BatchRequest{OperationType: op})
		if !errors.Is(err, ErrUnsupportedOperation) {
			t.Errorf("Expected ErrUnsupportedOperation for %s, got %v", op, err)
		}
		if err != nil && !strings.Contains(err.Error(), "read only") {
			t.Errorf("Expected read-only explanation for %s, got %v", op, err)
		}
	}
}

func TestRunBatch_UnknownOperation(t *testing.T) {
	svc := NewService(nil, nil)

	_, err := svc.RunBatch(context.Background(), BatchRequest{OperationType: "reindex"})
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("Expected ErrUnsupportedOperation, got %v", err)
	}
}

func TestRunBatch_ProductionExport(t *testing.T) {
	store := &fakeReportStore{
		queryResult: &storage.QueryResult{
			Columns:  []string{"n"},
			Rows:     []map[string]any{{"n": int64(5)}},
			RowCount: 1,
		},
	}
	svc := NewService(store, &Config{Mode: "production"})

	result, err := svc.RunBatch(context.Background(), BatchRequest{OperationType: OpDataExport})
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}

	if len(result.Results) != len(exportTables) {
		t.Fatalf("Expected one result per table, got %d", len(result.Results))
	}
	if result.TotalRecords != 5*len(exportTables) {
		t.Errorf("Expected %d total records, got %d", 5*len(exportTables), result.TotalRecords)
	}
	if result.Status != "completed" {
		t.Errorf("Expected completed status, got %s", result.Status)
	}
	if !strings.Contains(store.gotSQL[0], "SELECT COUNT(*)") {
		t.Errorf("Expected count query, got %s", store.gotSQL[0])
	}
}

func TestScheduleReport(t *testing.T) {
	svc := NewService(nil, nil)

	sched, err := svc.ScheduleReport(TypeInventorySummary, FormatCSV, "0 8 * * 1", []string{"supply@example.com"})
	if err != nil {
		t.Fatalf("ScheduleReport failed: %v", err)
	}

	if !regexp.MustCompile(`^SCH-[0-9A-F]{8}$`).MatchString(sched.ScheduleID) {
		t.Errorf("Expected SCH- id, got %s", sched.ScheduleID)
	}
	if !sched.Active {
		t.Error("Expected new schedule to be active")
	}
	if sched.NextRun.Before(time.Now().UTC().Add(23 * time.Hour)) {
		t.Errorf("Expected next run about a day out, got %v", sched.NextRun)
	}

	listed := svc.Schedules()
	if len(listed) != 1 || listed[0].ScheduleID != sched.ScheduleID {
		t.Errorf("Expected schedule in listing, got %+v", listed)
	}
}

func TestScheduleReport_UnknownType(t *testing.T) {
	svc := NewService(nil, nil)

	if _, err := svc.ScheduleReport("budget_burn", FormatJSON, "0 8 * * *", nil); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Expected ErrUnknownType, got %v", err)
	}
}

func TestDeleteSchedule(t *testing.T) {
	svc := NewService(nil, nil)

	sched, err := svc.ScheduleReport(TypeShipmentStatus, FormatJSON, "0 8 * * *", nil)
	if err != nil {
		t.Fatalf("ScheduleReport failed: %v", err)
	}

	if !svc.DeleteSchedule(sched.ScheduleID) {
		t.Error("Expected delete to report the schedule existed")
	}
	if svc.DeleteSchedule(sched.ScheduleID) {
		t.Error("Expected second delete to report missing schedule")
	}
	if len(svc.Schedules()) != 0 {
		t.Error("Expected empty schedule listing after delete")
	}
}

func TestIntegration_ReportsOverSeedData(t *testing.T) {
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	defer db.Close()
	ctx := context.Background()

	if _, err := schema.NewManager(db.Pool).Deploy(ctx); err != nil {
		t.Fatalf("Failed to deploy schema: %v", err)
	}
	if err := db.CleanTables(ctx); err != nil {
		t.Fatalf("Failed to clean tables: %v", err)
	}

	store := storage.NewPostgresStore(db.Pool)
	if err := store.SeedDemoData(ctx); err != nil {
		t.Fatalf("Failed to seed demo data: %v", err)
	}

	svc := NewService(store, &Config{Mode: "production"})

	for _, reportType := range svc.Types() {
		rep, err := svc.Generate(ctx, Request{Type: reportType})
		if err != nil {
			t.Fatalf("Generate(%s) failed: %v", reportType, err)
		}
		if len(rep.Records) == 0 {
			t.Errorf("Expected records for %s over seed data", reportType)
		}
	}

	rep, err := svc.Generate(ctx, Request{Type: TypeInventorySummary, Format: FormatCSV})
	if err != nil {
		t.Fatalf("Generate csv failed: %v", err)
	}
	if !strings.HasPrefix(rep.CSV, "site_id,site_name,") {
		t.Errorf("Expected csv header, got %q", rep.CSV)
	}

	batch, err := svc.RunBatch(ctx, BatchRequest{OperationType: OpDataExport, Mode: "production"})
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if batch.TotalRecords == 0 {
		t.Error("Expected exported rows over seed data")
	}
}
