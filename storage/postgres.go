package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// txContextKey is the context key for storing pgx.Tx
type txContextKey struct{}

// WithTx returns a new context with the given transaction
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext retrieves the transaction from context, or nil if not present
func TxFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// txStrippedContext is a context wrapper that hides the transaction from nested contexts
type txStrippedContext struct {
	context.Context
}

func (c *txStrippedContext) Value(key any) any {
	if _, ok := key.(txContextKey); ok {
		return nil
	}
	return c.Context.Value(key)
}

// StripTx creates a new context without the transaction value
// but preserving deadline, cancellation, and other values.
func StripTx(ctx context.Context) context.Context {
	return &txStrippedContext{ctx}
}

// querier is a common interface for pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresStore implements Store using PostgreSQL with pgx
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool exposes the underlying connection pool for subsystems that manage
// their own SQL (schema deployment, vector search, leader election).
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// getQuerier returns the transaction from context if present, otherwise the pool
func (s *PostgresStore) getQuerier(ctx context.Context) querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

// Ping verifies database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	var one int
	if err := s.getQuerier(ctx).QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// ListStudies returns all studies ordered by study ID
func (s *PostgresStore) ListStudies(ctx context.Context) ([]*Study, error) {
	query := `
		SELECT study_id, study_name, protocol_number, phase, therapeutic_area, status,
		       start_date, estimated_completion, target_enrollment, current_enrollment,
		       created_at, updated_at
		FROM gold_global_studies
		ORDER BY study_id
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list studies: %w", err)
	}
	defer rows.Close()

	var studies []*Study
	for rows.Next() {
		study, err := scanStudy(rows)
		if err != nil {
			return nil, err
		}
		studies = append(studies, study)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating studies: %w", err)
	}

	return studies, nil
}

// GetStudy retrieves a study by ID
func (s *PostgresStore) GetStudy(ctx context.Context, studyID string) (*Study, error) {
	query := `
		SELECT study_id, study_name, protocol_number, phase, therapeutic_area, status,
		       start_date, estimated_completion, target_enrollment, current_enrollment,
		       created_at, updated_at
		FROM gold_global_studies
		WHERE study_id = $1
	`

	study, err := scanStudy(s.getQuerier(ctx).QueryRow(ctx, query, studyID))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w: study %s", ErrNotFound, studyID)
	}
	if err != nil {
		return nil, err
	}
	return study, nil
}

// ListSites returns sites matching the given filters
func (s *PostgresStore) ListSites(ctx context.Context, params SiteListParams) ([]*Site, error) {
	query := `
		SELECT site_id, study_id, site_name, site_number, country, city, status,
		       activation_date, target_enrollment, current_enrollment,
		       performance_score, risk_score, created_at, updated_at
		FROM gold_clinical_sites
		WHERE 1=1
	`
	args := []any{}
	argNum := 1

	if params.StudyID != "" {
		query += fmt.Sprintf(" AND study_id = $%d", argNum)
		args = append(args, params.StudyID)
		argNum++
	}
	if params.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, params.Status)
		argNum++
	}
	if params.Country != "" {
		query += fmt.Sprintf(" AND country = $%d", argNum)
		args = append(args, params.Country)
		argNum++
	}

	query += " ORDER BY site_id"

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, params.Limit)
		argNum++
	}
	if params.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, params.Offset)
	}

	rows, err := s.getQuerier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []*Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sites: %w", err)
	}

	return sites, nil
}

// GetSite retrieves a site by ID
func (s *PostgresStore) GetSite(ctx context.Context, siteID string) (*Site, error) {
	query := `
		SELECT site_id, study_id, site_name, site_number, country, city, status,
		       activation_date, target_enrollment, current_enrollment,
		       performance_score, risk_score, created_at, updated_at
		FROM gold_clinical_sites
		WHERE site_id = $1
	`

	site, err := scanSite(s.getQuerier(ctx).QueryRow(ctx, query, siteID))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w: site %s", ErrNotFound, siteID)
	}
	if err != nil {
		return nil, err
	}
	return site, nil
}

// SitesAtRisk returns active sites with a risk score at or above the
// threshold, highest risk first
func (s *PostgresStore) SitesAtRisk(ctx context.Context, minRiskScore float64) ([]*Site, error) {
	query := `
		SELECT site_id, study_id, site_name, site_number, country, city, status,
		       activation_date, target_enrollment, current_enrollment,
		       performance_score, risk_score, created_at, updated_at
		FROM gold_clinical_sites
		WHERE status = 'active' AND risk_score >= $1
		ORDER BY risk_score DESC
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query, minRiskScore)
	if err != nil {
		return nil, fmt.Errorf("failed to list at-risk sites: %w", err)
	}
	defer rows.Close()

	var sites []*Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating at-risk sites: %w", err)
	}

	return sites, nil
}

// ListProducts returns all products ordered by product ID
func (s *PostgresStore) ListProducts(ctx context.Context) ([]*Product, error) {
	query := `
		SELECT product_id, study_id, product_name, product_type, dosage_form, strength,
		       storage_conditions, shelf_life_months, unit_cost, requires_cold_chain
		FROM gold_clinical_products
		ORDER BY product_id
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ProductID, &p.StudyID, &p.ProductName, &p.ProductType, &p.DosageForm,
			&p.Strength, &p.StorageConditions, &p.ShelfLifeMonths, &p.UnitCost,
			&p.RequiresColdChain,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetProduct retrieves a product by ID
func (s *PostgresStore) GetProduct(ctx context.Context, productID string) (*Product, error) {
	query := `
		SELECT product_id, study_id, product_name, product_type, dosage_form, strength,
		       storage_conditions, shelf_life_months, unit_cost, requires_cold_chain
		FROM gold_clinical_products
		WHERE product_id = $1
	`

	var p Product
	err := s.getQuerier(ctx).QueryRow(ctx, query, productID).Scan(
		&p.ProductID, &p.StudyID, &p.ProductName, &p.ProductType, &p.DosageForm,
		&p.Strength, &p.StorageConditions, &p.ShelfLifeMonths, &p.UnitCost,
		&p.RequiresColdChain,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// ListDepots returns all regional depots
func (s *PostgresStore) ListDepots(ctx context.Context) ([]*Depot, error) {
	query := `
		SELECT depot_id, depot_name, region, country, city, capacity_units,
		       current_utilization, temperature_zones, status
		FROM gold_regional_depots
		ORDER BY depot_id
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list depots: %w", err)
	}
	defer rows.Close()

	var depots []*Depot
	for rows.Next() {
		var d Depot
		if err := rows.Scan(
			&d.DepotID, &d.DepotName, &d.Region, &d.Country, &d.City,
			&d.CapacityUnits, &d.CurrentUtilization, &d.TemperatureZones, &d.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan depot: %w", err)
		}
		depots = append(depots, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating depots: %w", err)
	}

	return depots, nil
}

// ListVendors returns all vendors ordered by vendor ID
func (s *PostgresStore) ListVendors(ctx context.Context) ([]*Vendor, error) {
	query := `
		SELECT vendor_id, vendor_name, vendor_type, country, qualification_status,
		       performance_rating, last_audit_date
		FROM gold_global_vendors
		ORDER BY vendor_id
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(
			&v.VendorID, &v.VendorName, &v.VendorType, &v.Country,
			&v.QualificationStatus, &v.PerformanceRating, &v.LastAuditDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vendors: %w", err)
	}

	return vendors, nil
}

// RunReadOnlyQuery executes a validated SELECT statement and returns at most
// maxRows rows. Callers validate the statement first; the read-only
// transaction is a second line of defense.
func (s *PostgresStore) RunReadOnlyQuery(ctx context.Context, sql string, maxRows int) (*QueryResult, error) {
	if maxRows <= 0 {
		maxRows = 100
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read-only transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	result := &QueryResult{Columns: columns}
	for rows.Next() {
		if result.RowCount >= maxRows {
			result.Truncated = true
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
		result.RowCount++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating query rows: %w", err)
	}

	return result, nil
}

// scanStudy scans a study from a row (works with both Row and Rows)
func scanStudy(row pgx.Row) (*Study, error) {
	var study Study
	err := row.Scan(
		&study.StudyID, &study.StudyName, &study.ProtocolNumber, &study.Phase,
		&study.TherapeuticArea, &study.Status, &study.StartDate,
		&study.EstimatedCompletion, &study.TargetEnrollment, &study.CurrentEnrollment,
		&study.CreatedAt, &study.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan study: %w", err)
	}
	return &study, nil
}

// scanSite scans a site from a row (works with both Row and Rows)
func scanSite(row pgx.Row) (*Site, error) {
	var site Site
	err := row.Scan(
		&site.SiteID, &site.StudyID, &site.SiteName, &site.SiteNumber, &site.Country,
		&site.City, &site.Status, &site.ActivationDate, &site.TargetEnrollment,
		&site.CurrentEnrollment, &site.PerformanceScore, &site.RiskScore,
		&site.CreatedAt, &site.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan site: %w", err)
	}
	return &site, nil
}

// scanShipment scans a shipment from a row (works with both Row and Rows)
func scanShipment(row pgx.Row) (*Shipment, error) {
	var sh Shipment
	err := row.Scan(
		&sh.ShipmentID, &sh.ShipmentNumber, &sh.OriginDepotID, &sh.DestinationSiteID,
		&sh.Status, &sh.Priority, &sh.Carrier, &sh.TrackingNumber, &sh.ShippedDate,
		&sh.ExpectedDelivery, &sh.ActualDelivery, &sh.DeliveryDelayDays,
		&sh.TemperatureControlled, &sh.CreatedAt, &sh.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan shipment: %w", err)
	}
	return &sh, nil
}

// scanInventoryItem scans an inventory item from a row (works with both Row and Rows)
func scanInventoryItem(row pgx.Row) (*InventoryItem, error) {
	var item InventoryItem
	err := row.Scan(
		&item.InventoryID, &item.SiteID, &item.ProductID, &item.BatchNumber,
		&item.QuantityOnHand, &item.QuantityAvailable, &item.QuantityAllocated,
		&item.MinimumStockLevel, &item.ExpiryDate, &item.StorageLocation,
		&item.TemperatureZone, &item.LastCountedAt, &item.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan inventory item: %w", err)
	}
	return &item, nil
}

// scanQualityEvent scans a quality event from a row (works with both Row and Rows)
func scanQualityEvent(row pgx.Row) (*QualityEvent, error) {
	var ev QualityEvent
	err := row.Scan(
		&ev.EventID, &ev.EventType, &ev.Severity, &ev.SiteID, &ev.ProductID,
		&ev.BatchNumber, &ev.Description, &ev.EventDate, &ev.ResolutionStatus,
		&ev.ResolvedAt, &ev.CorrectiveAction,
	)
	if err == pgx.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan quality event: %w", err)
	}
	return &ev, nil
}
