package storage

import (
	"context"
	"fmt"
	"time"
)

// ListInventory returns inventory items matching the given filters
func (s *PostgresStore) ListInventory(ctx context.Context, params InventoryListParams) ([]*InventoryItem, error) {
	query := `
		SELECT inventory_id, site_id, product_id, batch_number, quantity_on_hand,
		       quantity_available, quantity_allocated, minimum_stock_level, expiry_date,
		       storage_location, temperature_zone, last_counted_at, updated_at
		FROM gold_inventory
		WHERE 1=1
	`
	args := []any{}
	argNum := 1

	if params.SiteID != "" {
		query += fmt.Sprintf(" AND site_id = $%d", argNum)
		args = append(args, params.SiteID)
		argNum++
	}
	if params.ProductID != "" {
		query += fmt.Sprintf(" AND product_id = $%d", argNum)
		args = append(args, params.ProductID)
		argNum++
	}

	query += " ORDER BY site_id, product_id, batch_number"

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
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	var items []*InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}

	return items, nil
}

// LowStockSites aggregates sites where any item is below its minimum stock
// level, worst site first
func (s *PostgresStore) LowStockSites(ctx context.Context) ([]*SiteStockStatus, error) {
	query := `
		SELECT i.site_id, s.site_name,
		       COUNT(*) AS low_items,
		       COALESCE(SUM(i.quantity_available), 0) AS total_available,
		       COALESCE(MIN(i.quantity_available), 0) AS min_available
		FROM gold_inventory i
		JOIN gold_clinical_sites s ON s.site_id = i.site_id
		WHERE i.quantity_available < i.minimum_stock_level
		GROUP BY i.site_id, s.site_name
		ORDER BY min_available ASC, low_items DESC
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate low stock sites: %w", err)
	}
	defer rows.Close()

	var statuses []*SiteStockStatus
	for rows.Next() {
		var st SiteStockStatus
		if err := rows.Scan(&st.SiteID, &st.SiteName, &st.LowItemCount, &st.TotalAvailable, &st.MinAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan site stock status: %w", err)
		}
		statuses = append(statuses, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating low stock sites: %w", err)
	}

	return statuses, nil
}

// CriticalStockItems returns items with availability below the threshold
func (s *PostgresStore) CriticalStockItems(ctx context.Context, threshold int) ([]*InventoryItem, error) {
	query := `
		SELECT inventory_id, site_id, product_id, batch_number, quantity_on_hand,
		       quantity_available, quantity_allocated, minimum_stock_level, expiry_date,
		       storage_location, temperature_zone, last_counted_at, updated_at
		FROM gold_inventory
		WHERE quantity_available < $1
		ORDER BY quantity_available ASC
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list critical stock items: %w", err)
	}
	defer rows.Close()

	var items []*InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating critical stock items: %w", err)
	}

	return items, nil
}

// NearExpiryItems returns items expiring within the given window, soonest first
func (s *PostgresStore) NearExpiryItems(ctx context.Context, within time.Duration) ([]*InventoryItem, error) {
	query := `
		SELECT inventory_id, site_id, product_id, batch_number, quantity_on_hand,
		       quantity_available, quantity_allocated, minimum_stock_level, expiry_date,
		       storage_location, temperature_zone, last_counted_at, updated_at
		FROM gold_inventory
		WHERE expiry_date IS NOT NULL
		  AND expiry_date <= $1
		  AND quantity_on_hand > 0
		ORDER BY expiry_date ASC
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query, time.Now().Add(within))
	if err != nil {
		return nil, fmt.Errorf("failed to list near-expiry items: %w", err)
	}
	defer rows.Close()

	var items []*InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating near-expiry items: %w", err)
	}

	return items, nil
}

// InventoryCountedOn returns the number of inventory records counted on the given day
func (s *PostgresStore) InventoryCountedOn(ctx context.Context, day time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM gold_inventory
		WHERE last_counted_at >= $1 AND last_counted_at < $2
	`

	start := day.Truncate(24 * time.Hour)
	var count int
	err := s.getQuerier(ctx).QueryRow(ctx, query, start, start.Add(24*time.Hour)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count inventory movements: %w", err)
	}
	return count, nil
}

// SiteProductStock aggregates available stock per product for transfer planning.
// An empty siteID aggregates across all sites.
func (s *PostgresStore) SiteProductStock(ctx context.Context, siteID string) ([]*SiteProductStock, error) {
	query := `
		SELECT i.site_id, i.product_id,
		       COALESCE(SUM(i.quantity_available), 0) AS quantity_available,
		       COALESCE(MAX(i.minimum_stock_level), 0) AS minimum_stock_level,
		       COALESCE(MAX(p.unit_cost), 0) AS unit_cost
		FROM gold_inventory i
		JOIN gold_clinical_products p ON p.product_id = i.product_id
	`
	args := []any{}
	if siteID != "" {
		query += " WHERE i.site_id = $1"
		args = append(args, siteID)
	}
	query += " GROUP BY i.site_id, i.product_id ORDER BY i.site_id, i.product_id"

	rows, err := s.getQuerier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate site product stock: %w", err)
	}
	defer rows.Close()

	var stocks []*SiteProductStock
	for rows.Next() {
		var st SiteProductStock
		if err := rows.Scan(&st.SiteID, &st.ProductID, &st.QuantityAvailable, &st.MinimumStockLevel, &st.UnitCost); err != nil {
			return nil, fmt.Errorf("failed to scan site product stock: %w", err)
		}
		stocks = append(stocks, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating site product stock: %w", err)
	}

	return stocks, nil
}
