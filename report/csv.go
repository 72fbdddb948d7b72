package report

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// csvColumns fixes the column order per report type so exports stay
// stable across releases.
var csvColumns = map[string][]string{
	TypeInventorySummary: {
		"site_id", "site_name", "total_units", "available_units",
		"status", "expiry_status", "days_of_supply",
	},
	TypeShipmentStatus: {
		"shipment_id", "shipment_number", "origin", "destination",
		"status", "priority", "carrier", "tracking_number",
		"shipped_date", "eta", "days_delayed",
	},
	TypeSitePerformance: {
		"site_id", "site_name", "country", "enrollment_rate",
		"current_enrollment", "target_enrollment", "progress_percentage",
		"inventory_status", "performance_score",
	},
	TypeQualityEvents: {
		"event_id", "event_type", "severity", "site_id", "product_id",
		"event_date", "resolution_status",
	},
	TypeTemperatureCompliance: {
		"log_id", "shipment_number", "recorded_at", "temperature_celsius",
		"humidity_percent", "excursion_detected",
	},
	TypeEnrollmentProgress: {
		"study_id", "study_name", "target_enrollment",
		"current_enrollment", "percent_of_target",
	},
	TypeDepotUtilization: {
		"depot_id", "depot_name", "region", "capacity_units",
		"current_utilization", "status",
	},
	TypeVendorPerformance: {
		"vendor_id", "vendor_name", "vendor_type", "country",
		"qualification_status", "performance_rating",
	},
}

// renderCSV writes the records as CSV using the fixed column set for
// the report type. Unknown columns in a record are ignored.
func renderCSV(reportType string, records []map[string]any) (string, error) {
	columns, ok := csvColumns[reportType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownType, reportType)
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}
	row := make([]string, len(columns))
	for _, record := range records {
		for i, col := range columns {
			row[i] = formatCell(record[col])
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.String(), nil
}

func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case time.Time:
		return c.Format("2006-01-02")
	case *time.Time:
		if c == nil {
			return ""
		}
		return c.Format("2006-01-02")
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(c), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprintf("%v", c)
	}
}
