package qa

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			"terminated statement in prose",
			"Here is the query: SELECT site_id, quantity_available FROM gold_inventory WHERE quantity_available < minimum_stock_level; Let me know if you need more.",
			"SELECT site_id, quantity_available FROM gold_inventory WHERE quantity_available < minimum_stock_level;",
		},
		{
			"fenced sql block",
			"```sql\nSELECT COUNT(*) FROM gold_shipments WHERE status = 'delayed';\n```",
			"SELECT COUNT(*) FROM gold_shipments WHERE status = 'delayed';",
		},
		{
			"bare fence without language",
			"```\nSELECT 1\n```",
			"SELECT 1",
		},
		{
			"unterminated trailing statement",
			"SQL: SELECT s.site_name FROM gold_clinical_sites s JOIN gold_inventory i ON i.site_id = s.site_id",
			"SELECT s.site_name FROM gold_clinical_sites s JOIN gold_inventory i ON i.site_id = s.site_id",
		},
		{
			"no sql present",
			"Just a normal text without any SQL query.",
			"",
		},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSQL(tt.text)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractChartType(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"A bar chart would show stock per site best.", "bar"},
		{"Plot this as a line graph over the last 26 weeks.", "line"},
		{"A pie chart of shipment status distribution.", "pie"},
		{"Present the results in table format.", "table"},
		{"Stock levels look fine across all depots.", ""},
		{"", ""},
	}

	for _, tt := range tests {
		got := ExtractChartType(tt.text)
		if got != tt.want {
			t.Errorf("ExtractChartType(%q): expected %q, got %q", tt.text, tt.want, got)
		}
	}
}

func TestExtractRecommendations(t *testing.T) {
	text := strings.Join([]string{
		"Based on current stock levels:",
		"- Transfer 40 units from SITE-002 to SITE-005",
		"- Expedite shipment SHIP-021",
		"1. Review minimum stock levels quarterly",
		"2) Notify the depot manager",
		"* Schedule a recount at SITE-003",
		"- Sixth recommendation that should be dropped",
		"Regular prose is ignored.",
	}, "\n")

	got := ExtractRecommendations(text)
	want := []string{
		"Transfer 40 units from SITE-002 to SITE-005",
		"Expedite shipment SHIP-021",
		"Review minimum stock levels quarterly",
		"Notify the depot manager",
		"Schedule a recount at SITE-003",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestExtractRecommendations_NoBullets(t *testing.T) {
	if got := ExtractRecommendations("All sites are adequately stocked."); got != nil {
		t.Errorf("Expected nil, got %v", got)
	}
}

func TestExtractSources(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			"single table",
			"SELECT * FROM gold_inventory",
			[]string{"gold_inventory"},
		},
		{
			"join dedupes and keeps order",
			"SELECT s.site_name, i.quantity_available FROM gold_inventory i JOIN gold_clinical_sites s ON s.site_id = i.site_id JOIN gold_inventory x ON x.inventory_id = i.inventory_id",
			[]string{"gold_inventory", "gold_clinical_sites"},
		},
		{
			"ignores non gold tables",
			"SELECT * FROM pg_stat_activity",
			nil,
		},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSources(tt.sql)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
