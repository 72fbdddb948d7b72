package analytics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sallytsm/sally/storage"
)

func TestDetectOutliers(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []int
	}{
		{
			"spike after enough history",
			[]float64{10, 11, 10, 11, 10, 11, 30},
			[]int{6},
		},
		{
			"spike too early to judge",
			[]float64{10, 11, 100, 11, 10, 11},
			nil,
		},
		{
			"constant history is skipped",
			[]float64{5, 5, 5, 5, 5, 5, 50},
			nil,
		},
		{
			"steady series",
			[]float64{10, 11, 10, 11, 10, 11, 10, 11},
			nil,
		},
		{
			"empty series",
			nil,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectOutliers(tt.values, RollingWindow, AnomalyThreshold)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected outliers %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Expected outliers %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestDetectOutliers_TrailingWindow(t *testing.T) {
	// With a window of 4 the flat early readings fall out of scope and
	// only the recent variance counts
	values := []float64{1, 2, 1, 2, 1, 2, 1, 50}
	got := DetectOutliers(values, 4, AnomalyThreshold)
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("Expected only index 7 flagged, got %v", got)
	}
}

func TestTemperatureAnomalies(t *testing.T) {
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	readings := []*storage.TemperatureReading{}
	for i, temp := range []float64{5.0, 5.2, 5.1, 4.9, 5.0, 11.5} {
		readings = append(readings, &storage.TemperatureReading{
			ShipmentID:         "SHIP-COLD",
			RecordedAt:         base.Add(time.Duration(i) * time.Hour),
			TemperatureCelsius: temp,
		})
	}
	for i, temp := range []float64{21.0, 21.3, 20.8, 21.1, 21.0, 20.9} {
		readings = append(readings, &storage.TemperatureReading{
			ShipmentID:         "SHIP-AMBIENT",
			RecordedAt:         base.Add(time.Duration(i) * time.Hour),
			TemperatureCelsius: temp,
		})
	}

	store := &fakeAnalyticsStore{readings: readings}
	svc := NewService(store)

	anomalies, err := svc.TemperatureAnomalies(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("TemperatureAnomalies failed: %v", err)
	}
	if len(anomalies) != 1 {
		t.Fatalf("Expected 1 anomaly, got %d", len(anomalies))
	}

	a := anomalies[0]
	if a.Kind != "temperature" {
		t.Errorf("Expected temperature kind, got %q", a.Kind)
	}
	if a.RefID != "SHIP-COLD" {
		t.Errorf("Expected SHIP-COLD flagged, got %q", a.RefID)
	}
	if a.Value != 11.5 {
		t.Errorf("Expected value 11.5, got %v", a.Value)
	}
	if !a.ObservedAt.Equal(base.Add(5 * time.Hour)) {
		t.Errorf("Expected the last reading's timestamp, got %v", a.ObservedAt)
	}
	if a.ZScore < AnomalyThreshold {
		t.Errorf("Expected z-score at or above threshold, got %v", a.ZScore)
	}
	if !strings.Contains(a.Message, "11.5C") {
		t.Errorf("Expected the reading in the message, got %q", a.Message)
	}
}

func TestEnrollmentAnomalies(t *testing.T) {
	store := &fakeAnalyticsStore{
		weekly: weeklyCounts(5, 5, 6, 5, 5, 6, 5, 25),
	}
	svc := NewService(store)

	anomalies, err := svc.EnrollmentAnomalies(context.Background(), "STUDY-001")
	if err != nil {
		t.Fatalf("EnrollmentAnomalies failed: %v", err)
	}
	if len(anomalies) != 1 {
		t.Fatalf("Expected 1 anomaly, got %d", len(anomalies))
	}

	a := anomalies[0]
	if a.Kind != "enrollment" {
		t.Errorf("Expected enrollment kind, got %q", a.Kind)
	}
	if a.RefID != "STUDY-001" {
		t.Errorf("Expected the study as reference, got %q", a.RefID)
	}
	if a.Value != 20 {
		t.Errorf("Expected a +20 delta, got %v", a.Value)
	}
	if !strings.Contains(a.Message, "surge") {
		t.Errorf("Expected a surge message, got %q", a.Message)
	}
	// The delta belongs to the week that jumped, not the baseline week
	wantWeek := store.weekly[7].WeekStart
	if !a.ObservedAt.Equal(wantWeek) {
		t.Errorf("Expected observation at %v, got %v", wantWeek, a.ObservedAt)
	}
}

func TestEnrollmentAnomalies_ShortHistory(t *testing.T) {
	store := &fakeAnalyticsStore{weekly: weeklyCounts(5)}
	svc := NewService(store)

	anomalies, err := svc.EnrollmentAnomalies(context.Background(), "STUDY-001")
	if err != nil {
		t.Fatalf("EnrollmentAnomalies failed: %v", err)
	}
	if anomalies != nil {
		t.Errorf("Expected no anomalies for a single week, got %v", anomalies)
	}
}
