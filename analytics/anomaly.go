package analytics

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Anomaly detection defaults
const (
	AnomalyThreshold = 2.5
	RollingWindow    = 24
	minWindowPoints  = 4
)

// Anomaly is a statistical outlier in an operational series.
type Anomaly struct {
	Kind       string    `json:"kind"`
	RefID      string    `json:"ref_id"`
	ObservedAt time.Time `json:"observed_at"`
	Value      float64   `json:"value"`
	ZScore     float64   `json:"z_score"`
	Message    string    `json:"message"`
}

// DetectOutliers returns the indices of values whose z-score against the
// rolling window of preceding points meets the threshold. Points before
// minWindowPoints of history are never flagged.
func DetectOutliers(values []float64, window int, threshold float64) []int {
	if window <= 0 {
		window = RollingWindow
	}

	var outliers []int
	for i := range values {
		start := i - window
		if start < 0 {
			start = 0
		}
		prior := values[start:i]
		if len(prior) < minWindowPoints {
			continue
		}

		mean, std := meanStd(prior)
		if std == 0 {
			continue
		}
		z := (values[i] - mean) / std
		if math.Abs(z) >= threshold {
			outliers = append(outliers, i)
		}
	}
	return outliers
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// TemperatureAnomalies flags outlier readings per shipment over the
// given window.
func (s *Service) TemperatureAnomalies(ctx context.Context, window time.Duration) ([]*Anomaly, error) {
	readings, err := s.store.TemperatureSeries(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("failed to load temperature series: %w", err)
	}

	// Series arrive ordered by time; split per shipment preserving order
	order := []string{}
	values := make(map[string][]float64)
	times := make(map[string][]time.Time)
	for _, r := range readings {
		if _, ok := values[r.ShipmentID]; !ok {
			order = append(order, r.ShipmentID)
		}
		values[r.ShipmentID] = append(values[r.ShipmentID], r.TemperatureCelsius)
		times[r.ShipmentID] = append(times[r.ShipmentID], r.RecordedAt)
	}

	var anomalies []*Anomaly
	for _, shipmentID := range order {
		series := values[shipmentID]
		for _, idx := range DetectOutliers(series, RollingWindow, AnomalyThreshold) {
			mean, std := meanStd(windowBefore(series, idx))
			z := (series[idx] - mean) / std
			anomalies = append(anomalies, &Anomaly{
				Kind:       "temperature",
				RefID:      shipmentID,
				ObservedAt: times[shipmentID][idx],
				Value:      series[idx],
				ZScore:     round2(z),
				Message:    fmt.Sprintf("reading %.1fC deviates %.1f standard deviations from the recent trend", series[idx], math.Abs(z)),
			})
		}
	}
	return anomalies, nil
}

// EnrollmentAnomalies flags weeks whose enrollment delta is an outlier
// against the preceding weeks.
func (s *Service) EnrollmentAnomalies(ctx context.Context, studyID string) ([]*Anomaly, error) {
	history, err := s.store.WeeklyEnrollment(ctx, studyID, HistoryWeeks)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment history: %w", err)
	}
	if len(history) < 2 {
		return nil, nil
	}

	deltas := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		deltas = append(deltas, float64(history[i].Count-history[i-1].Count))
	}

	var anomalies []*Anomaly
	for _, idx := range DetectOutliers(deltas, RollingWindow, AnomalyThreshold) {
		mean, std := meanStd(windowBefore(deltas, idx))
		z := (deltas[idx] - mean) / std
		week := history[idx+1]
		direction := "surge"
		if deltas[idx] < mean {
			direction = "drop"
		}
		anomalies = append(anomalies, &Anomaly{
			Kind:       "enrollment",
			RefID:      studyID,
			ObservedAt: week.WeekStart,
			Value:      deltas[idx],
			ZScore:     round2(z),
			Message:    fmt.Sprintf("week-over-week enrollment %s of %+.0f subjects", direction, deltas[idx]),
		})
	}
	return anomalies, nil
}

func windowBefore(values []float64, idx int) []float64 {
	start := idx - RollingWindow
	if start < 0 {
		start = 0
	}
	return values[start:idx]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
