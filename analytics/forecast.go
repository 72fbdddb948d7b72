package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sallytsm/sally/storage"
)

// Forecast defaults
const (
	SmoothingAlpha      = 0.3
	DefaultWeeklyRate   = 0.5
	DefaultHorizonWeeks = 12
	HistoryWeeks        = 26
)

// DosingModel describes how enrolled subjects consume kits.
type DosingModel struct {
	// FrequencyWeeks is the number of weeks between doses
	FrequencyWeeks int
	// KitsPerDose is the number of kits dispensed per dosing visit
	KitsPerDose int
	// DurationWeeks is how long a subject stays on treatment
	DurationWeeks int
}

// DefaultDosingModel returns the standard dosing assumptions.
func DefaultDosingModel() DosingModel {
	return DosingModel{FrequencyWeeks: 4, KitsPerDose: 1, DurationWeeks: 52}
}

// ForecastPoint is the expected demand for one future week.
type ForecastPoint struct {
	WeekStart      time.Time `json:"week_start"`
	ActiveSubjects float64   `json:"active_subjects"`
	NewEnrollments float64   `json:"new_enrollments"`
	KitsRequired   int       `json:"kits_required"`
	CumulativeKits int       `json:"cumulative_kits"`
}

// DemandForecast is a per-study kit demand projection.
type DemandForecast struct {
	StudyID       string          `json:"study_id"`
	WeeklyRate    float64         `json:"weekly_enrollment_rate"`
	HistoryPoints int             `json:"history_points"`
	HorizonWeeks  int             `json:"horizon_weeks"`
	Dosing        DosingModel     `json:"-"`
	Points        []ForecastPoint `json:"points"`
	TotalKits     int             `json:"total_kits"`
	Confidence    float64         `json:"confidence"`
	Method        string          `json:"method"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

// SmoothEnrollmentRate reduces a weekly enrollment history to a single
// smoothed weekly rate using simple exponential smoothing. Returns
// DefaultWeeklyRate when the history is empty.
func SmoothEnrollmentRate(history []*storage.WeeklyCount, alpha float64) float64 {
	if len(history) == 0 {
		return DefaultWeeklyRate
	}

	smoothed := float64(history[0].Count)
	for _, week := range history[1:] {
		smoothed = alpha*float64(week.Count) + (1-alpha)*smoothed
	}
	return smoothed
}

// DemandForecast projects weekly kit demand for a study. A zero horizon
// uses DefaultHorizonWeeks.
func (s *Service) DemandForecast(ctx context.Context, studyID string, horizonWeeks int) (*DemandForecast, error) {
	if horizonWeeks <= 0 {
		horizonWeeks = DefaultHorizonWeeks
	}

	study, err := s.store.GetStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.WeeklyEnrollment(ctx, studyID, HistoryWeeks)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment history: %w", err)
	}

	rate := SmoothEnrollmentRate(history, SmoothingAlpha)
	method := "exponential_smoothing"
	if len(history) == 0 {
		method = "default_rate"
	}

	confidence := 0.6
	switch {
	case len(history) > 2:
		confidence = 0.9
	case len(history) > 1:
		confidence = 0.75
	}

	dosing := DefaultDosingModel()
	forecast := &DemandForecast{
		StudyID:       studyID,
		WeeklyRate:    rate,
		HistoryPoints: len(history),
		HorizonWeeks:  horizonWeeks,
		Dosing:        dosing,
		Confidence:    confidence,
		Method:        method,
		GeneratedAt:   time.Now().UTC(),
	}

	weekStart := startOfWeek(time.Now())
	active := float64(study.CurrentEnrollment)
	cumulative := 0
	for week := 1; week <= horizonWeeks; week++ {
		active += rate
		kits := int(math.Ceil(active * float64(dosing.KitsPerDose) / float64(dosing.FrequencyWeeks)))
		cumulative += kits
		forecast.Points = append(forecast.Points, ForecastPoint{
			WeekStart:      weekStart.AddDate(0, 0, 7*week),
			ActiveSubjects: active,
			NewEnrollments: rate,
			KitsRequired:   kits,
			CumulativeKits: cumulative,
		})
	}
	forecast.TotalKits = cumulative

	return forecast, nil
}

// startOfWeek truncates to the Monday of the given week.
func startOfWeek(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
