package analytics

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Projection classifications
const (
	TrackComplete = "complete"
	TrackOnTrack  = "on_track"
	TrackBehind   = "behind"
	TrackStalled  = "stalled"
)

// EnrollmentProjection is a linear projection of enrollment progress.
type EnrollmentProjection struct {
	StudyID             string     `json:"study_id"`
	TargetEnrollment    int        `json:"target_enrollment"`
	CurrentEnrollment   int        `json:"current_enrollment"`
	WeeklyRate          float64    `json:"weekly_rate"`
	RemainingSubjects   int        `json:"remaining_subjects"`
	WeeksToTarget       float64    `json:"weeks_to_target,omitempty"`
	ProjectedCompletion *time.Time `json:"projected_completion,omitempty"`
	PlannedCompletion   *time.Time `json:"planned_completion,omitempty"`
	Classification      string     `json:"classification"`
}

// EnrollmentProjection projects when a study reaches its enrollment
// target at the current smoothed weekly rate.
func (s *Service) EnrollmentProjection(ctx context.Context, studyID string) (*EnrollmentProjection, error) {
	study, err := s.store.GetStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.WeeklyEnrollment(ctx, studyID, HistoryWeeks)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment history: %w", err)
	}

	rate := 0.0
	if len(history) > 0 {
		rate = SmoothEnrollmentRate(history, SmoothingAlpha)
	}

	projection := &EnrollmentProjection{
		StudyID:           studyID,
		TargetEnrollment:  study.TargetEnrollment,
		CurrentEnrollment: study.CurrentEnrollment,
		WeeklyRate:        rate,
		RemainingSubjects: study.TargetEnrollment - study.CurrentEnrollment,
		PlannedCompletion: study.EstimatedCompletion,
	}

	if projection.RemainingSubjects <= 0 {
		projection.RemainingSubjects = 0
		projection.Classification = TrackComplete
		return projection, nil
	}
	if rate <= 0 {
		projection.Classification = TrackStalled
		return projection, nil
	}

	weeks := float64(projection.RemainingSubjects) / rate
	projection.WeeksToTarget = math.Round(weeks*10) / 10
	completion := time.Now().AddDate(0, 0, int(math.Ceil(weeks*7)))
	projection.ProjectedCompletion = &completion

	projection.Classification = classify(completion, study.EstimatedCompletion,
		study.CurrentEnrollment, study.TargetEnrollment)
	return projection, nil
}

// classify compares the projected completion against the plan when one
// exists, and falls back to the 70% progress rule otherwise.
func classify(projected time.Time, planned *time.Time, current, target int) string {
	if planned != nil {
		if projected.After(*planned) {
			return TrackBehind
		}
		return TrackOnTrack
	}
	if target > 0 && float64(current) < 0.7*float64(target) {
		return TrackBehind
	}
	return TrackOnTrack
}
