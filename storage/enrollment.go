package storage

import (
	"context"
	"fmt"
	"time"
)

// EnrollmentStats aggregates enrollment across active studies and flags
// studies running behind schedule (current below 70% of target).
func (s *PostgresStore) EnrollmentStats(ctx context.Context) (*EnrollmentStats, error) {
	query := `
		SELECT COALESCE(SUM(target_enrollment), 0),
		       COALESCE(SUM(current_enrollment), 0),
		       COUNT(*) FILTER (WHERE status = 'active')
		FROM gold_global_studies
	`

	var stats EnrollmentStats
	err := s.getQuerier(ctx).QueryRow(ctx, query).Scan(
		&stats.TotalTarget, &stats.TotalCurrent, &stats.ActiveStudies,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate enrollment: %w", err)
	}

	siteQuery := `SELECT COUNT(*) FROM gold_clinical_sites WHERE status = 'active'`
	if err := s.getQuerier(ctx).QueryRow(ctx, siteQuery).Scan(&stats.ActiveSites); err != nil {
		return nil, fmt.Errorf("failed to count active sites: %w", err)
	}

	behindQuery := `
		SELECT study_id, study_name, target_enrollment, current_enrollment
		FROM gold_global_studies
		WHERE status = 'active'
		  AND target_enrollment > 0
		  AND current_enrollment < target_enrollment * 0.7
		ORDER BY current_enrollment::float / target_enrollment ASC
	`

	rows, err := s.getQuerier(ctx).Query(ctx, behindQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list behind-schedule studies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var se StudyEnrollment
		if err := rows.Scan(&se.StudyID, &se.StudyName, &se.TargetEnrollment, &se.CurrentEnrollment); err != nil {
			return nil, fmt.Errorf("failed to scan study enrollment: %w", err)
		}
		if se.TargetEnrollment > 0 {
			se.PercentOfTarget = float64(se.CurrentEnrollment) / float64(se.TargetEnrollment) * 100
		}
		stats.BehindSchedule = append(stats.BehindSchedule, &se)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating behind-schedule studies: %w", err)
	}

	return &stats, nil
}

// WeeklyEnrollment returns subject enrollments per week for the trailing
// period, oldest week first. An empty studyID covers all studies.
func (s *PostgresStore) WeeklyEnrollment(ctx context.Context, studyID string, weeks int) ([]*WeeklyCount, error) {
	if weeks <= 0 {
		weeks = 26
	}
	query := `
		SELECT date_trunc('week', enrollment_date) AS week_start, COUNT(*)
		FROM gold_subjects
		WHERE enrollment_date >= $1
	`
	args := []any{time.Now().AddDate(0, 0, -7*weeks)}
	if studyID != "" {
		query += " AND study_id = $2"
		args = append(args, studyID)
	}
	query += " GROUP BY week_start ORDER BY week_start ASC"

	rows, err := s.getQuerier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly enrollment: %w", err)
	}
	defer rows.Close()

	var series []*WeeklyCount
	for rows.Next() {
		var wc WeeklyCount
		if err := rows.Scan(&wc.WeekStart, &wc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan weekly count: %w", err)
		}
		series = append(series, &wc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weekly enrollment: %w", err)
	}

	return series, nil
}

// EnrollmentsOn counts subjects enrolled on the given day
func (s *PostgresStore) EnrollmentsOn(ctx context.Context, day time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM gold_subjects
		WHERE enrollment_date >= $1 AND enrollment_date < $2
	`

	start := day.Truncate(24 * time.Hour)
	var count int
	err := s.getQuerier(ctx).QueryRow(ctx, query, start, start.Add(24*time.Hour)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return count, nil
}
