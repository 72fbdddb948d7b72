package service

import (
	"context"
	"errors"
	"time"

	"github.com/sallytsm/sally/briefing"
	"github.com/sallytsm/sally/storage"
)

// Brief returns the brief of the given type for the given day. An empty
// mode means the current application mode. The stored copy is served when
// it matches the requested mode, so dashboard refreshes reuse the
// narrative the scheduler already paid for; otherwise the brief is
// composed fresh without being persisted.
func (s *Service) Brief(ctx context.Context, briefType string, day time.Time, mode string) (*briefing.Brief, error) {
	svc := s.client.Briefing()
	if mode == "" {
		mode = svc.Mode()
	}

	stored, err := svc.Latest(ctx, briefType, day)
	switch {
	case err == nil:
		if brief, derr := briefing.FromStored(stored); derr == nil && brief.Mode == mode {
			return brief, nil
		}
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}

	return svc.Compose(ctx, briefType, day, mode)
}

// BriefHistory returns recently generated briefs flattened for list
// rendering, newest first.
func (s *Service) BriefHistory(ctx context.Context, limit int) ([]*BriefSummary, error) {
	stored, err := s.client.Briefing().History(ctx, ValidateLimit(limit))
	if err != nil {
		return nil, err
	}

	summaries := make([]*BriefSummary, 0, len(stored))
	for _, sb := range stored {
		summary := &BriefSummary{
			BriefID:     sb.BriefID,
			BriefType:   sb.BriefType,
			BriefDate:   sb.BriefDate.Format("2006-01-02"),
			GeneratedAt: sb.GeneratedAt,
		}
		// Rows that predate the current payload shape still list with
		// their storage fields
		if brief, err := briefing.FromStored(sb); err == nil {
			summary.Mode = brief.Mode
			summary.CriticalAlerts = brief.Summary.CriticalAlerts
			summary.SitesLowStock = brief.Summary.SitesLowOnStock
			summary.Narrative = brief.Narrative
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
