package briefing

import (
	"context"
	"fmt"
	"strings"

	"github.com/sallytsm/sally/llm"
)

const narrativePromptTemplate = `You are writing the executive summary for a clinical trial supply %s brief.

Operational snapshot:
%s

Write one short paragraph (at most 4 sentences) for a supply manager.
Lead with the most urgent item. Plain prose, no headers, no bullet points.`

// narrate composes the executive summary paragraph. It returns the empty
// string when no narrator is configured or the call fails, so briefs
// always render.
func (s *Service) narrate(ctx context.Context, brief *Brief) string {
	if s.config.Narrator == nil {
		return ""
	}

	resp, err := s.config.Narrator.Chat(ctx, llm.ChatRequest{
		Messages:    llm.UserMessage(fmt.Sprintf(narrativePromptTemplate, brief.Type, snapshot(brief))),
		MaxTokens:   300,
		Temperature: llm.TemperatureNarrative,
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(resp.Text)
}

// snapshot flattens the brief summary into prompt lines.
func snapshot(brief *Brief) string {
	lines := []string{
		fmt.Sprintf("- critical alerts: %d", brief.Summary.CriticalAlerts),
		fmt.Sprintf("- sites low on stock: %d", brief.Summary.SitesLowOnStock),
		fmt.Sprintf("- active shipments: %d (%d delayed)", brief.Summary.ActiveShipments, brief.Summary.DelayedShipments),
		fmt.Sprintf("- temperature alerts in 24h: %d", brief.Summary.TemperatureAlerts),
		fmt.Sprintf("- on-time delivery rate: %.1f%%", brief.Summary.OnTimeDeliveryRate),
	}
	if brief.Summary.EnrollmentPercent > 0 {
		lines = append(lines, fmt.Sprintf("- enrollment at %.1f%% of target", brief.Summary.EnrollmentPercent))
	}
	for _, rec := range brief.Sections.Recommendations {
		lines = append(lines, "- action: "+rec)
	}
	return strings.Join(lines, "\n")
}
