package qa

import (
	"regexp"
	"strings"
)

var (
	fencedSQLPattern     = regexp.MustCompile("(?is)```(?:sql)?\\s*(.*?)```")
	terminatedSQLPattern = regexp.MustCompile(`(?is)\bSELECT\b.*?;`)
	openSQLPattern       = regexp.MustCompile(`(?is)\bSELECT\b.*`)
	numberedLinePattern  = regexp.MustCompile(`^\d+[.)]\s+`)

	sourceTablePattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+(gold_\w+)`)
)

// ExtractSQL pulls the first SELECT statement out of free-form model
// output. It prefers fenced code blocks, then a semicolon-terminated
// statement, then a trailing unterminated SELECT. Returns the empty
// string when no SELECT is present.
func ExtractSQL(text string) string {
	if m := fencedSQLPattern.FindStringSubmatch(text); m != nil {
		block := strings.TrimSpace(m[1])
		if stmt := terminatedSQLPattern.FindString(block); stmt != "" {
			return strings.TrimSpace(stmt)
		}
		if stmt := openSQLPattern.FindString(block); stmt != "" {
			return strings.TrimSpace(stmt)
		}
	}

	if stmt := terminatedSQLPattern.FindString(text); stmt != "" {
		return strings.TrimSpace(stmt)
	}
	if stmt := openSQLPattern.FindString(text); stmt != "" {
		return strings.TrimSpace(stmt)
	}

	return ""
}

// ExtractChartType maps visualization hints in model output to a chart
// kind understood by the dashboard. Returns the empty string when the
// text suggests no particular visualization.
func ExtractChartType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "bar chart") || strings.Contains(lower, "bar graph"):
		return "bar"
	case strings.Contains(lower, "line chart") || strings.Contains(lower, "line graph"):
		return "line"
	case strings.Contains(lower, "pie chart"):
		return "pie"
	case strings.Contains(lower, "table"):
		return "table"
	}
	return ""
}

// ExtractRecommendations collects bulleted ("- ", "* ") and numbered
// ("1. ", "2) ") lines from model output, capped at five entries.
func ExtractRecommendations(text string) []string {
	var recs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		var item string
		switch {
		case strings.HasPrefix(line, "- "):
			item = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "* "):
			item = strings.TrimSpace(line[2:])
		case numberedLinePattern.MatchString(line):
			item = strings.TrimSpace(numberedLinePattern.ReplaceAllString(line, ""))
		}
		if item == "" {
			continue
		}
		recs = append(recs, item)
		if len(recs) == 5 {
			break
		}
	}
	return recs
}

// ExtractSources lists the distinct gold-layer tables a statement reads
// from, in order of first appearance.
func ExtractSources(sql string) []string {
	var sources []string
	seen := make(map[string]bool)
	for _, m := range sourceTablePattern.FindAllStringSubmatch(sql, -1) {
		table := strings.ToLower(m[1])
		if seen[table] {
			continue
		}
		seen[table] = true
		sources = append(sources, table)
	}
	return sources
}
