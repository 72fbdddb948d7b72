package qa

import (
	"fmt"
	"regexp"
	"strings"
)

// forbiddenSQLKeywords are operations the assistant must never execute.
// Matching is case-insensitive on word boundaries, so column names like
// updated_at or created_by do not trip the guard.
var forbiddenSQLKeywords = []string{
	"DROP", "DELETE", "TRUNCATE", "ALTER", "CREATE",
	"INSERT", "UPDATE", "EXEC", "EXECUTE", "GRANT", "REVOKE",
}

var forbiddenSQLPattern = regexp.MustCompile(
	`(?i)\b(` + strings.Join(forbiddenSQLKeywords, "|") + `)\b`)

// hallucinationMarkers are phrases that indicate the model answered from
// its own prior knowledge instead of the retrieved context.
var hallucinationMarkers = []string{
	"i don't have access",
	"i cannot access",
	"as an ai",
	"i am not able to",
}

// minAnswerLength is the shortest response accepted as a real answer.
const minAnswerLength = 20

// FallbackAnswer replaces responses that fail the response guardrail.
const FallbackAnswer = "I apologize, but I need more context to provide a reliable answer. Could you please rephrase your question?"

// ValidateSQL checks that a statement is a single read-only SELECT.
// It rejects empty input, statements that do not start with SELECT,
// multiple statements, and any forbidden keyword.
func ValidateSQL(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return fmt.Errorf("%w: empty query", ErrSQLRejected)
	}

	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") {
		return fmt.Errorf("%w: only SELECT queries are allowed", ErrSQLRejected)
	}

	if n := strings.Count(trimmed, ";"); n > 1 {
		return fmt.Errorf("%w: multiple statements are not allowed", ErrSQLRejected)
	} else if n == 1 && !strings.HasSuffix(trimmed, ";") {
		return fmt.Errorf("%w: multiple statements are not allowed", ErrSQLRejected)
	}

	if m := forbiddenSQLPattern.FindString(trimmed); m != "" {
		return fmt.Errorf("%w: forbidden operation %s", ErrSQLRejected, strings.ToUpper(m))
	}

	return nil
}

// ValidateResponse checks a model answer for hallucination markers and a
// minimum useful length. Callers replace failing answers with
// FallbackAnswer rather than surfacing them.
func ValidateResponse(answer string) error {
	trimmed := strings.TrimSpace(answer)
	if len(trimmed) < minAnswerLength {
		return fmt.Errorf("%w: answer too short", ErrAnswerRejected)
	}

	lower := strings.ToLower(trimmed)
	for _, marker := range hallucinationMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: answer contains %q", ErrAnswerRejected, marker)
		}
	}

	return nil
}
