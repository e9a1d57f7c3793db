package helpers

import (
	"sort"
	"strings"

	"github.com/doeshing/scriptgate/internal/domain"
)

// ActionStatistic represents how often an audit action was recorded
type ActionStatistic struct {
	Action string
	Count  int
}

// CalculateTopActions returns the top N most frequently recorded actions
// If limit is 0 or negative, returns all actions
func CalculateTopActions(actionFrequency map[string]int, limit int) []ActionStatistic {
	stats := convertFrequencyMapToStatistics(actionFrequency)
	sortStatisticsByFrequency(stats)

	if shouldLimitResults(limit, len(stats)) {
		return stats[:limit]
	}
	return stats
}

// convertFrequencyMapToStatistics converts a map to a slice of ActionStatistic
func convertFrequencyMapToStatistics(frequency map[string]int) []ActionStatistic {
	stats := make([]ActionStatistic, 0, len(frequency))
	for action, count := range frequency {
		stats = append(stats, ActionStatistic{
			Action: action,
			Count:  count,
		})
	}
	return stats
}

// sortStatisticsByFrequency sorts statistics by count (descending) then by action name (ascending)
func sortStatisticsByFrequency(stats []ActionStatistic) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Action < stats[j].Action
		}
		return stats[i].Count > stats[j].Count
	})
}

// shouldLimitResults checks if we should limit the results based on the limit and actual length
func shouldLimitResults(limit int, actualLength int) bool {
	return limit > 0 && actualLength > limit
}

// CalculateSuccessRate calculates the success rate as a percentage
func CalculateSuccessRate(successfulCount int, executedCount int) float64 {
	if executedCount == 0 {
		return 0.0
	}
	return float64(successfulCount) / float64(executedCount) * 100.0
}

// DeriveAuditHints suggests follow-ups for recurring problems in the audit trail.
// Returns a sorted list of unique hints
func DeriveAuditHints(events []domain.AuditEvent) []string {
	hintMap := make(map[string]string)

	for _, event := range events {
		addHintIfApplicable(hintMap, event)
	}

	return convertHintMapToSortedList(hintMap)
}

// addHintIfApplicable adds a hint to the map if the event matches known patterns
func addHintIfApplicable(hintMap map[string]string, event domain.AuditEvent) {
	hints := map[string]struct {
		match func(domain.AuditEvent) bool
		hint  string
	}{
		"rate_limited": {
			match: func(e domain.AuditEvent) bool { return e.Action == domain.ActionHTTPRateLimited },
			hint:  "GitHub rate limited some fetches; keep a CDN mirror in fetch.fallback_mirrors.",
		},
		"mirrors_failed": {
			match: func(e domain.AuditEvent) bool { return e.Action == domain.ActionHTTPFallbackFailed },
			hint:  "Every mirror failed for some URLs; check them with `scriptgate mirror <url>`.",
		},
		"cache_write": {
			match: func(e domain.AuditEvent) bool { return e.Action == domain.ActionCacheWrite && !e.Success },
			hint:  "Cache writes failed; check permissions of `scriptgate cache path`.",
		},
		"checksum_mismatch": {
			match: func(e domain.AuditEvent) bool {
				return strings.Contains(e.Detail, "reason:"+domain.ReasonChecksumMismatch)
			},
			hint: "A vetted script changed upstream; inspect it with `scriptgate scan <url>` before updating the checksum file.",
		},
		"execute_failed": {
			match: func(e domain.AuditEvent) bool { return e.Action == domain.ActionScriptExecute && !e.Success },
			hint:  "Some scripts exited non-zero; save them locally and run them by hand to debug.",
		},
	}

	for key, rule := range hints {
		if rule.match(event) {
			hintMap[key] = rule.hint
		}
	}
}

// convertHintMapToSortedList converts a hint map to a sorted slice
func convertHintMapToSortedList(hintMap map[string]string) []string {
	hints := make([]string, 0, len(hintMap))
	for _, hint := range hintMap {
		hints = append(hints, hint)
	}
	sort.Strings(hints)
	return hints
}
