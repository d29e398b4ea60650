package executor

import (
	"fmt"
	"strings"
)

const briefingTruncationMarker = " [prior failure detail truncated]"

// BuildBriefing renders the accumulated failure history into the message
// passed downstream on the next attempt, one sentence per prior failure in
// order. The output is capped at limit bytes so the context handed to later
// attempts cannot grow without bound.
func BuildBriefing(history []AttemptRecord, limit int) string {
	var parts []string
	for _, record := range history {
		if record.Outcome != OutcomeFailure {
			continue
		}
		parts = append(parts, fmt.Sprintf(
			"previous candidate %d (%s) failed with error %s.",
			record.AttemptIndex, record.ResourceName, record.ErrorDetail,
		))
	}

	briefing := strings.Join(parts, " ")
	if limit > 0 && len(briefing) > limit {
		cut := limit - len(briefingTruncationMarker)
		if cut < 0 {
			cut = 0
		}
		briefing = briefing[:cut] + briefingTruncationMarker
	}
	return briefing
}
