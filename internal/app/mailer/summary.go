package mailer

import (
	"slices"
)

// Rank counts all unread messages and picks up to limit of the most recent ones.
//
// Ordering is a stable sort by date descending, messages without a date
// sort as the oldest. Messages with equal dates keep collection order,
// which is mailbox order first and fetch order within mailbox second.
func Rank(messages []Message, limit int) Summary {
	sorted := slices.Clone(messages)
	slices.SortStableFunc(sorted, func(a, b Message) int {
		return b.Date.Compare(a.Date)
	})

	if limit < 0 {
		limit = 0
	}
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	return Summary{
		Count:  len(messages),
		Latest: sorted,
	}
}
