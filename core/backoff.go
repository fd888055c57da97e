package core

import "time"

// DefaultMaxAttempts is the retry ceiling: once an item has failed this
// many delivery attempts it is dead-lettered instead of rescheduled.
const DefaultMaxAttempts = 6

// DefaultBackoffTable doubles per attempt up to a 900 second ceiling, then
// stays flat. Indexed by min(attempt, len) - 1.
var DefaultBackoffTable = []time.Duration{
	30 * time.Second,
	60 * time.Second,
	120 * time.Second,
	240 * time.Second,
	480 * time.Second,
	900 * time.Second,
}

// TableBackoffPolicy resolves retry delays from a fixed table. Attempt
// numbers beyond the table length reuse the last entry.
type TableBackoffPolicy struct {
	Table []time.Duration
}

func (p TableBackoffPolicy) NextDelay(attempt int) time.Duration {
	table := p.Table
	if len(table) == 0 {
		table = DefaultBackoffTable
	}
	if attempt < 1 {
		attempt = 1
	}
	if attempt > len(table) {
		attempt = len(table)
	}
	return table[attempt-1]
}

// BackoffTableFromSeconds converts configuration values into a delay
// table, skipping non-positive entries.
func BackoffTableFromSeconds(seconds []int) []time.Duration {
	if len(seconds) == 0 {
		return nil
	}
	table := make([]time.Duration, 0, len(seconds))
	for _, value := range seconds {
		if value <= 0 {
			continue
		}
		table = append(table, time.Duration(value)*time.Second)
	}
	return table
}

var _ BackoffPolicy = TableBackoffPolicy{}
