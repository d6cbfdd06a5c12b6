package eventlog

import (
	"jiracounter/internal/jira"
	"sort"
	"strings"
	"time"
)

// FromIssue flattens the histories of an issue's changelog into raw field
// changes, in the order Jira reported them.
func FromIssue(dto jira.IssueDTO) []RawChange {
	if dto.Changelog == nil {
		return nil
	}

	var changes []RawChange
	for _, history := range dto.Changelog.Histories {
		author := history.Author.Label()
		for _, item := range history.Items {
			changes = append(changes, RawChange{
				Timestamp: history.Created,
				Author:    author,
				Field:     item.Field,
				From:      item.FromString,
				To:        item.ToString,
			})
		}
	}
	return changes
}

// Extract keeps only status changes and orders them by time. Entries sharing a
// timestamp keep their relative order. An entry with an unparseable timestamp
// is kept, with a zero Timestamp, right after the last well-formed entry that
// preceded it in the input.
func Extract(changes []RawChange) []StatusChangeEvent {
	type keyed struct {
		event StatusChangeEvent
		key   time.Time
	}

	var (
		items     []keyed
		lastValid time.Time
	)
	for _, c := range changes {
		if !strings.EqualFold(strings.TrimSpace(c.Field), StatusField) {
			continue
		}

		ev := StatusChangeEvent{
			RawTimestamp: c.Timestamp,
			FromStatus:   c.From,
			ToStatus:     c.To,
			Author:       c.Author,
		}
		key := lastValid
		if ts, err := jira.ParseTime(c.Timestamp); err == nil {
			ev.Timestamp = ts
			key = ts
			lastValid = ts
		}
		items = append(items, keyed{event: ev, key: key})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].key.Before(items[j].key)
	})

	events := make([]StatusChangeEvent, len(items))
	for i, it := range items {
		events[i] = it.event
	}
	return events
}

// ExtractIssue is FromIssue followed by Extract.
func ExtractIssue(dto jira.IssueDTO) []StatusChangeEvent {
	return Extract(FromIssue(dto))
}
