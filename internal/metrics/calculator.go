// Package metrics computes working-time analytics for a single issue from
// its creation instant, its status history and an as-of instant.
package metrics

import (
	"errors"
	"fmt"
	"jiracounter/internal/calendar"
	"jiracounter/internal/eventlog"
	"jiracounter/internal/workflow"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// DefaultInitialStatus is assumed when neither the history nor the caller
// names a starting status.
const DefaultInitialStatus = "Backlog"

// ErrInvalidInput is returned when a mandatory instant is missing.
var ErrInvalidInput = errors.New("metrics: invalid input")

var validate = validator.New()

// Input is everything the calculator needs for one issue.
type Input struct {
	Created time.Time `validate:"required"`
	AsOf    time.Time `validate:"required"`
	// CurrentStatus is only consulted when Events is empty.
	CurrentStatus string
	Events        []eventlog.StatusChangeEvent
}

// Calculator derives a Record from an Input. It holds only immutable tables
// and is safe for concurrent use.
type Calculator struct {
	clock      *calendar.Clock
	aliases    *workflow.AliasTable
	categories *workflow.CategoryTable
	logger     zerolog.Logger
}

// NewCalculator creates a Calculator over the given clock and status tables.
func NewCalculator(clock *calendar.Clock, aliases *workflow.AliasTable, categories *workflow.CategoryTable) *Calculator {
	return &Calculator{
		clock:      clock,
		aliases:    aliases,
		categories: categories,
		logger:     zerolog.Nop(),
	}
}

// WithLogger returns a copy of c that reports anomalies to logger.
func (c *Calculator) WithLogger(logger zerolog.Logger) *Calculator {
	cp := *c
	cp.logger = logger
	return &cp
}

// Compute builds the metrics record for in. Events must already be in
// chronological order, as produced by eventlog.Extract.
func (c *Calculator) Compute(in Input) (*Record, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	rec := &Record{
		WorkingMinutesFromCreate: c.clock.MinutesBetween(in.Created, in.AsOf),
		Transitions:              make([]Transition, 0, len(in.Events)),
	}

	initial := c.initialStatus(in)
	current := initial
	statusStart := in.Created
	visited := map[string]bool{initial: true}
	rec.UniqueStatusesVisited = []string{initial}

	for i, ev := range in.Events {
		to := c.aliases.Normalize(ev.ToStatus)
		from := current
		if ev.FromStatus != "" {
			from = c.aliases.Normalize(ev.FromStatus)
		}

		t := Transition{
			FromStatus: from,
			ToStatus:   to,
		}
		if ev.Author != "" {
			author := ev.Author
			t.Author = &author
		}

		if ev.Malformed() {
			rec.Anomalies = append(rec.Anomalies, Anomaly{
				Index:        i,
				RawTimestamp: ev.RawTimestamp,
				Reason:       "unparseable timestamp, transition counted with zero duration",
			})
			c.logger.Warn().
				Int("index", i).
				Str("timestamp", ev.RawTimestamp).
				Str("from", from).
				Str("to", to).
				Msg("Skipping duration of status change with malformed timestamp")
		} else {
			ts := ev.Timestamp
			t.TransitionDate = &ts
			t.MinutesInPreviousStatus = c.clock.MinutesBetween(statusStart, ts)
			c.accumulate(&rec.Categorized, current, t.MinutesInPreviousStatus)
			statusStart = ts
			rec.StatusChangeDate = &ts

			if rec.FirstExitDate == nil && c.aliases.Equal(from, initial) {
				rec.FirstExitDate = &ts
			}
		}
		t.DaysInPreviousStatus = calendar.DaysFromMinutes(t.MinutesInPreviousStatus)
		t.PeriodInPreviousStatus = calendar.FormatMinutes(t.MinutesInPreviousStatus)

		t.IsForward, t.IsBackflow = c.direction(current, to)
		if t.IsBackflow {
			rec.BackflowCount++
		}
		rec.Transitions = append(rec.Transitions, t)

		current = to
		if !visited[current] {
			visited[current] = true
			rec.UniqueStatusesVisited = append(rec.UniqueStatusesVisited, current)
		}
	}

	if !c.categories.IsCompleted(current) {
		rec.WorkingMinutesInCurrentStatus = c.clock.MinutesBetween(statusStart, in.AsOf)
		c.accumulate(&rec.Categorized, current, rec.WorkingMinutesInCurrentStatus)
	}

	if rec.FirstExitDate != nil {
		m := c.clock.MinutesBetween(*rec.FirstExitDate, in.AsOf)
		rec.WorkingMinutesFromFirstMove = &m
	}

	rec.CurrentStatus = current
	rec.TotalTransitions = len(rec.Transitions)
	if n := len(rec.Transitions); n > 0 {
		prev := rec.Transitions[n-1].FromStatus
		rec.PreviousStatus = &prev
	}

	return rec, nil
}

func (c *Calculator) initialStatus(in Input) string {
	if len(in.Events) > 0 {
		if s := c.aliases.Normalize(in.Events[0].FromStatus); s != "" {
			return s
		}
		return DefaultInitialStatus
	}
	if s := c.aliases.Normalize(in.CurrentStatus); s != "" {
		return s
	}
	return DefaultInitialStatus
}

// direction classifies a move between two statuses by reference order. Moves
// involving an unknown status are neither forward nor backflow, and a single
// step back is not a backflow.
func (c *Calculator) direction(from, to string) (forward, backflow bool) {
	fromOrder := c.aliases.Order(from)
	toOrder := c.aliases.Order(to)
	if fromOrder == 0 || toOrder == 0 {
		return false, false
	}
	return toOrder > fromOrder, fromOrder-toOrder > 1
}

func (c *Calculator) accumulate(buckets *CategorizedMinutes, status string, minutes int) {
	switch c.categories.Of(status) {
	case workflow.Backlog:
		buckets.Backlog += minutes
	case workflow.Processing:
		buckets.Processing += minutes
	case workflow.Waiting:
		buckets.Waiting += minutes
	}
}
