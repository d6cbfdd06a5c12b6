package metrics

import (
	"errors"
	"jiracounter/internal/calendar"
	"jiracounter/internal/eventlog"
	"jiracounter/internal/workflow"
	"math/rand"
	"reflect"
	"testing"
	"time"
)

func newTestCalculator() *Calculator {
	clock := calendar.NewClock(calendar.New(time.UTC, nil))
	return NewCalculator(clock, workflow.DefaultAliasTable(), workflow.DefaultCategoryTable())
}

func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.May, day, hour, minute, 0, 0, time.UTC)
}

func ev(ts time.Time, from, to string) eventlog.StatusChangeEvent {
	return eventlog.StatusChangeEvent{Timestamp: ts, FromStatus: from, ToStatus: to, Author: "tester"}
}

func backflowHistory(from1, to1 string) []eventlog.StatusChangeEvent {
	return []eventlog.StatusChangeEvent{
		ev(at(26, 11, 0), from1, to1),
		ev(at(27, 10, 0), "In Progress", "In Review"),
		ev(at(27, 15, 0), "In Review", "In Progress"),
	}
}

func TestCompute_BackflowScenario(t *testing.T) {
	calc := newTestCalculator()
	rec, err := calc.Compute(Input{
		Created: at(26, 9, 0),
		AsOf:    at(28, 12, 0),
		Events:  backflowHistory("Open", "In Progress"),
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if rec.WorkingMinutesFromCreate != 1140 {
		t.Errorf("Expected 1140 minutes from create, got %d", rec.WorkingMinutesFromCreate)
	}
	if rec.WorkingMinutesInCurrentStatus != 300 {
		t.Errorf("Expected 300 minutes in current status, got %d", rec.WorkingMinutesInCurrentStatus)
	}
	if rec.Categorized.Waiting != 120 || rec.Categorized.Processing != 1020 || rec.Categorized.Backlog != 0 {
		t.Errorf("Unexpected categorized minutes %+v", rec.Categorized)
	}
	if rec.TotalTransitions != 3 || rec.BackflowCount != 1 {
		t.Errorf("Expected 3 transitions and 1 backflow, got %d and %d", rec.TotalTransitions, rec.BackflowCount)
	}

	wantMinutes := []int{120, 420, 300}
	for i, tr := range rec.Transitions {
		if tr.MinutesInPreviousStatus != wantMinutes[i] {
			t.Errorf("Transition %d: expected %d minutes, got %d", i, wantMinutes[i], tr.MinutesInPreviousStatus)
		}
	}
	if !rec.Transitions[0].IsForward || !rec.Transitions[1].IsForward {
		t.Errorf("Expected the first two transitions to be forward")
	}
	if rec.Transitions[0].IsBackflow || rec.Transitions[1].IsBackflow {
		t.Errorf("Expected the first two transitions not to be backflows")
	}
	if !rec.Transitions[2].IsBackflow || rec.Transitions[2].IsForward {
		t.Errorf("Expected In Review -> In Progress to be a backflow")
	}

	if rec.FirstExitDate == nil || !rec.FirstExitDate.Equal(at(26, 11, 0)) {
		t.Errorf("Expected first exit at 26 May 11:00, got %v", rec.FirstExitDate)
	}
	if rec.WorkingMinutesFromFirstMove == nil || *rec.WorkingMinutesFromFirstMove != 1020 {
		t.Errorf("Expected 1020 minutes from first move, got %v", rec.WorkingMinutesFromFirstMove)
	}
	if rec.PreviousStatus == nil || *rec.PreviousStatus != "In Review" {
		t.Errorf("Expected previous status In Review, got %v", rec.PreviousStatus)
	}
	if rec.CurrentStatus != "In Progress" {
		t.Errorf("Expected current status In Progress, got %s", rec.CurrentStatus)
	}
	if rec.StatusChangeDate == nil || !rec.StatusChangeDate.Equal(at(27, 15, 0)) {
		t.Errorf("Expected status change date 27 May 15:00, got %v", rec.StatusChangeDate)
	}
	wantVisited := []string{"Open", "In Progress", "In Review"}
	if !reflect.DeepEqual(rec.UniqueStatusesVisited, wantVisited) {
		t.Errorf("Expected visited %v, got %v", wantVisited, rec.UniqueStatusesVisited)
	}
	if rec.Transitions[1].PeriodInPreviousStatus != "7 hours" {
		t.Errorf("Expected period text '7 hours', got %q", rec.Transitions[1].PeriodInPreviousStatus)
	}
	if rec.Transitions[0].Author == nil || *rec.Transitions[0].Author != "tester" {
		t.Errorf("Expected author tester, got %v", rec.Transitions[0].Author)
	}
}

func TestCompute_CaseInsensitiveEquivalence(t *testing.T) {
	calc := newTestCalculator()
	upper, err := calc.Compute(Input{Created: at(26, 9, 0), AsOf: at(28, 12, 0), Events: backflowHistory("OPEN", "In Progress")})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	lower, err := calc.Compute(Input{Created: at(26, 9, 0), AsOf: at(28, 12, 0), Events: backflowHistory("open", "in progress")})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if upper.TotalTransitions != lower.TotalTransitions {
		t.Errorf("Expected equal transitions, got %d and %d", upper.TotalTransitions, lower.TotalTransitions)
	}
	if upper.BackflowCount != lower.BackflowCount {
		t.Errorf("Expected equal backflows, got %d and %d", upper.BackflowCount, lower.BackflowCount)
	}
	if upper.Categorized != lower.Categorized {
		t.Errorf("Expected equal categories, got %+v and %+v", upper.Categorized, lower.Categorized)
	}
}

func TestCompute_LegacyAliases(t *testing.T) {
	calc := newTestCalculator()
	rec, err := calc.Compute(Input{
		Created: at(26, 9, 0),
		AsOf:    at(26, 15, 0),
		Events: []eventlog.StatusChangeEvent{
			ev(at(26, 10, 0), "Do zrobienia", "W TRAKCIE"),
			ev(at(26, 12, 0), "IN PROGRESS2", "Code Review"),
		},
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if rec.Transitions[0].ToStatus != "In Progress" || rec.Transitions[1].FromStatus != "In Progress" {
		t.Errorf("Expected legacy names to resolve to In Progress, got %+v", rec.Transitions)
	}
	if rec.CurrentStatus != "In Review" {
		t.Errorf("Expected In Review, got %s", rec.CurrentStatus)
	}
	if rec.Categorized.Waiting != 60 || rec.Categorized.Processing != 300 {
		t.Errorf("Unexpected categorized minutes %+v", rec.Categorized)
	}
}

func TestCompute_CompletedTimeIsDiscarded(t *testing.T) {
	calc := newTestCalculator()
	rec, err := calc.Compute(Input{
		Created: at(26, 9, 0),
		AsOf:    at(28, 17, 0),
		Events: []eventlog.StatusChangeEvent{
			ev(at(26, 10, 0), "Backlog", "In Progress"),
			ev(at(27, 10, 0), "In Progress", "Done"),
		},
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if rec.WorkingMinutesFromCreate != 1440 {
		t.Errorf("Expected 1440 minutes from create, got %d", rec.WorkingMinutesFromCreate)
	}
	if rec.Categorized.Backlog != 60 || rec.Categorized.Processing != 480 || rec.Categorized.Waiting != 0 {
		t.Errorf("Unexpected categorized minutes %+v", rec.Categorized)
	}
	if rec.WorkingMinutesInCurrentStatus != 0 {
		t.Errorf("Expected 0 minutes in a completed status, got %d", rec.WorkingMinutesInCurrentStatus)
	}
}

func TestCompute_ReopenedFromDone(t *testing.T) {
	calc := newTestCalculator()
	rec, err := calc.Compute(Input{
		Created: at(26, 9, 0),
		AsOf:    at(28, 17, 0),
		Events: []eventlog.StatusChangeEvent{
			ev(at(26, 10, 0), "Backlog", "In Progress"),
			ev(at(27, 10, 0), "In Progress", "Done"),
			ev(at(28, 10, 0), "Done", "In Progress"),
		},
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if rec.Transitions[2].MinutesInPreviousStatus != 480 {
		t.Errorf("Expected 480 minutes recorded in Done, got %d", rec.Transitions[2].MinutesInPreviousStatus)
	}
	if !rec.Transitions[2].IsBackflow {
		t.Errorf("Expected Done -> In Progress to be a backflow")
	}
	if rec.Categorized.Processing != 900 {
		t.Errorf("Expected 900 processing minutes, got %d", rec.Categorized.Processing)
	}
	if rec.Categorized.Total() != rec.WorkingMinutesFromCreate-480 {
		t.Errorf("Expected only the Done period to be missing from the buckets, got %+v", rec.Categorized)
	}
}

func TestCompute_BackflowBoundary(t *testing.T) {
	tests := []struct {
		name         string
		from, to     string
		wantForward  bool
		wantBackflow bool
	}{
		{"one step back", "In Review", "Blocked", false, false},
		{"two steps back", "In Review", "On Hold", false, true},
		{"one step forward", "In Progress", "On Hold", true, false},
		{"to unknown", "In Progress", "Parking Lot", false, false},
		{"from unknown", "Parking Lot", "Backlog", false, false},
		{"same status", "In Progress", "in progress", false, false},
	}

	calc := newTestCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := calc.Compute(Input{
				Created: at(26, 9, 0),
				AsOf:    at(26, 12, 0),
				Events:  []eventlog.StatusChangeEvent{ev(at(26, 10, 0), tt.from, tt.to)},
			})
			if err != nil {
				t.Fatalf("Compute failed: %v", err)
			}
			tr := rec.Transitions[0]
			if tr.IsForward != tt.wantForward || tr.IsBackflow != tt.wantBackflow {
				t.Errorf("Expected forward=%v backflow=%v, got forward=%v backflow=%v",
					tt.wantForward, tt.wantBackflow, tr.IsForward, tr.IsBackflow)
			}
		})
	}
}

func TestCompute_UnknownStatusIsWaiting(t *testing.T) {
	calc := newTestCalculator()
	rec, err := calc.Compute(Input{
		Created: at(26, 9, 0),
		AsOf:    at(26, 12, 0),
		Events:  []eventlog.StatusChangeEvent{ev(at(26, 10, 0), "Backlog", "Parking Lot")},
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if rec.Categorized.Backlog != 60 || rec.Categorized.Waiting != 120 {
		t.Errorf("Unexpected categorized minutes %+v", rec.Categorized)
	}
}

func TestCompute_EmptyHistory(t *testing.T) {
	tests := []struct {
		name           string
		status         string
		wantVisited    string
		wantCurrent    int
		wantCategories CategorizedMinutes
	}{
		{"defaults to backlog", "", "Backlog", 720, CategorizedMinutes{Backlog: 720}},
		{"supplied status", "in progress", "In Progress", 720, CategorizedMinutes{Processing: 720}},
		{"completed status", "Done", "Done", 0, CategorizedMinutes{}},
	}

	calc := newTestCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := calc.Compute(Input{Created: at(26, 9, 0), AsOf: at(27, 13, 0), CurrentStatus: tt.status})
			if err != nil {
				t.Fatalf("Compute failed: %v", err)
			}
			if rec.TotalTransitions != 0 || rec.BackflowCount != 0 {
				t.Errorf("Expected no transitions, got %d / %d", rec.TotalTransitions, rec.BackflowCount)
			}
			if !reflect.DeepEqual(rec.UniqueStatusesVisited, []string{tt.wantVisited}) {
				t.Errorf("Expected visited [%s], got %v", tt.wantVisited, rec.UniqueStatusesVisited)
			}
			if rec.WorkingMinutesFromCreate != 720 {
				t.Errorf("Expected 720 minutes from create, got %d", rec.WorkingMinutesFromCreate)
			}
			if rec.WorkingMinutesInCurrentStatus != tt.wantCurrent {
				t.Errorf("Expected %d minutes in current status, got %d", tt.wantCurrent, rec.WorkingMinutesInCurrentStatus)
			}
			if rec.Categorized != tt.wantCategories {
				t.Errorf("Expected %+v, got %+v", tt.wantCategories, rec.Categorized)
			}
			if rec.FirstExitDate != nil || rec.WorkingMinutesFromFirstMove != nil || rec.PreviousStatus != nil {
				t.Errorf("Expected nil first exit, first move and previous status")
			}
		})
	}
}

func TestCompute_MalformedTimestamp(t *testing.T) {
	calc := newTestCalculator()
	rec, err := calc.Compute(Input{
		Created: at(26, 9, 0),
		AsOf:    at(27, 12, 0),
		Events: []eventlog.StatusChangeEvent{
			ev(at(26, 11, 0), "Open", "In Progress"),
			{RawTimestamp: "31/02/2025", FromStatus: "In Progress", ToStatus: "Blocked"},
			ev(at(27, 10, 0), "Blocked", "In Progress"),
		},
	})
	if err != nil {
		t.Fatalf("Expected graceful degradation, got %v", err)
	}

	if len(rec.Anomalies) != 1 || rec.Anomalies[0].Index != 1 || rec.Anomalies[0].RawTimestamp != "31/02/2025" {
		t.Errorf("Expected one anomaly at index 1, got %+v", rec.Anomalies)
	}
	if rec.TotalTransitions != 3 {
		t.Errorf("Expected 3 transitions, got %d", rec.TotalTransitions)
	}
	if rec.Transitions[1].MinutesInPreviousStatus != 0 || rec.Transitions[1].TransitionDate != nil {
		t.Errorf("Expected malformed transition to carry no duration or date, got %+v", rec.Transitions[1])
	}
	if rec.Transitions[2].MinutesInPreviousStatus != 420 {
		t.Errorf("Expected 420 minutes since the last valid change, got %d", rec.Transitions[2].MinutesInPreviousStatus)
	}
	if rec.Categorized.Waiting != 120+420 || rec.Categorized.Processing != 120 {
		t.Errorf("Unexpected categorized minutes %+v", rec.Categorized)
	}
	if rec.Categorized.Total() != rec.WorkingMinutesFromCreate {
		t.Errorf("Expected buckets to add up to %d, got %d", rec.WorkingMinutesFromCreate, rec.Categorized.Total())
	}
}

func TestCompute_MissingInstants(t *testing.T) {
	calc := newTestCalculator()
	tests := []Input{
		{AsOf: at(26, 9, 0)},
		{Created: at(26, 9, 0)},
		{},
	}
	for i, in := range tests {
		if _, err := calc.Compute(in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestCompute_AsOfBeforeCreation(t *testing.T) {
	calc := newTestCalculator()
	rec, err := calc.Compute(Input{
		Created: at(28, 9, 0),
		AsOf:    at(26, 9, 0),
		Events:  []eventlog.StatusChangeEvent{ev(at(27, 10, 0), "Open", "In Progress")},
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if rec.WorkingMinutesFromCreate != 0 || rec.WorkingMinutesInCurrentStatus != 0 {
		t.Errorf("Expected zero minutes, got %d / %d", rec.WorkingMinutesFromCreate, rec.WorkingMinutesInCurrentStatus)
	}
	if rec.Transitions[0].MinutesInPreviousStatus != 0 {
		t.Errorf("Expected zero minutes for an event before creation, got %d", rec.Transitions[0].MinutesInPreviousStatus)
	}
	if *rec.WorkingMinutesFromFirstMove != 0 {
		t.Errorf("Expected zero minutes from first move, got %d", *rec.WorkingMinutesFromFirstMove)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	calc := newTestCalculator()
	in := Input{Created: at(26, 9, 0), AsOf: at(28, 12, 0), Events: backflowHistory("Open", "In Progress")}

	first, err := calc.Compute(in)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	second, err := calc.Compute(in)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical records for identical input")
	}
}

func TestCompute_HolidayCalendar(t *testing.T) {
	wc, err := calendar.ForCountry("PL", "Europe/Warsaw")
	if err != nil {
		t.Fatalf("ForCountry failed: %v", err)
	}
	calc := NewCalculator(calendar.NewClock(wc), workflow.DefaultAliasTable(), workflow.DefaultCategoryTable())
	loc := wc.Location()

	rec, err := calc.Compute(Input{
		Created: time.Date(2025, time.April, 30, 16, 0, 0, 0, loc),
		AsOf:    time.Date(2025, time.May, 2, 10, 0, 0, 0, loc),
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	// 1 May is a public holiday in Poland.
	if rec.WorkingMinutesFromCreate != 120 {
		t.Errorf("Expected 120 minutes around the May holiday, got %d", rec.WorkingMinutesFromCreate)
	}
}

// Buckets add up to the total whenever no completed status is entered and
// every instant sits inside the working window of a working day.
func TestCompute_ConservationWithoutCompletedStatuses(t *testing.T) {
	statuses := []string{"Backlog", "Open", "To Do", "In Progress", "Blocked", "In Review", "Testing", "Parking Lot"}
	workdays := []int{19, 20, 21, 22, 23, 26, 27, 28, 29, 30}
	rng := rand.New(rand.NewSource(42))
	calc := newTestCalculator()

	randomInstant := func() time.Time {
		return at(workdays[rng.Intn(len(workdays))], 9, rng.Intn(481))
	}

	for round := 0; round < 200; round++ {
		n := rng.Intn(8)
		instants := make([]time.Time, n+2)
		for i := range instants {
			instants[i] = randomInstant()
		}
		sortTimes(instants)

		current := statuses[rng.Intn(len(statuses))]
		events := make([]eventlog.StatusChangeEvent, 0, n)
		for i := 1; i <= n; i++ {
			next := statuses[rng.Intn(len(statuses))]
			events = append(events, ev(instants[i], current, next))
			current = next
		}

		rec, err := calc.Compute(Input{Created: instants[0], AsOf: instants[n+1], Events: events})
		if err != nil {
			t.Fatalf("Compute failed: %v", err)
		}
		if rec.Categorized.Total() != rec.WorkingMinutesFromCreate {
			t.Fatalf("Round %d: buckets %+v do not add up to %d", round, rec.Categorized, rec.WorkingMinutesFromCreate)
		}
		if rec.WorkingMinutesInCurrentStatus < 0 || rec.WorkingMinutesFromCreate < 0 {
			t.Fatalf("Round %d: negative minutes in %+v", round, rec)
		}
		for _, tr := range rec.Transitions {
			if tr.MinutesInPreviousStatus < 0 {
				t.Fatalf("Round %d: negative transition minutes", round)
			}
		}
	}
}

func sortTimes(ts []time.Time) {
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && ts[j].Before(ts[j-1]); j-- {
			ts[j], ts[j-1] = ts[j-1], ts[j]
		}
	}
}
