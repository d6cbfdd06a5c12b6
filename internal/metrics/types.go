package metrics

import "time"

// CategorizedMinutes splits elapsed working minutes by status category.
// Time spent in completed statuses is not attributed to any bucket.
type CategorizedMinutes struct {
	Backlog    int `json:"backlog_minutes"`
	Processing int `json:"processing_minutes"`
	Waiting    int `json:"waiting_minutes"`
}

// Total is the sum of all buckets.
func (c CategorizedMinutes) Total() int {
	return c.Backlog + c.Processing + c.Waiting
}

// Transition is one status change annotated with timing and direction.
type Transition struct {
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	// TransitionDate is nil when the change log timestamp was unparseable.
	TransitionDate          *time.Time `json:"transition_date"`
	MinutesInPreviousStatus int        `json:"minutes_in_previous_status"`
	DaysInPreviousStatus    float64    `json:"days_in_previous_status"`
	PeriodInPreviousStatus  string     `json:"period_in_previous_status"`
	IsForward               bool       `json:"is_forward"`
	IsBackflow              bool       `json:"is_backflow"`
	Author                  *string    `json:"author"`
}

// Anomaly describes a history entry the calculator had to degrade on.
type Anomaly struct {
	Index        int    `json:"index"`
	RawTimestamp string `json:"raw_timestamp"`
	Reason       string `json:"reason"`
}

// Record is the full set of metrics computed for one issue.
type Record struct {
	WorkingMinutesFromCreate      int                `json:"working_minutes_from_create"`
	WorkingMinutesInCurrentStatus int                `json:"working_minutes_in_current_status"`
	WorkingMinutesFromFirstMove   *int               `json:"working_minutes_from_first_move"`
	Categorized                   CategorizedMinutes `json:"categorized"`
	CurrentStatus                 string             `json:"current_status"`
	PreviousStatus                *string            `json:"previous_status"`
	TotalTransitions              int                `json:"total_transitions"`
	BackflowCount                 int                `json:"backflow_count"`
	UniqueStatusesVisited         []string           `json:"unique_statuses_visited"`
	Transitions                   []Transition       `json:"transitions"`
	FirstExitDate                 *time.Time         `json:"first_exit_date"`
	StatusChangeDate              *time.Time         `json:"status_change_date"`
	Anomalies                     []Anomaly          `json:"anomalies,omitempty"`
}

// Visited reports whether status is among the unique statuses visited.
func (r *Record) Visited(status string) bool {
	for _, s := range r.UniqueStatusesVisited {
		if s == status {
			return true
		}
	}
	return false
}
