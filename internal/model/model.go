package model

import "time"

type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNone   Priority = "none"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

type RecurrenceRule struct {
	Frequency Frequency `json:"frequency"`
	Interval  int       `json:"interval"`
	EndDate   string    `json:"endDate,omitempty"` // YYYY-MM-DD
}

type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Tree edges. An empty ParentID marks a root task (ordered by DB.RootTaskIDs).
	ParentID string   `json:"parentId,omitempty"`
	ChildIDs []string `json:"childIds"`
	Depth    int      `json:"depth"`

	StatusID string   `json:"statusId"`
	Priority Priority `json:"priority"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
	DueDate     string     `json:"dueDate,omitempty"` // YYYY-MM-DD or RFC3339
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	EstimatedMinutes *int            `json:"estimatedMinutes,omitempty"`
	Recurrence       *RecurrenceRule `json:"recurrence,omitempty"`

	TrackingStartedAt *time.Time `json:"trackingStartedAt,omitempty"`
	TrackedSeconds    *int64     `json:"trackedSeconds,omitempty"`

	ProjectID   string   `json:"projectId,omitempty"`
	AssigneeIDs []string `json:"assigneeIds"`
	Labels      []string `json:"labels"`
}

func (t *Task) IsDeleted() bool { return t != nil && t.DeletedAt != nil }

func (t *Task) IsTracking() bool { return t != nil && t.TrackingStartedAt != nil }

type ActivityType string

const (
	ActivityCreated         ActivityType = "created"
	ActivityComment         ActivityType = "comment"
	ActivityStatusChange    ActivityType = "status_change"
	ActivityCompleted       ActivityType = "completed"
	ActivityReopened        ActivityType = "reopened"
	ActivityUpdated         ActivityType = "updated"
	ActivityTrackingStarted ActivityType = "tracking_started"
	ActivityTrackingStopped ActivityType = "tracking_stopped"
)

// Activity is an immutable audit record attached to a task.
type Activity struct {
	ID           string       `json:"id"`
	TaskID       string       `json:"taskId"`
	Type         ActivityType `json:"type"`
	ActorUserID  string       `json:"actorUserId"`
	CreatedAt    time.Time    `json:"createdAt"`
	Content      string       `json:"content,omitempty"`
	FromStatusID string       `json:"fromStatusId,omitempty"`
	ToStatusID   string       `json:"toStatusId,omitempty"`
}

type Status struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Order     int    `json:"order"`
	IsDefault bool   `json:"isDefault,omitempty"`
	IsDone    bool   `json:"isDone,omitempty"`
}

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	Statuses    []Status  `json:"statuses"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// TimeSession is a closed tracking interval.
type TimeSession struct {
	ID              string    `json:"id"`
	TaskID          string    `json:"taskId"`
	StartedAt       time.Time `json:"startedAt"`
	EndedAt         time.Time `json:"endedAt"`
	DurationSeconds int64     `json:"durationSeconds"`
}
