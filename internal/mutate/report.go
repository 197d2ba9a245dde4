package mutate

import (
	"sort"
	"time"

	"nexdo/internal/model"
	"nexdo/internal/store"
)

const inboxName = "Inbox"

// TaskTime is one task's tracked time against its estimate.
type TaskTime struct {
	TaskID           string `json:"taskId"`
	Title            string `json:"title"`
	ProjectID        string `json:"projectId"`
	TrackedSeconds   int64  `json:"trackedSeconds"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	Tracking         bool   `json:"tracking"`
}

// ProjectTime rolls TaskTime rows up per project. Tasks without a project roll up into the inbox,
// which has an empty ProjectID.
type ProjectTime struct {
	ProjectID        string `json:"projectId"`
	Name             string `json:"name"`
	TrackedSeconds   int64  `json:"trackedSeconds"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	TaskCount        int    `json:"taskCount"`
}

type TimeReport struct {
	TrackedSeconds   int64         `json:"trackedSeconds"`
	EstimatedMinutes int           `json:"estimatedMinutes"`
	Projects         []ProjectTime `json:"projects"`
	Tasks            []TaskTime    `json:"tasks"`
	Active           *TaskTime     `json:"active"`
}

// BuildTimeReport totals tracked time (including the running tracker at now) and estimates over
// live tasks that have either. Projects and tasks are ordered by tracked time, most first; limit
// caps the task list when positive.
func BuildTimeReport(db *store.DB, now time.Time, limit int) TimeReport {
	r := TimeReport{Projects: []ProjectTime{}, Tasks: []TaskTime{}}
	byProject := map[string]int{}

	db.Walk(func(t *model.Task) {
		if t.IsDeleted() {
			return
		}
		row := TaskTime{
			TaskID:         t.ID,
			Title:          t.Title,
			ProjectID:      t.ProjectID,
			TrackedSeconds: TrackedSeconds(t, now),
			Tracking:       t.IsTracking(),
		}
		if t.EstimatedMinutes != nil {
			row.EstimatedMinutes = *t.EstimatedMinutes
		}
		if row.TrackedSeconds == 0 && row.EstimatedMinutes == 0 {
			return
		}

		r.TrackedSeconds += row.TrackedSeconds
		r.EstimatedMinutes += row.EstimatedMinutes
		r.Tasks = append(r.Tasks, row)

		i, ok := byProject[t.ProjectID]
		if !ok {
			i = len(r.Projects)
			byProject[t.ProjectID] = i
			r.Projects = append(r.Projects, ProjectTime{ProjectID: t.ProjectID, Name: projectName(db, t.ProjectID)})
		}
		p := &r.Projects[i]
		p.TrackedSeconds += row.TrackedSeconds
		p.EstimatedMinutes += row.EstimatedMinutes
		p.TaskCount++
	})

	for i := range r.Tasks {
		if r.Tasks[i].Tracking {
			active := r.Tasks[i]
			r.Active = &active
			break
		}
	}
	sort.SliceStable(r.Projects, func(i, j int) bool {
		return r.Projects[i].TrackedSeconds > r.Projects[j].TrackedSeconds
	})
	sort.SliceStable(r.Tasks, func(i, j int) bool {
		return r.Tasks[i].TrackedSeconds > r.Tasks[j].TrackedSeconds
	})
	if limit > 0 && len(r.Tasks) > limit {
		r.Tasks = r.Tasks[:limit]
	}
	return r
}

func projectName(db *store.DB, id string) string {
	if id == "" {
		return inboxName
	}
	if p, ok := db.FindProject(id); ok {
		return p.Name
	}
	return "Unknown project"
}
