package mutate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTimeReport(t *testing.T) {
	e, c := newTestEngine()
	minutes := func(n int) *int { return &n }

	work := e.AddProject("Work", "")
	a := e.AddTask("A", AddOptions{ProjectID: work, EstimatedMinutes: minutes(60)})
	b := e.AddTask("B", AddOptions{})
	e.AddTask("C", AddOptions{EstimatedMinutes: minutes(15)})
	e.AddTask("untouched", AddOptions{})
	gone := e.AddTask("gone", AddOptions{EstimatedMinutes: minutes(90)})
	f := e.AddTask("F", AddOptions{ProjectID: work})
	require.True(t, e.DeleteTask(gone))

	require.True(t, e.StartTracking(a))
	c.advance(10 * time.Minute)
	require.True(t, e.StopTracking(a))
	require.True(t, e.StartTracking(b))
	c.advance(30 * time.Minute)
	require.True(t, e.StopTracking(b))
	require.True(t, e.StartTracking(f))
	c.advance(5 * time.Minute)

	r := BuildTimeReport(e.DB(), e.Now(), 3)

	assert.Equal(t, int64(2700), r.TrackedSeconds)
	assert.Equal(t, 75, r.EstimatedMinutes)

	require.Len(t, r.Projects, 2)
	assert.Equal(t, ProjectTime{ProjectID: "", Name: "Inbox", TrackedSeconds: 1800, EstimatedMinutes: 15, TaskCount: 2}, r.Projects[0])
	assert.Equal(t, ProjectTime{ProjectID: work, Name: "Work", TrackedSeconds: 900, EstimatedMinutes: 60, TaskCount: 2}, r.Projects[1])

	require.Len(t, r.Tasks, 3)
	assert.Equal(t, []string{b, a, f}, []string{r.Tasks[0].TaskID, r.Tasks[1].TaskID, r.Tasks[2].TaskID})

	require.NotNil(t, r.Active)
	assert.Equal(t, f, r.Active.TaskID)
	assert.Equal(t, int64(300), r.Active.TrackedSeconds)
}

func TestBuildTimeReportEmpty(t *testing.T) {
	e, _ := newTestEngine()
	e.AddTask("idle", AddOptions{})

	r := BuildTimeReport(e.DB(), e.Now(), 0)
	assert.Zero(t, r.TrackedSeconds)
	assert.Empty(t, r.Projects)
	assert.Empty(t, r.Tasks)
	assert.Nil(t, r.Active)
}
