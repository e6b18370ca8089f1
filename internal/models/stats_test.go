package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	// Wednesday; the week starts on Sunday 2024-06-02.
	now := time.Date(2024, 6, 5, 15, 0, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2024, 6, d, 10, 0, 0, 0, time.UTC) }

	tasks := []Task{
		{Status: StatusCompleted, Priority: PriorityHigh, DueDate: NewDate(day(1)), UpdatedAt: day(3)},
		{Status: StatusTodo, Priority: PriorityHigh, DueDate: NewDate(day(4)), UpdatedAt: day(3)},
		{Status: StatusInProgress, Priority: PriorityLow, DueDate: NewDate(day(5)), UpdatedAt: day(5)},
		{Status: StatusTodo, Priority: PriorityMedium, DueDate: NewDate(day(20)), UpdatedAt: day(1)},
	}

	s := ComputeStats(tasks, now)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 3, s.Pending)
	assert.Equal(t, 1, s.Overdue, "due today is not overdue, completed tasks never are")
	assert.Equal(t, 2, s.ByStatus[StatusTodo])
	assert.Equal(t, 0, ComputeStats(nil, now).ByStatus[StatusCompleted])
	assert.Equal(t, 2, s.ByPriority[PriorityHigh])

	require.Len(t, s.WeeklyProgress, 7)
	assert.Equal(t, "2024-06-02", s.WeeklyProgress[0].Date.String())
	monday := s.WeeklyProgress[1]
	assert.Equal(t, 2, monday.Total)
	assert.Equal(t, 1, monday.Completed)
	assert.InDelta(t, 50.0, monday.Percentage, 0.001)
	assert.Equal(t, 1, s.WeeklyProgress[3].Total)
	assert.Equal(t, 0, s.WeeklyProgress[6].Total)
}
