package models

import "time"

// DayProgress is the completion ratio of tasks touched on one day.
type DayProgress struct {
	Date       Date    `json:"date"`
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Stats summarises the board for the dashboard.
type Stats struct {
	Total          int              `json:"total"`
	Completed      int              `json:"completed"`
	Pending        int              `json:"pending"`
	Overdue        int              `json:"overdue"`
	ByStatus       map[Status]int   `json:"byStatus"`
	ByPriority     map[Priority]int `json:"byPriority"`
	WeeklyProgress []DayProgress    `json:"weeklyProgress"`
}

// ComputeStats aggregates tasks relative to now. The weekly progress covers
// the Sunday-started week containing now and buckets tasks by the local day
// of their last update.
func ComputeStats(tasks []Task, now time.Time) Stats {
	s := Stats{
		ByStatus:   make(map[Status]int, len(ValidTaskStatuses)),
		ByPriority: make(map[Priority]int, len(ValidTaskPriorities)),
	}
	for status := range ValidTaskStatuses {
		s.ByStatus[status] = 0
	}
	for priority := range ValidTaskPriorities {
		s.ByPriority[priority] = 0
	}

	loc := now.Location()
	today := NewDate(now)
	weekStart := today.AddDate(0, 0, -int(now.Weekday()))

	s.WeeklyProgress = make([]DayProgress, 7)
	for i := range s.WeeklyProgress {
		s.WeeklyProgress[i].Date = Date{weekStart.AddDate(0, 0, i)}
	}

	for _, t := range tasks {
		s.Total++
		s.ByStatus[t.Status]++
		s.ByPriority[t.Priority]++
		done := t.Status == StatusCompleted
		if done {
			s.Completed++
		} else if !t.DueDate.IsZero() && t.DueDate.Before(today.Time) {
			s.Overdue++
		}

		day := NewDate(t.UpdatedAt.In(loc))
		offset := int(day.Sub(weekStart).Hours() / 24)
		if offset < 0 || offset >= len(s.WeeklyProgress) {
			continue
		}
		s.WeeklyProgress[offset].Total++
		if done {
			s.WeeklyProgress[offset].Completed++
		}
	}
	s.Pending = s.Total - s.Completed

	for i := range s.WeeklyProgress {
		p := &s.WeeklyProgress[i]
		if p.Total > 0 {
			p.Percentage = float64(p.Completed) / float64(p.Total) * 100
		}
	}
	return s
}
