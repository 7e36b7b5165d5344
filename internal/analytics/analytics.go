// Package analytics aggregates exported tickets into dashboard numbers
// and chart series.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/helpdesk-console/internal/domain"
)

// Range bounds the aggregation by creation day, both ends inclusive. A
// zero bound is open.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls on a day inside the range.
func (r Range) Contains(t time.Time) bool {
	day := startOfDay(t)
	if !r.From.IsZero() && day.Before(startOfDay(r.From)) {
		return false
	}
	if !r.To.IsZero() && day.After(startOfDay(r.To)) {
		return false
	}
	return true
}

type StatusCount struct {
	Status domain.TicketStatus `json:"status"`
	Count  int                 `json:"count"`
}

type PriorityCount struct {
	Priority domain.TicketPriority `json:"priority"`
	Count    int                   `json:"count"`
}

type QueueCount struct {
	QueueID string `json:"queueId"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
}

// WorkloadItem counts tickets per assignee; an empty AssigneeID groups
// unassigned tickets.
type WorkloadItem struct {
	AssigneeID string `json:"assigneeId"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
}

type VolumePoint struct {
	Day      time.Time `json:"day"`
	Created  int       `json:"created"`
	Resolved int       `json:"resolved"`
}

// Summary is the dashboard for a set of tickets.
type Summary struct {
	Range      Range           `json:"range"`
	Total      int             `json:"total"`
	Backlog    int             `json:"backlog"`
	Resolved   int             `json:"resolved"`
	MTTRHours  float64         `json:"mttrHours"`
	ByStatus   []StatusCount   `json:"byStatus"`
	ByPriority []PriorityCount `json:"byPriority"`
	ByQueue    []QueueCount    `json:"byQueue"`
	Workload   []WorkloadItem  `json:"workload"`
	Volume     []VolumePoint   `json:"volume"`
}

// Names resolves ids to display names. Missing entries fall back to the id.
type Names struct {
	Queues map[string]string
	Users  map[string]string
}

// Summarize aggregates tickets created within r.
func Summarize(tickets []domain.Ticket, r Range, names Names) Summary {
	s := Summary{Range: r}
	byStatus := map[domain.TicketStatus]int{}
	byPriority := map[domain.TicketPriority]int{}
	byQueue := map[string]int{}
	workload := map[string]int{}
	created := map[time.Time]int{}
	resolved := map[time.Time]int{}
	var resolutionHours float64
	var first, last time.Time

	for _, t := range tickets {
		if !r.Contains(t.CreatedAt) {
			continue
		}
		s.Total++
		byStatus[t.Status]++
		byPriority[t.Priority]++
		byQueue[t.QueueID]++
		if !t.Status.Finished() {
			s.Backlog++
			assignee := ""
			if t.AssignedToID != nil {
				assignee = *t.AssignedToID
			}
			workload[assignee]++
		}

		day := startOfDay(t.CreatedAt)
		created[day]++
		first, last = widen(first, last, day)
		if t.Status.Finished() && t.ClosedAt != nil {
			s.Resolved++
			resolutionHours += t.ClosedAt.Sub(t.CreatedAt).Hours()
			if r.Contains(*t.ClosedAt) {
				closedDay := startOfDay(*t.ClosedAt)
				resolved[closedDay]++
				first, last = widen(first, last, closedDay)
			}
		}
	}
	if s.Resolved > 0 {
		s.MTTRHours = round1(resolutionHours / float64(s.Resolved))
	}

	for _, status := range domain.TicketStatuses {
		s.ByStatus = append(s.ByStatus, StatusCount{Status: status, Count: byStatus[status]})
	}
	for _, priority := range domain.TicketPriorities {
		s.ByPriority = append(s.ByPriority, PriorityCount{Priority: priority, Count: byPriority[priority]})
	}
	for id, count := range byQueue {
		s.ByQueue = append(s.ByQueue, QueueCount{QueueID: id, Name: lookup(names.Queues, id), Count: count})
	}
	sort.Slice(s.ByQueue, func(i, j int) bool {
		if s.ByQueue[i].Count != s.ByQueue[j].Count {
			return s.ByQueue[i].Count > s.ByQueue[j].Count
		}
		return s.ByQueue[i].QueueID < s.ByQueue[j].QueueID
	})
	for id, count := range workload {
		name := "Unassigned"
		if id != "" {
			name = lookup(names.Users, id)
		}
		s.Workload = append(s.Workload, WorkloadItem{AssigneeID: id, Name: name, Count: count})
	}
	sort.Slice(s.Workload, func(i, j int) bool {
		if s.Workload[i].Count != s.Workload[j].Count {
			return s.Workload[i].Count > s.Workload[j].Count
		}
		return s.Workload[i].AssigneeID < s.Workload[j].AssigneeID
	})

	if !r.From.IsZero() {
		first = startOfDay(r.From)
	}
	if !r.To.IsZero() {
		last = startOfDay(r.To)
	}
	if !first.IsZero() && !last.Before(first) {
		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			s.Volume = append(s.Volume, VolumePoint{Day: day, Created: created[day], Resolved: resolved[day]})
		}
	}
	return s
}

// Point is one labelled value of a chart.
type Point struct {
	Label   string `json:"label"`
	Value   int    `json:"value"`
	Percent string `json:"percent"`
}

// Series is a named list of points.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Percent formats part/total with one decimal; a zero total yields "0.0".
func Percent(part, total int) string {
	if total == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(part)*100/float64(total))
}

// Charts returns the series the dashboard draws.
func (s Summary) Charts() []Series {
	status := Series{Name: "status"}
	for _, c := range s.ByStatus {
		status.Points = append(status.Points, Point{Label: string(c.Status), Value: c.Count, Percent: Percent(c.Count, s.Total)})
	}
	priority := Series{Name: "priority"}
	for _, c := range s.ByPriority {
		priority.Points = append(priority.Points, Point{Label: string(c.Priority), Value: c.Count, Percent: Percent(c.Count, s.Total)})
	}
	queue := Series{Name: "queue"}
	for _, c := range s.ByQueue {
		queue.Points = append(queue.Points, Point{Label: c.Name, Value: c.Count, Percent: Percent(c.Count, s.Total)})
	}
	workload := Series{Name: "workload"}
	for _, c := range s.Workload {
		workload.Points = append(workload.Points, Point{Label: c.Name, Value: c.Count, Percent: Percent(c.Count, s.Backlog)})
	}
	createdSeries := Series{Name: "created"}
	resolvedSeries := Series{Name: "resolved"}
	var totalCreated, totalResolved int
	for _, v := range s.Volume {
		totalCreated += v.Created
		totalResolved += v.Resolved
	}
	for _, v := range s.Volume {
		label := v.Day.Format("2006-01-02")
		createdSeries.Points = append(createdSeries.Points, Point{Label: label, Value: v.Created, Percent: Percent(v.Created, totalCreated)})
		resolvedSeries.Points = append(resolvedSeries.Points, Point{Label: label, Value: v.Resolved, Percent: Percent(v.Resolved, totalResolved)})
	}
	return []Series{status, priority, queue, workload, createdSeries, resolvedSeries}
}

func lookup(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id
}

func widen(first, last, day time.Time) (time.Time, time.Time) {
	if first.IsZero() || day.Before(first) {
		first = day
	}
	if last.IsZero() || day.After(last) {
		last = day
	}
	return first, last
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
