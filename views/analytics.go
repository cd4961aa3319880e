package views

import (
	"math"
	"sort"
	"time"

	"github.com/phbpx/minicrm"
)

const (
	unassigned  = "Unassigned"
	monthLayout = "Jan 2006"
)

type MonthStats struct {
	Total     int `json:"total"`
	Converted int `json:"converted"`
}

// Rate is the share of converted leads in the month, in whole percent.
func (m MonthStats) Rate() int {
	return percent(m.Converted, m.Total)
}

type Analytics struct {
	TotalLeads     int                   `json:"totalLeads"`
	ConvertedCount int                   `json:"convertedCount"`
	ConversionRate int                   `json:"conversionRate"`
	ByAgent        map[string]int        `json:"byAgent"`
	ByMonth        map[string]MonthStats `json:"byMonth"`
}

// Summarize aggregates leads by assignee and by creation month. Months are
// labelled like "Jan 2024" in loc, or in UTC when loc is nil.
func Summarize(leads []minicrm.Lead, loc *time.Location) Analytics {
	if loc == nil {
		loc = time.UTC
	}

	a := Analytics{
		TotalLeads: len(leads),
		ByAgent:    map[string]int{},
		ByMonth:    map[string]MonthStats{},
	}

	for _, l := range leads {
		converted := l.Status == minicrm.StatusConverted
		if converted {
			a.ConvertedCount++
		}

		agent := l.AssignedTo
		if agent == "" {
			agent = unassigned
		}
		a.ByAgent[agent]++

		key := l.CreatedAt.In(loc).Format(monthLayout)
		m := a.ByMonth[key]
		m.Total++
		if converted {
			m.Converted++
		}
		a.ByMonth[key] = m
	}

	a.ConversionRate = percent(a.ConvertedCount, a.TotalLeads)
	return a
}

// Months returns the month labels in calendar order.
func (a Analytics) Months() []string {
	labels := make([]string, 0, len(a.ByMonth))
	for k := range a.ByMonth {
		labels = append(labels, k)
	}
	sort.Slice(labels, func(i, j int) bool {
		ti, _ := time.Parse(monthLayout, labels[i])
		tj, _ := time.Parse(monthLayout, labels[j])
		return ti.Before(tj)
	})
	return labels
}

// Agents returns assignees by descending lead count, then by name.
func (a Analytics) Agents() []string {
	agents := make([]string, 0, len(a.ByAgent))
	for k := range a.ByAgent {
		agents = append(agents, k)
	}
	sort.Slice(agents, func(i, j int) bool {
		if a.ByAgent[agents[i]] != a.ByAgent[agents[j]] {
			return a.ByAgent[agents[i]] > a.ByAgent[agents[j]]
		}
		return agents[i] < agents[j]
	})
	return agents
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
